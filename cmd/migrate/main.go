package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/pos-inventory/pkg/config"
	"github.com/angelmondragon/pos-inventory/pkg/db"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
	"github.com/angelmondragon/pos-inventory/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
}

// fileCommands only touch the migrations directory.
var fileCommands = map[string]func(options) error{
	"create": func(o options) error {
		if o.name == "" {
			return errors.New("-name is required for create")
		}
		path, err := migrate.CreateSQLMigration(o.dir, o.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	},
	"validate": func(o options) error {
		if err := migrate.ValidateDir(o.dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	},
}

// dbCommands run against the configured database.
var dbCommands = map[string]func(context.Context, *migrate.Migrator, options) error{
	"up": func(ctx context.Context, m *migrate.Migrator, _ options) error {
		return printSteps(m.Up(ctx))
	},
	"down": func(ctx context.Context, m *migrate.Migrator, _ options) error {
		return printSteps(m.Down(ctx))
	},
	"version": func(ctx context.Context, m *migrate.Migrator, o options) error {
		if o.version == "" {
			return errors.New("-version is required for version")
		}
		return printSteps(m.To(ctx, o.version))
	},
	"status": func(ctx context.Context, m *migrate.Migrator, _ options) error {
		statuses, err := m.Status(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tAPPLIED AT\tFILE")
		for _, s := range statuses {
			at := "pending"
			if s.Applied {
				at = s.AppliedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", s.Version, at, filepath.Base(s.Path))
		}
		return w.Flush()
	},
}

func printSteps(steps []migrate.Step, err error) error {
	for _, s := range steps {
		fmt.Printf("%-4s %d %s (%s)\n", s.Direction, s.Version, filepath.Base(s.Path), s.Duration.Round(time.Millisecond))
	}
	if err == nil && len(steps) == 0 {
		fmt.Println("nothing to do")
	}
	return err
}

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	var opts options
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version YYYYMMDDHHMMSS (for version)")
	flag.Parse()

	if run, ok := fileCommands[*cmd]; ok {
		if err := run(opts); err != nil {
			fmt.Fprintf(os.Stderr, "migrate %s: %v\n", *cmd, err)
			os.Exit(1)
		}
		return
	}
	run, ok := dbCommands[*cmd]
	if !ok {
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(2)
	}

	_ = godotenv.Load()
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": opts.dir,
	})

	if err := runAgainstDB(ctx, logg, cfg, run, opts); err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migration command complete")
}

func runAgainstDB(ctx context.Context, logg *logger.Logger, cfg *config.Config, run func(context.Context, *migrate.Migrator, options) error, opts options) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()

	conn, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	m, err := migrate.New(conn, dbClient.Dialect(), opts.dir)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "dialect", dbClient.Dialect()), "migrate ready")
	return run(ctx, m, opts)
}
