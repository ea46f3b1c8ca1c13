package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/pos-inventory/pkg/config"
	"github.com/angelmondragon/pos-inventory/pkg/db"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
)

// MaybeRunDev applies pending migrations at startup when POS_AUTO_MIGRATE is
// set and the process runs in dev or on a local sqlite file. A single
// terminal has nobody else to run cmd/migrate for it.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !autoRunAllowed(cfg) {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	m, err := New(sqlDB, client.Dialect(), DefaultDir)
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{"dir": DefaultDir, "dialect": client.Dialect()})
	pending, err := m.Pending(ctx)
	if err != nil {
		return fmt.Errorf("checking pending migrations: %w", err)
	}
	if !pending {
		logg.Debug(ctx, "schema up to date")
		return nil
	}

	applied, err := m.Up(ctx)
	for _, step := range applied {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":     step.Version,
			"duration_ms": step.Duration.Milliseconds(),
		}), "migration applied")
	}
	if err != nil {
		return err
	}
	version, err := m.Version(ctx)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "version", version), "auto-migrate complete")
	return nil
}

func autoRunAllowed(cfg *config.Config) bool {
	if !cfg.FeatureFlags.AutoMigrate {
		return false
	}
	return cfg.App.IsDev() || cfg.DB.IsSQLite()
}
