package migrate

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var (
	fileNameRe   = regexp.MustCompile(`^(\d{14})_([a-z0-9]+(?:_[a-z0-9]+)*)\.sql$`)
	slugInvalid  = regexp.MustCompile(`[^a-z0-9]+`)
	errEmptySlug = errors.New("migration name has no usable characters")
)

const skeleton = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- undo %[1]s
-- +goose StatementEnd
`

// migrationFile is a parsed <version>_<slug>.sql file name.
type migrationFile struct {
	Version string
	Slug    string
	Name    string
}

func parseFileName(name string) (migrationFile, bool) {
	m := fileNameRe.FindStringSubmatch(name)
	if m == nil {
		return migrationFile{}, false
	}
	if _, err := time.Parse(versionLayout, m[1]); err != nil {
		return migrationFile{}, false
	}
	return migrationFile{Version: m[1], Slug: m[2], Name: name}, true
}

// slugify lowercases name and joins its alphanumeric runs with underscores.
func slugify(name string) (string, error) {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(name), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		return "", errEmptySlug
	}
	return slug, nil
}

// CreateSQLMigration writes an empty goose migration named after the current
// UTC time and returns its path.
func CreateSQLMigration(dir, name string) (string, error) {
	return createAt(dir, name, time.Now().UTC())
}

func createAt(dir, name string, at time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug, err := slugify(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create migrations dir: %w", err)
	}

	path := filepath.Join(dir, at.Format(versionLayout)+"_"+slug+".sql")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("migration already exists: %s", path)
		}
		return "", fmt.Errorf("create migration: %w", err)
	}
	if _, err := fmt.Fprintf(f, skeleton, slug); err != nil {
		f.Close()
		return "", fmt.Errorf("write migration %s: %w", path, err)
	}
	return path, f.Close()
}

// ValidateDir checks every .sql file in dir: names follow
// <YYYYMMDDHHMMSS>_<slug>.sql, versions are unique, and each file declares an
// Up section before its Down section with balanced statement blocks.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []migrationFile
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}
		mf, ok := parseFileName(e.Name())
		if !ok {
			return fmt.Errorf("invalid migration filename %q (want YYYYMMDDHHMMSS_name.sql)", e.Name())
		}
		files = append(files, mf)
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations found in %s", dir)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	for i, mf := range files {
		if i > 0 && files[i-1].Version == mf.Version {
			return fmt.Errorf("duplicate migration version %s: %s and %s", mf.Version, files[i-1].Name, mf.Name)
		}
		body, err := os.ReadFile(filepath.Join(dir, mf.Name))
		if err != nil {
			return fmt.Errorf("read %s: %w", mf.Name, err)
		}
		if err := checkAnnotations(body); err != nil {
			return fmt.Errorf("migration %s: %w", mf.Name, err)
		}
	}
	return nil
}

func checkAnnotations(body []byte) error {
	var up, down, open bool
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for line := 1; scanner.Scan(); line++ {
		switch strings.TrimSpace(scanner.Text()) {
		case "-- +goose Up":
			if up {
				return fmt.Errorf("line %d: second Up section", line)
			}
			up = true
		case "-- +goose Down":
			if !up {
				return fmt.Errorf("line %d: Down section before Up", line)
			}
			if open {
				return fmt.Errorf("line %d: Down section inside a statement block", line)
			}
			down = true
		case "-- +goose StatementBegin":
			if open {
				return fmt.Errorf("line %d: nested StatementBegin", line)
			}
			open = true
		case "-- +goose StatementEnd":
			if !open {
				return fmt.Errorf("line %d: StatementEnd without StatementBegin", line)
			}
			open = false
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	switch {
	case !up:
		return fmt.Errorf(`missing "-- +goose Up"`)
	case !down:
		return fmt.Errorf(`missing "-- +goose Down"`)
	case open:
		return fmt.Errorf("unterminated statement block")
	}
	return nil
}
