package database

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migration is one versioned pair of SQL scripts. Files are named NNNNNN_name.up.sql and
// NNNNNN_name.down.sql.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// EmbeddedMigrations returns the migrations compiled into the binary, ordered by version.
func EmbeddedMigrations() ([]Migration, error) {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		return nil, err
	}
	return LoadMigrations(sub)
}

// LoadMigrations reads every up/down pair at the root of fsys. A missing down script,
// a malformed file name or a repeated version is an error.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	seen := make(map[int]string)
	var out []Migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		base := strings.TrimSuffix(name, ".up.sql")
		rawVersion, label, ok := strings.Cut(base, "_")
		if !ok || label == "" {
			return nil, fmt.Errorf("migration %s: expected NNNNNN_name.up.sql", name)
		}
		version, err := strconv.Atoi(rawVersion)
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("migration %s: invalid version %q", name, rawVersion)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %d used by %s and %s", version, prev, name)
		}
		seen[version] = name

		up, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		down, err := fs.ReadFile(fsys, path.Clean(base+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("migration %s has no down script: %w", name, err)
		}

		out = append(out, Migration{Version: version, Name: label, Up: string(up), Down: string(down)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
