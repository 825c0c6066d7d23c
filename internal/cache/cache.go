// Package cache persists per-team match-log tables as CSV artifacts.
//
// The cache key is the team name alone, not the requested season set: a hit
// is returned verbatim even when the current run asks for different seasons.
// Artifacts are never expired or re-validated; delete the file to refetch.
package cache

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/baxromumarov/fbref-downloader/internal/table"
)

type Cache struct {
	dir string
}

func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Key normalizes a team name into a filesystem-safe cache key.
func Key(team string) string {
	return strings.ReplaceAll(strings.ToLower(team), " ", "-")
}

// Path returns the artifact location for a team.
func (c *Cache) Path(team string) string {
	return filepath.Join(c.dir, Key(team)+"_matchlogs.csv")
}

// Load reads the cached table for a team. Any read or parse problem is
// reported as absence so a broken artifact degrades to "no cached data".
func (c *Cache) Load(team string) (*table.RawTable, bool) {
	f, err := os.Open(c.Path(team))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil || len(records) == 0 {
		return nil, false
	}

	return &table.RawTable{Columns: records[0], Rows: records[1:]}, true
}

// Store writes the table for a team, overwriting any prior artifact.
func (c *Cache) Store(team string, t *table.RawTable) error {
	f, err := os.Create(c.Path(team))
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		f.Close()
		return fmt.Errorf("write cache header: %w", err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write cache row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush cache file: %w", err)
	}
	return f.Close()
}
