// Package merge concatenates cleaned per-team datasets and persists the
// combined training CSV.
package merge

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/baxromumarov/fbref-downloader/internal/clean"
)

// Header is the column order of the combined artifact.
var Header = []string{
	"Date", "Comp", "Venue", "Result", "GF", "GA", "xG", "xGA", "Poss",
	"Opponent", "Team", "Season", "GoalDiff", "xGDiff", "Outcome",
}

const dateLayout = "2006-01-02"

// Merge concatenates the datasets in team processing order. Teams that
// produced zero usable rows are skipped.
func Merge(datasets [][]clean.MatchRecord) []clean.MatchRecord {
	total := 0
	for _, d := range datasets {
		total += len(d)
	}
	combined := make([]clean.MatchRecord, 0, total)
	for _, d := range datasets {
		combined = append(combined, d...)
	}
	return combined
}

// WriteCSV persists records at path with a header row and returns the
// number of rows written.
func WriteCSV(path string, records []clean.MatchRecord) (int, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create output file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		return 0, fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(row(rec)); err != nil {
			f.Close()
			return 0, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return 0, fmt.Errorf("flush output: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ReadCSV loads a combined artifact back into records, e.g. for loading
// into Postgres. Rows with an unparseable date are rejected since the
// artifact is supposed to contain only cleaned data.
func ReadCSV(path string) ([]clean.MatchRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	if !slices.Equal(rows[0], Header) {
		return nil, fmt.Errorf("%s: unexpected header %v", path, rows[0])
	}

	records := make([]clean.MatchRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		date, err := time.Parse(dateLayout, row[0])
		if err != nil {
			return nil, fmt.Errorf("%s: bad date %q: %w", path, row[0], err)
		}
		records = append(records, clean.MatchRecord{
			Date:     date,
			Comp:     row[1],
			Venue:    row[2],
			Result:   row[3],
			GF:       parseFloat(row[4]),
			GA:       parseFloat(row[5]),
			XG:       parseFloat(row[6]),
			XGA:      parseFloat(row[7]),
			Poss:     parseFloat(row[8]),
			Opponent: row[9],
			Team:     row[10],
			Season:   row[11],
			GoalDiff: parseFloat(row[12]),
			XGDiff:   parseFloat(row[13]),
			Outcome:  row[14],
		})
	}
	return records, nil
}

func row(rec clean.MatchRecord) []string {
	return []string{
		rec.Date.Format(dateLayout),
		rec.Comp,
		rec.Venue,
		rec.Result,
		formatFloat(rec.GF),
		formatFloat(rec.GA),
		formatFloat(rec.XG),
		formatFloat(rec.XGA),
		formatFloat(rec.Poss),
		rec.Opponent,
		rec.Team,
		rec.Season,
		formatFloat(rec.GoalDiff),
		formatFloat(rec.XGDiff),
		rec.Outcome,
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
