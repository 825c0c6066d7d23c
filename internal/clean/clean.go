// Package clean projects raw match-log rows onto the training schema and
// derives outcome and differential fields.
package clean

import (
	"strconv"
	"strings"
	"time"

	"github.com/baxromumarov/fbref-downloader/internal/table"
)

// Outcome labels derived from the final score.
const (
	OutcomeWin  = "Win"
	OutcomeDraw = "Draw"
	OutcomeLoss = "Loss"
)

// MatchRecord is one played fixture in the normalized schema. Numeric
// fields are nil when the source cell could not be coerced.
type MatchRecord struct {
	Date     time.Time
	Comp     string
	Venue    string
	Result   string
	GF       *float64
	GA       *float64
	XG       *float64
	XGA      *float64
	Poss     *float64
	Opponent string
	Team     string
	Season   string
	GoalDiff *float64
	XGDiff   *float64
	Outcome  string
}

// dateLayouts covers the formats FBRef has rendered match dates in.
var dateLayouts = []string{
	"2006-01-02",
	"Jan 2, 2006",
	"2 January 2006",
}

// Clean projects raw rows onto the fixed column set, coerces the numeric
// columns, derives GoalDiff/XGDiff/Outcome, and drops rows whose date does
// not parse. Dropping on a bad date is the only row-level filter.
func Clean(raw *table.RawTable) []MatchRecord {
	idx := raw.ColumnIndex()
	cell := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]MatchRecord, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		date, ok := parseDate(cell(row, "Date"))
		if !ok {
			continue
		}

		rec := MatchRecord{
			Date:     date,
			Comp:     cell(row, "Comp"),
			Venue:    cell(row, "Venue"),
			Result:   cell(row, "Result"),
			GF:       parseFloat(cell(row, "GF")),
			GA:       parseFloat(cell(row, "GA")),
			XG:       parseFloat(cell(row, "xG")),
			XGA:      parseFloat(cell(row, "xGA")),
			Poss:     parseFloat(cell(row, "Poss")),
			Opponent: cell(row, "Opponent"),
			Team:     cell(row, "Team"),
			Season:   cell(row, "Season"),
		}
		rec.GoalDiff = diff(rec.GF, rec.GA)
		rec.XGDiff = diff(rec.XG, rec.XGA)
		rec.Outcome = Outcome(rec.GF, rec.GA)
		records = append(records, rec)
	}
	return records
}

// Outcome derives the result label from goals for and against. It is a
// pure function of the two values; when either is missing there is no
// meaningful label and the empty string is returned.
func Outcome(gf, ga *float64) string {
	if gf == nil || ga == nil {
		return ""
	}
	switch {
	case *gf > *ga:
		return OutcomeWin
	case *gf == *ga:
		return OutcomeDraw
	default:
		return OutcomeLoss
	}
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
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

func diff(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	d := *a - *b
	return &d
}
