// Package table turns an HTML response body into a column-aligned raw
// table, flattening hierarchical headers into single labels.
package table

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrNoTable is returned when the body contains no tabular structure at all.
var ErrNoTable = errors.New("no table found in document")

// RawTable is an ordered, column-aligned grid of string cells. It is the
// in-memory form of one extracted season table and of a cached per-team
// artifact.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// Extract parses every <table> embedded in body and returns the first one
// as canonical. Multi-row headers are flattened per column via
// FlattenHeader. Returns ErrNoTable when the body has no tables.
func Extract(body []byte) (*RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, ErrNoTable
	}
	sel := tables.First()

	headRows := sel.Find("thead tr")
	bodyRows := sel.Find("tbody tr")
	if headRows.Length() == 0 {
		// Without a <thead> the first row serves as the header. The
		// parser wraps it in an implicit <tbody>, so body rows must
		// skip it or the labels would come back as data.
		all := sel.Find("tr")
		if all.Length() == 0 {
			return nil, errors.New("table has no header row")
		}
		headRows = all.First()
		bodyRows = all.Slice(1, all.Length())
	}

	levels := headerLevels(headRows)
	if len(levels) == 0 {
		return nil, errors.New("table has no header row")
	}

	width := 0
	for _, row := range levels {
		if len(row) > width {
			width = len(row)
		}
	}

	columns := make([]string, width)
	for col := 0; col < width; col++ {
		parts := make([]string, 0, len(levels))
		for _, row := range levels {
			if col < len(row) {
				parts = append(parts, row[col])
			}
		}
		columns[col] = FlattenHeader(parts)
	}

	var rows [][]string
	bodyRows.Each(func(_ int, tr *goquery.Selection) {
		cells := rowCells(tr)
		if len(cells) == 0 {
			return
		}
		rows = append(rows, padRow(cells, width))
	})

	return &RawTable{Columns: columns, Rows: rows}, nil
}

// FlattenHeader joins the header levels of one column into a single label.
// Empty levels are skipped and incidental whitespace is trimmed.
func FlattenHeader(levels []string) string {
	parts := make([]string, 0, len(levels))
	for _, lv := range levels {
		lv = strings.TrimSpace(lv)
		if lv == "" {
			continue
		}
		parts = append(parts, lv)
	}
	return strings.Join(parts, "_")
}

// Tag appends Season and Team columns with constant values to every row.
func Tag(t *RawTable, team, season string) {
	t.Columns = append(t.Columns, "Season", "Team")
	for i, row := range t.Rows {
		t.Rows[i] = append(row, season, team)
	}
}

// Concat merges per-season tables into one, taking the union of their
// columns in first-seen order. Cells absent from a source table are empty.
func Concat(tables []*RawTable) *RawTable {
	out := &RawTable{}
	index := map[string]int{}
	for _, t := range tables {
		for _, col := range t.Columns {
			if _, ok := index[col]; !ok {
				index[col] = len(out.Columns)
				out.Columns = append(out.Columns, col)
			}
		}
	}
	for _, t := range tables {
		for _, row := range t.Rows {
			merged := make([]string, len(out.Columns))
			for i, col := range t.Columns {
				if i < len(row) {
					merged[index[col]] = row[i]
				}
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out
}

// ColumnIndex maps column label to position for cell lookups.
func (t *RawTable) ColumnIndex() map[string]int {
	idx := make(map[string]int, len(t.Columns))
	for i, col := range t.Columns {
		idx[col] = i
	}
	return idx
}

// headerLevels collects the header grid: one slice of labels per header
// row, with colspan cells expanded so columns stay aligned.
func headerLevels(headRows *goquery.Selection) [][]string {
	var levels [][]string
	headRows.Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			text := cellText(cell)
			for i := 0; i < colspan(cell); i++ {
				row = append(row, text)
			}
		})
		if len(row) > 0 {
			levels = append(levels, row)
		}
	})
	return levels
}

func rowCells(tr *goquery.Selection) []string {
	var cells []string
	tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, cellText(cell))
	})
	return cells
}

// cellText collects the text content of a cell's node tree, so labels
// wrapped in links or spans still come out whole.
func cellText(cell *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range cell.Nodes {
		sb.WriteString(nodeText(n))
	}
	return strings.TrimSpace(sb.String())
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return sb.String()
}

func colspan(cell *goquery.Selection) int {
	attr, ok := cell.Attr("colspan")
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(attr))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func padRow(cells []string, width int) []string {
	if len(cells) == width {
		return cells
	}
	if len(cells) > width {
		return cells[:width]
	}
	padded := make([]string, width)
	copy(padded, cells)
	return padded
}
