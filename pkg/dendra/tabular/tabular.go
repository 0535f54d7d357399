// Package tabular turns delimited or HTML-table artifact text into row
// grids and discovers where the labels live in them. Authored matrices
// do not reliably start their labels at column 0; Layout records what
// was actually found so the matrix parser can read around it.
package tabular

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/cognicore/dendra/pkg/dendra/labelnorm"
)

// Layout describes where a row grid keeps its labels.
type Layout struct {
	Labels          []string // trimmed header cells from FirstDataColumn on
	RowLabelColumn  int      // column holding each data row's label
	FirstDataColumn int      // header index of the first label
}

// DetectLayout inspects rows (rows[0] is the header) and locates the
// label columns. Defaults: FirstDataColumn 1 when the first header cell
// is blank, else 0; RowLabelColumn 0. The first non-empty data row
// refines this: its first non-empty cell whose trimmed value equals a
// trimmed header cell fixes RowLabelColumn to that cell's column, and
// when the corner is not blank the matched header's index also becomes
// FirstDataColumn. A blank corner already fixes the label region, so
// there the match may only move the row-label column. A refinement is
// accepted only when every labeled data row resolves into the label
// region it selects; a reordered or sparse grid whose first row happens
// to match its own column deeper in the header keeps the defaults.
// Duplicate labels are tolerated; downstream map lookups resolve to the
// first occurrence.
func DetectLayout(rows [][]string) Layout {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Layout{}
	}
	header := rows[0]

	lay := Layout{RowLabelColumn: 0, FirstDataColumn: 0}
	if strings.TrimSpace(header[0]) == "" {
		lay.FirstDataColumn = 1
	}

	if row := firstNonEmptyRow(rows[1:]); row != nil {
		if col, hdr, ok := matchRowLabel(row, header); ok {
			if lay.FirstDataColumn == 1 {
				if refinementHolds(rows[1:], header, col, 1) {
					lay.RowLabelColumn = col
				}
			} else if refinementHolds(rows[1:], header, col, hdr) {
				lay.RowLabelColumn = col
				lay.FirstDataColumn = hdr
			}
		}
	}

	if lay.FirstDataColumn < len(header) {
		for _, cell := range header[lay.FirstDataColumn:] {
			lay.Labels = append(lay.Labels, strings.TrimSpace(cell))
		}
	}
	return lay
}

func firstNonEmptyRow(rows [][]string) []string {
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return row
			}
		}
	}
	return nil
}

// matchRowLabel finds the leftmost non-empty cell that repeats a header
// cell, returning the cell column and the matched header index.
func matchRowLabel(row, header []string) (col, hdr int, ok bool) {
	for c, cell := range row {
		v := strings.TrimSpace(cell)
		if v == "" {
			continue
		}
		for h, head := range header {
			if strings.TrimSpace(head) == v {
				return c, h, true
			}
		}
	}
	return 0, 0, false
}

// refinementHolds reports whether the candidate refinement explains the
// whole grid: each data row's label cell at col must resolve into the
// headers from hdr on. A candidate that only explains the first row
// misreads a grid whose rows arrive in a different order than the
// header.
func refinementHolds(rows [][]string, header []string, col, hdr int) bool {
	keys := make(map[string]struct{}, len(header)-hdr)
	for _, head := range header[hdr:] {
		keys[labelnorm.Key(head)] = struct{}{}
	}
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		if _, ok := keys[labelnorm.Key(v)]; !ok {
			return false
		}
	}
	return true
}

// ReadCSV tokenizes comma-separated text into a row grid. Rows may be
// ragged; quoting follows the usual CSV rules.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}
