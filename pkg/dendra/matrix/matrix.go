// Package matrix parses labeled square matrices out of row grids and
// reindexes them onto the tree's canonical label ordering. Scores are
// numeric with NaN as the missing sentinel; explanation matrices are
// textual with "" as the missing sentinel. Alignment is total: it never
// fails, it only degrades to missing cells.
package matrix

import (
	"math"
	"strconv"
	"strings"

	"github.com/cognicore/dendra/pkg/dendra/labelnorm"
	"github.com/cognicore/dendra/pkg/dendra/tabular"
)

// Scores is a labeled numeric matrix. Cells[i][j] is the overlap score
// between Labels[i] and Labels[j]; NaN means missing.
type Scores struct {
	Labels []string
	Cells  [][]float64
}

// Texts is a labeled textual matrix; "" means missing.
type Texts struct {
	Labels []string
	Cells  [][]string
}

// ParseScores reads a numeric matrix from a row grid. The layout is
// detected first; data rows are read positionally when they repeat the
// header order, and by label lookup otherwise, which tolerates
// reordered or sparse rows.
func ParseScores(rows [][]string) Scores {
	lay := tabular.DetectLayout(rows)
	cells := parseCells(rows, lay, func(raw string, ok bool) float64 {
		if !ok {
			return math.NaN()
		}
		return parseNumber(raw)
	})
	return Scores{Labels: lay.Labels, Cells: cells}
}

// ParseTexts reads a textual matrix from a row grid.
func ParseTexts(rows [][]string) Texts {
	lay := tabular.DetectLayout(rows)
	cells := parseCells(rows, lay, func(raw string, ok bool) string {
		if !ok {
			return ""
		}
		return strings.TrimSpace(raw)
	})
	return Texts{Labels: lay.Labels, Cells: cells}
}

// parseCells reads one matrix cell per (label, label) pair. conv maps a
// raw cell to its typed value; ok is false when the grid has no cell at
// that position.
func parseCells[T any](rows [][]string, lay tabular.Layout, conv func(raw string, ok bool) T) [][]T {
	n := len(lay.Labels)
	out := make([][]T, n)
	if n == 0 {
		return out
	}
	data := rows[1:]

	ordered := alignedByOrder(data, lay)
	byKey := map[string][]string{}
	if !ordered {
		for _, row := range data {
			if lay.RowLabelColumn >= len(row) {
				continue
			}
			k := labelnorm.Key(row[lay.RowLabelColumn])
			if k == "" {
				continue
			}
			if _, dup := byKey[k]; !dup {
				byKey[k] = row
			}
		}
	}

	for i, label := range lay.Labels {
		var row []string
		if ordered {
			row = data[i]
		} else {
			row = byKey[labelnorm.Key(label)]
		}

		out[i] = make([]T, n)
		for j := range lay.Labels {
			col := lay.RowLabelColumn + 1 + j
			if row == nil || col >= len(row) {
				out[i][j] = conv("", false)
				continue
			}
			out[i][j] = conv(row[col], true)
		}
	}
	return out
}

// alignedByOrder reports whether the data rows repeat the header label
// order position for position, allowing the cheap positional read.
func alignedByOrder(data [][]string, lay tabular.Layout) bool {
	if len(data) < len(lay.Labels) {
		return false
	}
	for i, label := range lay.Labels {
		row := data[i]
		if lay.RowLabelColumn >= len(row) {
			return false
		}
		if strings.TrimSpace(row[lay.RowLabelColumn]) != label {
			return false
		}
	}
	return true
}

// parseNumber parses one numeric cell. Empty cells and unparseable or
// non-finite values degrade to NaN. A comma decimal separator is
// accepted for locales that author "0,75".
func parseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN()
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
