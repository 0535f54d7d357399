package matrix

import (
	"math"

	"github.com/cognicore/dendra/pkg/dendra/labelnorm"
)

// AlignScores reindexes src onto target label order. The result is
// always len(target) x len(target); every cell whose row or column
// label has no counterpart in src is NaN. The second return lists the
// target labels with no counterpart at all, for a one-time aggregate
// warning; it is nil when coverage is total. Source labels absent from
// target are dropped silently.
func AlignScores(src Scores, target []string) ([][]float64, []string) {
	idx, missing := resolve(src.Labels, target)

	out := make([][]float64, len(target))
	for r := range target {
		out[r] = make([]float64, len(target))
		for c := range target {
			out[r][c] = math.NaN()
			ri, ci := idx[r], idx[c]
			if ri < 0 || ci < 0 || ri >= len(src.Cells) {
				continue
			}
			row := src.Cells[ri]
			if ci < len(row) {
				out[r][c] = row[ci]
			}
		}
	}
	return out, missing
}

// AlignTexts is AlignScores for textual matrices, with "" as the
// missing sentinel.
func AlignTexts(src Texts, target []string) ([][]string, []string) {
	idx, missing := resolve(src.Labels, target)

	out := make([][]string, len(target))
	for r := range target {
		out[r] = make([]string, len(target))
		for c := range target {
			ri, ci := idx[r], idx[c]
			if ri < 0 || ci < 0 || ri >= len(src.Cells) {
				continue
			}
			row := src.Cells[ri]
			if ci < len(row) {
				out[r][c] = row[ci]
			}
		}
	}
	return out, missing
}

// resolve maps each target label to its source index, -1 when absent.
// Lookup is by normalized key; duplicate source labels resolve to the
// first occurrence.
func resolve(source, target []string) ([]int, []string) {
	m := labelnorm.KeyMap(source)

	idx := make([]int, len(target))
	var missing []string
	for i, label := range target {
		if j, ok := m[labelnorm.Key(label)]; ok {
			idx[i] = j
		} else {
			idx[i] = -1
			missing = append(missing, label)
		}
	}
	return idx, missing
}
