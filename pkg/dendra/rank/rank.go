// Package rank orders entities and clusters by overlap strength. Only
// unweighted means are computed; scores come precomputed in the aligned
// matrix and missing cells are simply left out of the mean.
package rank

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/cognicore/dendra/pkg/dendra/labelnorm"
	"github.com/cognicore/dendra/pkg/dendra/tree"
)

// EntityScore is one entity's mean overlap with every other entity.
type EntityScore struct {
	Label string
	Mean  float64 // NaN when no off-diagonal cell is known
	Known int     // off-diagonal cells that carried a value
}

// Pair is one scored off-diagonal cell.
type Pair struct {
	Row   string
	Col   string
	Score float64
}

// ClusterScore summarizes overlap inside one cluster.
type ClusterScore struct {
	Cluster int
	Members []string
	Mean    float64 // NaN when the cluster has no known internal pair
	Pairs   int
}

// EntityMeans computes each entity's unweighted mean over the known
// off-diagonal cells of its row, sorted descending; entities with no
// known cells sort last. cells must be square over labels, as produced
// by matrix alignment.
func EntityMeans(labels []string, cells [][]float64) []EntityScore {
	n := len(labels)
	out := make([]EntityScore, 0, n)
	if n == 0 {
		return out
	}

	m := mat.NewDense(n, n, nil)
	for i := range cells {
		for j := range cells[i] {
			m.Set(i, j, cells[i][j])
		}
	}

	for i, label := range labels {
		row := m.RawRowView(i)
		valid := make([]float64, 0, n-1)
		for j, v := range row {
			if j == i || math.IsNaN(v) {
				continue
			}
			valid = append(valid, v)
		}
		score := EntityScore{Label: label, Mean: math.NaN(), Known: len(valid)}
		if len(valid) > 0 {
			score.Mean = stat.Mean(valid, nil)
		}
		out = append(out, score)
	}

	sort.SliceStable(out, func(a, b int) bool {
		ma, mb := out[a].Mean, out[b].Mean
		if math.IsNaN(mb) {
			return !math.IsNaN(ma)
		}
		if math.IsNaN(ma) {
			return false
		}
		return ma > mb
	})
	return out
}

// TopPairs returns the k highest-scoring entity pairs (i<j, diagonal
// and missing cells excluded), descending. k <= 0 means all.
func TopPairs(labels []string, cells [][]float64, k int) []Pair {
	var pairs []Pair
	for i := range labels {
		if i >= len(cells) {
			break
		}
		for j := i + 1; j < len(labels) && j < len(cells[i]); j++ {
			if math.IsNaN(cells[i][j]) {
				continue
			}
			pairs = append(pairs, Pair{Row: labels[i], Col: labels[j], Score: cells[i][j]})
		}
	}

	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].Score > pairs[b].Score })
	if k > 0 && len(pairs) > k {
		pairs = pairs[:k]
	}
	return pairs
}

// ClusterMeans computes, for every cluster of the current assignment,
// the unweighted mean over known internal pairs (i<j within the
// cluster's member block of the aligned matrix). clusterCount is the
// value returned by the assignment pass.
func ClusterMeans(root *tree.Node, clusterCount int, labels []string, cells [][]float64) []ClusterScore {
	idx := labelnorm.KeyMap(labels)
	members := tree.ClusterMembers(root, clusterCount)

	out := make([]ClusterScore, 0, len(members))
	for c, names := range members {
		score := ClusterScore{Cluster: c, Members: names, Mean: math.NaN()}

		var valid []float64
		for a := 0; a < len(names); a++ {
			ia, ok := idx[labelnorm.Key(names[a])]
			if !ok || ia >= len(cells) {
				continue
			}
			for b := a + 1; b < len(names); b++ {
				ib, ok := idx[labelnorm.Key(names[b])]
				if !ok || ib >= len(cells[ia]) {
					continue
				}
				if v := cells[ia][ib]; !math.IsNaN(v) {
					valid = append(valid, v)
				}
			}
		}
		score.Pairs = len(valid)
		if len(valid) > 0 {
			score.Mean = stat.Mean(valid, nil)
		}
		out = append(out, score)
	}
	return out
}
