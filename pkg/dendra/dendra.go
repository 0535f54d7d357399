// Package dendra coordinates the clustering core: it owns the current
// tree, threshold and aligned matrices, and re-derives cluster and
// ranking views when either the data or the threshold changes. All
// mutable state is owned by a single coordinating goroutine; batches
// produced by concurrent loads are applied atomically and stale ones
// are rejected by sequence number.
package dendra

import (
	"time"

	"github.com/cognicore/dendra/pkg/dendra/explain"
	"github.com/cognicore/dendra/pkg/dendra/internalerr"
	"github.com/cognicore/dendra/pkg/dendra/loader"
	"github.com/cognicore/dendra/pkg/dendra/matrix"
	"github.com/cognicore/dendra/pkg/dendra/rank"
	"github.com/cognicore/dendra/pkg/dendra/store"
	"github.com/cognicore/dendra/pkg/dendra/tree"
)

// Options configures a Session.
type Options struct {
	Extractor        *explain.Extractor
	DefaultThreshold float64
}

// Session is the main analysis facade over one loaded batch.
type Session struct {
	extractor *explain.Extractor
	threshold float64

	batch        *loader.Batch
	clusterCount int
}

// Caption names the entity pair one explanation cell is about.
type Caption struct {
	RowLabel string
	ColLabel string
	Text     string
}

// Rankings is the overlap-ranking view over the aligned score matrix.
type Rankings struct {
	Entities []rank.EntityScore
	Pairs    []rank.Pair
}

// New creates a Session with the given options.
func New(opts Options) *Session {
	ex := opts.Extractor
	if ex == nil {
		ex = explain.New()
	}
	return &Session{extractor: ex, threshold: opts.DefaultThreshold}
}

// Apply installs a load batch as the current state and recomputes the
// cluster assignment at the current threshold. Batches older than the
// applied one are rejected with ErrStaleBatch so a superseded load that
// resolves late cannot overwrite newer data.
func (s *Session) Apply(b *loader.Batch) error {
	if s.batch != nil && b.Seq <= s.batch.Seq {
		return internalerr.ErrStaleBatch
	}
	s.batch = b
	s.recluster()
	return nil
}

// SetThreshold changes the cut threshold and reassigns clusters over
// the existing tree, returning the new cluster count. The tree
// structure is reused; only the assignment is recomputed.
func (s *Session) SetThreshold(t float64) (int, error) {
	s.threshold = t
	if err := s.treeReady(); err != nil {
		return 0, err
	}
	s.recluster()
	return s.clusterCount, nil
}

func (s *Session) recluster() {
	if s.batch == nil || s.batch.Root == nil {
		s.clusterCount = 0
		return
	}
	s.clusterCount = tree.AssignClusters(s.batch.Root, s.threshold)
}

// Threshold returns the current cut threshold.
func (s *Session) Threshold() float64 { return s.threshold }

// Labels returns the canonical label ordering, nil before a successful
// tree load.
func (s *Session) Labels() []string {
	if s.batch == nil {
		return nil
	}
	return s.batch.Labels
}

// Warnings returns the aggregate alignment warnings of the current
// batch.
func (s *Session) Warnings() []string {
	if s.batch == nil {
		return nil
	}
	return s.batch.Warnings
}

// ClusterView returns the tree root and current cluster count. A
// failed tree load blocks this view entirely.
func (s *Session) ClusterView() (*tree.Node, int, error) {
	if err := s.treeReady(); err != nil {
		return nil, 0, err
	}
	return s.batch.Root, s.clusterCount, nil
}

// Scores returns the aligned score matrix, square over Labels.
func (s *Session) Scores() ([][]float64, error) {
	if err := s.treeReady(); err != nil {
		return nil, err
	}
	if s.batch.ScoresErr != nil {
		return nil, s.batch.ScoresErr
	}
	if s.batch.Scores == nil {
		return nil, internalerr.ErrNotLoaded
	}
	return s.batch.Scores, nil
}

// Explanations returns the aligned explanation matrix, square over
// Labels.
func (s *Session) Explanations() ([][]string, error) {
	if err := s.treeReady(); err != nil {
		return nil, err
	}
	if s.batch.ExplanationsErr != nil {
		return nil, s.batch.ExplanationsErr
	}
	if s.batch.Explanations == nil {
		return nil, internalerr.ErrNotLoaded
	}
	return s.batch.Explanations, nil
}

// ExplainCell captions one explanation cell: the cell text plus the
// entity pair it is about, recovered by the extractor with the matrix
// position as the fallback.
func (s *Session) ExplainCell(row, col int) (Caption, error) {
	texts, err := s.Explanations()
	if err != nil {
		return Caption{}, err
	}
	labels := s.batch.Labels
	if row < 0 || row >= len(labels) || col < 0 || col >= len(labels) {
		return Caption{}, internalerr.ErrInvalidInput
	}

	text := texts[row][col]
	r, c := s.extractor.ExtractPair(labels[row], labels[col], text, labels)
	return Caption{RowLabel: r, ColLabel: c, Text: text}, nil
}

// Rankings returns entity means and the k best pairs over the aligned
// score matrix.
func (s *Session) Rankings(k int) (Rankings, error) {
	cells, err := s.Scores()
	if err != nil {
		return Rankings{}, err
	}
	return Rankings{
		Entities: rank.EntityMeans(s.batch.Labels, cells),
		Pairs:    rank.TopPairs(s.batch.Labels, cells, k),
	}, nil
}

// ClusterReport summarizes overlap inside each cluster of the current
// assignment.
func (s *Session) ClusterReport() ([]rank.ClusterScore, error) {
	cells, err := s.Scores()
	if err != nil {
		return nil, err
	}
	return rank.ClusterMeans(s.batch.Root, s.clusterCount, s.batch.Labels, cells), nil
}

// Snapshot captures the current batch for persistence.
func (s *Session) Snapshot() (store.Snapshot, error) {
	if err := s.treeReady(); err != nil {
		return store.Snapshot{}, err
	}
	return store.Snapshot{
		ID:           s.batch.ID,
		CreatedAt:    time.Now().UTC(),
		Threshold:    s.threshold,
		Labels:       s.batch.Labels,
		Contents:     s.batch.Contents,
		Steps:        s.batch.Steps,
		Scores:       s.batch.RawScores,
		Explanations: s.batch.RawTexts,
		Warnings:     s.batch.Warnings,
	}, nil
}

func (s *Session) treeReady() error {
	if s.batch == nil {
		return internalerr.ErrNotLoaded
	}
	if s.batch.TreeErr != nil {
		return s.batch.TreeErr
	}
	return nil
}

// FromSnapshot rebuilds a session from a stored snapshot, realigning
// the raw matrices to the snapshot's canonical labels. The snapshot's
// threshold is used unless opts overrides it.
func FromSnapshot(snap store.Snapshot, opts Options) (*Session, error) {
	root, err := tree.Build(snap.Steps, snap.Labels, snap.Contents)
	if err != nil {
		return nil, err
	}

	if opts.DefaultThreshold == 0 {
		opts.DefaultThreshold = snap.Threshold
	}
	s := New(opts)

	b := &loader.Batch{
		ID:        snap.ID,
		Seq:       1,
		Labels:    snap.Labels,
		Contents:  snap.Contents,
		Root:      root,
		Steps:     snap.Steps,
		RawScores: snap.Scores,
		RawTexts:  snap.Explanations,
	}
	if snap.Scores.Labels != nil {
		var missing []string
		b.Scores, missing = matrix.AlignScores(snap.Scores, snap.Labels)
		if len(missing) > 0 {
			b.Warnings = append(b.Warnings, loader.DegradationWarning("scores", missing, len(snap.Labels)))
		}
	}
	if snap.Explanations.Labels != nil {
		var missing []string
		b.Explanations, missing = matrix.AlignTexts(snap.Explanations, snap.Labels)
		if len(missing) > 0 {
			b.Warnings = append(b.Warnings, loader.DegradationWarning("explanations", missing, len(snap.Labels)))
		}
	}

	if err := s.Apply(b); err != nil {
		return nil, err
	}
	return s, nil
}
