package dendra

import (
	"errors"
	"math"
	"testing"

	"github.com/cognicore/dendra/pkg/dendra/internalerr"
	"github.com/cognicore/dendra/pkg/dendra/loader"
	"github.com/cognicore/dendra/pkg/dendra/matrix"
	"github.com/cognicore/dendra/pkg/dendra/store"
	"github.com/cognicore/dendra/pkg/dendra/tree"
)

func testBatch(t *testing.T, seq uint64) *loader.Batch {
	t.Helper()
	steps := []tree.Step{
		{Left: 0, Right: 1, Distance: 0.2, Count: 2},
		{Left: 2, Right: 3, Distance: 0.3, Count: 2},
		{Left: 4, Right: 5, Distance: 0.9, Count: 4},
	}
	labels := []string{"A", "B", "C", "D"}
	root, err := tree.Build(steps, labels, nil)
	if err != nil {
		t.Fatal(err)
	}

	scores := [][]float64{
		{1, 0.9, 0.1, 0.1},
		{0.9, 1, 0.1, 0.1},
		{0.1, 0.1, 1, 0.7},
		{0.1, 0.1, 0.7, 1},
	}
	texts := make([][]string, 4)
	for i := range texts {
		texts[i] = make([]string, 4)
	}
	texts[0][1] = "UNIDAD 1: A | UNIDAD 2: B"
	texts[2][3] = "joint programs between C and D"

	return &loader.Batch{
		ID:           "test",
		Seq:          seq,
		Labels:       labels,
		Root:         root,
		Steps:        steps,
		Scores:       scores,
		Explanations: texts,
	}
}

func TestSessionThresholdRecompute(t *testing.T) {
	s := New(Options{DefaultThreshold: 0.5})
	if err := s.Apply(testBatch(t, 1)); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	_, count, err := s.ClusterView()
	if err != nil {
		t.Fatalf("ClusterView failed: %v", err)
	}
	if count != 2 {
		t.Errorf("t=0.5 should give 2 clusters, got %d", count)
	}

	if count, _ = s.SetThreshold(0); count != 4 {
		t.Errorf("t=0 should give 4 clusters, got %d", count)
	}
	if count, _ = s.SetThreshold(1); count != 1 {
		t.Errorf("t=1 should give 1 cluster, got %d", count)
	}
}

func TestSessionRejectsStaleBatch(t *testing.T) {
	s := New(Options{})
	if err := s.Apply(testBatch(t, 2)); err != nil {
		t.Fatal(err)
	}

	if err := s.Apply(testBatch(t, 1)); !errors.Is(err, internalerr.ErrStaleBatch) {
		t.Errorf("older batch must be rejected, got %v", err)
	}
	if err := s.Apply(testBatch(t, 2)); !errors.Is(err, internalerr.ErrStaleBatch) {
		t.Errorf("same-sequence batch must be rejected, got %v", err)
	}
	if err := s.Apply(testBatch(t, 3)); err != nil {
		t.Errorf("newer batch must be accepted, got %v", err)
	}
}

func TestSessionViewsBeforeLoad(t *testing.T) {
	s := New(Options{})

	if _, _, err := s.ClusterView(); !errors.Is(err, internalerr.ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
	if _, err := s.Scores(); !errors.Is(err, internalerr.ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
}

func TestSessionTreeErrorBlocksAllViews(t *testing.T) {
	s := New(Options{})
	b := &loader.Batch{
		Seq:     1,
		TreeErr: &internalerr.LoadError{Artifact: "tree", Err: errors.New("boom")},
	}
	if err := s.Apply(b); err != nil {
		t.Fatal(err)
	}

	if _, _, err := s.ClusterView(); !errors.Is(err, internalerr.ErrArtifactLoad) {
		t.Errorf("cluster view must surface the tree error, got %v", err)
	}
	if _, err := s.Scores(); !errors.Is(err, internalerr.ErrArtifactLoad) {
		t.Errorf("score view is blocked too, got %v", err)
	}
}

func TestSessionMatrixErrorLeavesTreeUsable(t *testing.T) {
	s := New(Options{DefaultThreshold: 0.5})
	b := testBatch(t, 1)
	b.Scores = nil
	b.ScoresErr = &internalerr.LoadError{Artifact: "scores", Err: errors.New("boom")}
	if err := s.Apply(b); err != nil {
		t.Fatal(err)
	}

	if _, _, err := s.ClusterView(); err != nil {
		t.Errorf("tree view should work: %v", err)
	}
	if _, err := s.Scores(); !errors.Is(err, internalerr.ErrArtifactLoad) {
		t.Errorf("score view should fail, got %v", err)
	}
	if _, err := s.Rankings(3); err == nil {
		t.Error("rankings depend on scores and should fail")
	}
}

func TestSessionExplainCell(t *testing.T) {
	s := New(Options{DefaultThreshold: 0.5})
	if err := s.Apply(testBatch(t, 1)); err != nil {
		t.Fatal(err)
	}

	// structured markers win
	cap1, err := s.ExplainCell(0, 1)
	if err != nil {
		t.Fatalf("ExplainCell failed: %v", err)
	}
	if cap1.RowLabel != "A" || cap1.ColLabel != "B" {
		t.Errorf("marker extraction failed: %+v", cap1)
	}

	// empty cell falls back to the matrix position
	cap2, _ := s.ExplainCell(1, 2)
	if cap2.RowLabel != "B" || cap2.ColLabel != "C" {
		t.Errorf("defaults should win for empty cells: %+v", cap2)
	}
	if cap2.Text != "" {
		t.Errorf("text should be the empty sentinel, got %q", cap2.Text)
	}

	if _, err := s.ExplainCell(9, 0); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("out-of-range cell should error, got %v", err)
	}
}

func TestSessionRankings(t *testing.T) {
	s := New(Options{DefaultThreshold: 0.5})
	if err := s.Apply(testBatch(t, 1)); err != nil {
		t.Fatal(err)
	}

	r, err := s.Rankings(2)
	if err != nil {
		t.Fatalf("Rankings failed: %v", err)
	}
	if len(r.Pairs) != 2 || r.Pairs[0].Score != 0.9 {
		t.Errorf("top pair should be A/B at 0.9: %+v", r.Pairs)
	}
	if len(r.Entities) != 4 {
		t.Errorf("every entity gets a mean, got %d", len(r.Entities))
	}
}

func TestSessionClusterReport(t *testing.T) {
	s := New(Options{DefaultThreshold: 0.5})
	if err := s.Apply(testBatch(t, 1)); err != nil {
		t.Fatal(err)
	}

	report, err := s.ClusterReport()
	if err != nil {
		t.Fatalf("ClusterReport failed: %v", err)
	}
	if len(report) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(report))
	}
	if math.Abs(report[0].Mean-0.9) > 1e-12 {
		t.Errorf("cluster {A,B} mean = %v", report[0].Mean)
	}
}

func TestFromSnapshot(t *testing.T) {
	snap := store.Snapshot{
		ID:        "snap",
		Threshold: 0.5,
		Labels:    []string{"A", "B"},
		Steps:     []tree.Step{{Left: 0, Right: 1, Distance: 0.4, Count: 2}},
		Scores: matrix.Scores{
			Labels: []string{"B", "A"},
			Cells:  [][]float64{{1, 0.6}, {0.6, 1}},
		},
	}

	s, err := FromSnapshot(snap, Options{})
	if err != nil {
		t.Fatalf("FromSnapshot failed: %v", err)
	}
	if s.Threshold() != 0.5 {
		t.Errorf("snapshot threshold should carry over, got %v", s.Threshold())
	}

	_, count, err := s.ClusterView()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("t=0.5 absorbs the only merge, got %d clusters", count)
	}

	cells, err := s.Scores()
	if err != nil {
		t.Fatal(err)
	}
	if cells[0][1] != 0.6 {
		t.Errorf("matrix should be realigned to canonical order, got %v", cells[0][1])
	}
}

func TestFromSnapshotBadLinkage(t *testing.T) {
	snap := store.Snapshot{
		Labels: []string{"A", "B"},
		Steps:  []tree.Step{{Left: 0, Right: 9, Distance: 0.4, Count: 2}},
	}
	if _, err := FromSnapshot(snap, Options{}); !errors.Is(err, internalerr.ErrMalformedLinkage) {
		t.Errorf("expected structural error, got %v", err)
	}
}
