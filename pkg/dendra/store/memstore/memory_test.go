package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cognicore/dendra/pkg/dendra/internalerr"
	"github.com/cognicore/dendra/pkg/dendra/matrix"
	"github.com/cognicore/dendra/pkg/dendra/store"
	"github.com/cognicore/dendra/pkg/dendra/tree"
)

func sampleSnapshot(id string, at time.Time) store.Snapshot {
	return store.Snapshot{
		ID:        id,
		CreatedAt: at,
		Threshold: 0.5,
		Labels:    []string{"A", "B"},
		Steps:     []tree.Step{{Left: 0, Right: 1, Distance: 0.5, Count: 2}},
		Scores: matrix.Scores{
			Labels: []string{"A", "B"},
			Cells:  [][]float64{{1, 0.5}, {0.5, 1}},
		},
	}
}

func TestSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	snap := sampleSnapshot("01A", time.Now())
	if err := s.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	got, err := s.GetSnapshot(ctx, "01A")
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if got.Threshold != 0.5 || len(got.Labels) != 2 {
		t.Errorf("snapshot did not round-trip: %+v", got)
	}

	if err := s.DeleteSnapshot(ctx, "01A"); err != nil {
		t.Fatalf("DeleteSnapshot failed: %v", err)
	}
	if _, err := s.GetSnapshot(ctx, "01A"); !errors.Is(err, internalerr.ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound after delete, got %v", err)
	}
}

func TestLatestAndList(t *testing.T) {
	ctx := context.Background()
	s := New()

	base := time.Now()
	s.SaveSnapshot(ctx, sampleSnapshot("old", base.Add(-time.Hour)))
	s.SaveSnapshot(ctx, sampleSnapshot("new", base))

	latest, ok, err := s.LatestSnapshot(ctx)
	if err != nil || !ok {
		t.Fatalf("LatestSnapshot: ok=%v err=%v", ok, err)
	}
	if latest.ID != "new" {
		t.Errorf("latest = %q, want new", latest.ID)
	}

	infos, err := s.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("ListSnapshots failed: %v", err)
	}
	if len(infos) != 2 || infos[0].ID != "new" {
		t.Errorf("infos = %+v, want newest first", infos)
	}
	if infos[0].Entities != 2 {
		t.Errorf("entity count = %d", infos[0].Entities)
	}
}

func TestLatestEmpty(t *testing.T) {
	_, ok, err := New().LatestSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LatestSnapshot failed: %v", err)
	}
	if ok {
		t.Error("empty store should report no latest snapshot")
	}
}

func TestDeleteMissing(t *testing.T) {
	if err := New().DeleteSnapshot(context.Background(), "nope"); !errors.Is(err, internalerr.ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound, got %v", err)
	}
}
