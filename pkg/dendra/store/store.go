// Package store persists load batches as reopenable snapshots so a
// stored analysis can be re-rendered at a new threshold without
// refetching the source artifacts.
package store

import (
	"context"
	"time"

	"github.com/cognicore/dendra/pkg/dendra/matrix"
	"github.com/cognicore/dendra/pkg/dendra/tree"
)

// Snapshot is one persisted load batch. Matrices are stored in their
// raw, source-labeled form; alignment is recomputed on reopen.
type Snapshot struct {
	ID        string
	CreatedAt time.Time
	Threshold float64

	Labels   []string
	Contents []string
	Steps    []tree.Step

	Scores       matrix.Scores
	Explanations matrix.Texts
	Warnings     []string
}

// Info is the listing view of a snapshot.
type Info struct {
	ID        string
	CreatedAt time.Time
	Threshold float64
	Entities  int
}

// Store persists and retrieves snapshots.
type Store interface {
	Close() error

	SaveSnapshot(ctx context.Context, s Snapshot) error
	GetSnapshot(ctx context.Context, id string) (Snapshot, error)
	LatestSnapshot(ctx context.Context) (Snapshot, bool, error)
	ListSnapshots(ctx context.Context) ([]Info, error)
	DeleteSnapshot(ctx context.Context, id string) error
}
