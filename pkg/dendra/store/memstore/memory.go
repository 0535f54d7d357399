// Package memstore is an in-memory store.Store for tests.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/dendra/pkg/dendra/internalerr"
	"github.com/cognicore/dendra/pkg/dendra/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]store.Snapshot
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{snapshots: make(map[string]store.Snapshot)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveSnapshot inserts or replaces a snapshot, keyed by ID.
func (s *Store) SaveSnapshot(ctx context.Context, snap store.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.ID] = snap
	return nil
}

// GetSnapshot implements store.Store.
func (s *Store) GetSnapshot(ctx context.Context, id string) (store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[id]
	if !ok {
		return store.Snapshot{}, internalerr.ErrSnapshotNotFound
	}
	return snap, nil
}

// LatestSnapshot returns the most recently created snapshot, if any.
func (s *Store) LatestSnapshot(ctx context.Context) (store.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest store.Snapshot
	found := false
	for _, snap := range s.snapshots {
		if !found || snap.CreatedAt.After(latest.CreatedAt) ||
			(snap.CreatedAt.Equal(latest.CreatedAt) && snap.ID > latest.ID) {
			latest = snap
			found = true
		}
	}
	return latest, found, nil
}

// ListSnapshots returns snapshot infos, newest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]store.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]store.Info, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		infos = append(infos, store.Info{
			ID:        snap.ID,
			CreatedAt: snap.CreatedAt,
			Threshold: snap.Threshold,
			Entities:  len(snap.Labels),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.After(infos[j].CreatedAt)
		}
		return infos[i].ID > infos[j].ID
	})
	return infos, nil
}

// DeleteSnapshot implements store.Store.
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[id]; !ok {
		return internalerr.ErrSnapshotNotFound
	}
	delete(s.snapshots, id)
	return nil
}
