package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrMalformedLinkage = errors.New("malformed linkage")
	ErrArtifactLoad     = errors.New("artifact load failed")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrStaleBatch       = errors.New("stale load batch")
	ErrNotLoaded        = errors.New("no data loaded")
	ErrInvalidInput     = errors.New("invalid input")
)

// StructuralError is a fatal tree-construction failure. No partial tree
// accompanies it.
type StructuralError struct {
	Stage  string // "linkage", "labels"
	Detail string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error in %s: %s", e.Stage, e.Detail)
}

func (e *StructuralError) Unwrap() error { return ErrMalformedLinkage }

// LoadError marks one artifact as unusable; other artifacts in the same
// batch are unaffected.
type LoadError struct {
	Artifact string // "tree", "scores", "explanations"
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Artifact, e.Err)
}

func (e *LoadError) Unwrap() error { return ErrArtifactLoad }
