// Package loader fetches the three source artifacts, runs the
// synchronous core over them and assembles the result into a Batch the
// session can apply atomically. The tree artifact is fatal to the whole
// cluster view when broken; each matrix artifact only blocks its own
// views.
package loader

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/dendra/internal/fetch"
	"github.com/cognicore/dendra/pkg/dendra/config"
	"github.com/cognicore/dendra/pkg/dendra/internalerr"
	"github.com/cognicore/dendra/pkg/dendra/matrix"
	"github.com/cognicore/dendra/pkg/dendra/tabular"
	"github.com/cognicore/dendra/pkg/dendra/tree"
)

// Sources names the artifacts for one load. Scores and Explanations
// may be empty; the tree artifact is required.
type Sources struct {
	Tree         config.Artifact
	Scores       config.Artifact
	Explanations config.Artifact
}

// Batch is the atomic result of one load. Seq increases per load so a
// session can reject results of a superseded request that resolve late.
type Batch struct {
	ID  string
	Seq uint64

	Labels   []string
	Contents []string
	Root     *tree.Node
	Steps    []tree.Step
	TreeErr  error

	RawScores matrix.Scores
	Scores    [][]float64
	ScoresErr error

	RawTexts        matrix.Texts
	Explanations    [][]string
	ExplanationsErr error

	Warnings []string
}

// Loader fetches artifacts and assembles batches. It is intended to be
// owned by a single coordinating goroutine, like the session it feeds.
type Loader struct {
	entropy *ulid.MonotonicEntropy
	seq     atomic.Uint64
}

// New creates a Loader.
func New() *Loader {
	return &Loader{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Load fetches all configured artifacts concurrently and assembles a
// batch. The returned batch always exists; per-artifact failures are
// recorded on it rather than aborting the others.
func (l *Loader) Load(ctx context.Context, src Sources) *Batch {
	b := &Batch{
		ID:  ulid.MustNew(ulid.Now(), l.entropy).String(),
		Seq: l.seq.Add(1),
	}

	var (
		treeData  []byte
		treeErr   error
		scoreRows [][]string
		scoreErr  error
		textRows  [][]string
		textErr   error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		treeData, treeErr = fetch.Bytes(gctx, src.Tree.Source)
		return nil
	})
	if src.Scores.Source != "" {
		g.Go(func() error {
			scoreRows, scoreErr = fetchRows(gctx, src.Scores)
			return nil
		})
	}
	if src.Explanations.Source != "" {
		g.Go(func() error {
			textRows, textErr = fetchRows(gctx, src.Explanations)
			return nil
		})
	}
	g.Wait()

	if treeErr != nil {
		b.TreeErr = &internalerr.LoadError{Artifact: "tree", Err: treeErr}
	} else if td, err := ParseTreeData(treeData); err != nil {
		b.TreeErr = err
	} else {
		b.Root = td.Root
		b.Labels = td.Labels
		b.Contents = td.Contents
		b.Steps = td.Steps
	}

	if scoreErr != nil {
		b.ScoresErr = &internalerr.LoadError{Artifact: "scores", Err: scoreErr}
	} else if scoreRows != nil {
		b.RawScores = matrix.ParseScores(scoreRows)
	}
	if textErr != nil {
		b.ExplanationsErr = &internalerr.LoadError{Artifact: "explanations", Err: textErr}
	} else if textRows != nil {
		b.RawTexts = matrix.ParseTexts(textRows)
	}

	// Alignment needs the canonical labels, so a broken tree leaves
	// the matrix views unaligned; the raw matrices still ride along
	// for snapshotting.
	if b.TreeErr == nil {
		b.alignMatrices()
	}
	return b
}

func (b *Batch) alignMatrices() {
	if b.ScoresErr == nil && b.RawScores.Labels != nil {
		var missing []string
		b.Scores, missing = matrix.AlignScores(b.RawScores, b.Labels)
		if len(missing) > 0 {
			b.Warnings = append(b.Warnings, DegradationWarning("scores", missing, len(b.Labels)))
		}
	}
	if b.ExplanationsErr == nil && b.RawTexts.Labels != nil {
		var missing []string
		b.Explanations, missing = matrix.AlignTexts(b.RawTexts, b.Labels)
		if len(missing) > 0 {
			b.Warnings = append(b.Warnings, DegradationWarning("explanations", missing, len(b.Labels)))
		}
	}
}

// DegradationWarning formats the one-time aggregate warning for target
// labels a matrix has no data for.
func DegradationWarning(artifact string, missing []string, total int) string {
	return fmt.Sprintf("%s matrix has no data for %d of %d entities: %s",
		artifact, len(missing), total, strings.Join(missing, ", "))
}

func fetchRows(ctx context.Context, art config.Artifact) ([][]string, error) {
	data, err := fetch.Bytes(ctx, art.Source)
	if err != nil {
		return nil, err
	}
	if art.Format == config.FormatHTML {
		return tabular.ReadHTMLTable(bytes.NewReader(data))
	}
	return tabular.ReadCSV(bytes.NewReader(data))
}
