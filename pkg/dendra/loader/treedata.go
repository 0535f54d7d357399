package loader

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/cognicore/dendra/pkg/dendra/internalerr"
	"github.com/cognicore/dendra/pkg/dendra/tree"
)

// treeArtifact is the wire shape of the tree/linkage artifact.
type treeArtifact struct {
	Linkage  [][]float64 `json:"linkage"`
	Labels   []string    `json:"labels"`
	Contents []string    `json:"contents"`
}

// TreeData is the validated tree artifact: the built tree plus the raw
// pieces it was built from, kept for snapshotting.
type TreeData struct {
	Root     *tree.Node
	Labels   []string
	Contents []string
	Steps    []tree.Step
}

// ParseTreeData validates the tree artifact's JSON shape and builds the
// merge tree. Shape problems surface as a LoadError; linkage semantics
// problems surface as a StructuralError from the tree builder.
func ParseTreeData(data []byte) (*TreeData, error) {
	var art treeArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, &internalerr.LoadError{Artifact: "tree", Err: err}
	}
	if art.Labels == nil {
		return nil, &internalerr.LoadError{Artifact: "tree", Err: fmt.Errorf("missing labels")}
	}
	if art.Linkage == nil && len(art.Labels) > 1 {
		return nil, &internalerr.LoadError{Artifact: "tree", Err: fmt.Errorf("missing linkage")}
	}

	steps := make([]tree.Step, len(art.Linkage))
	for i, row := range art.Linkage {
		if len(row) != 4 {
			return nil, &internalerr.LoadError{
				Artifact: "tree",
				Err:      fmt.Errorf("linkage row %d has %d values, want 4", i, len(row)),
			}
		}
		left, lok := wholeNumber(row[0])
		right, rok := wholeNumber(row[1])
		count, cok := wholeNumber(row[3])
		if !lok || !rok || !cok {
			return nil, &internalerr.LoadError{
				Artifact: "tree",
				Err:      fmt.Errorf("linkage row %d has non-integer ids or count", i),
			}
		}
		if row[2] < 0 {
			return nil, &internalerr.LoadError{
				Artifact: "tree",
				Err:      fmt.Errorf("linkage row %d has negative distance %v", i, row[2]),
			}
		}
		steps[i] = tree.Step{Left: left, Right: right, Distance: row[2], Count: count}
	}

	root, err := tree.Build(steps, art.Labels, art.Contents)
	if err != nil {
		return nil, err
	}
	return &TreeData{Root: root, Labels: art.Labels, Contents: art.Contents, Steps: steps}, nil
}

func wholeNumber(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}
