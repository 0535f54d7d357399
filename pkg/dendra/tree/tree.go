// Package tree rebuilds a binary merge tree from an agglomerative
// linkage encoding and assigns cluster ids under a cut threshold.
package tree

import (
	"fmt"

	"github.com/cognicore/dendra/pkg/dendra/internalerr"
)

// Step is one merge event: it combines the nodes currently keyed at
// Left and Right into a new node at the given distance. Step i of a
// sequence over n leaves produces synthetic node id n+i.
type Step struct {
	Left     int
	Right    int
	Distance float64
	Count    int
}

// Node is a dendrogram node. Leaves have no children, Distance 0 and
// Count 1; internal nodes have exactly two children. Parent is a
// non-owning back-reference kept for traversal only.
type Node struct {
	ID       int
	Name     string
	Content  string
	Distance float64
	Count    int
	Children []*Node
	Parent   *Node
	Cluster  int
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Build materializes the merge tree for the given linkage over
// len(labels) leaves and returns its root. contents may be nil or
// parallel to labels. A linkage row referencing an id that does not yet
// exist, or a label/linkage length mismatch, fails with a
// StructuralError and no partial tree.
func Build(steps []Step, labels []string, contents []string) (*Node, error) {
	n := len(labels)
	if n == 0 {
		return nil, &internalerr.StructuralError{Stage: "labels", Detail: "no labels"}
	}
	if len(steps) != n-1 {
		return nil, &internalerr.StructuralError{
			Stage:  "linkage",
			Detail: fmt.Sprintf("%d steps for %d labels, want %d", len(steps), n, n-1),
		}
	}
	if contents != nil && len(contents) != n {
		return nil, &internalerr.StructuralError{
			Stage:  "labels",
			Detail: fmt.Sprintf("contents length %d does not match %d labels", len(contents), n),
		}
	}

	nodes := make([]*Node, n, n+len(steps))
	for i, name := range labels {
		leaf := &Node{ID: i, Name: name, Count: 1}
		if contents != nil {
			leaf.Content = contents[i]
		}
		nodes[i] = leaf
	}

	for i, s := range steps {
		id := n + i
		if s.Left == s.Right {
			return nil, &internalerr.StructuralError{
				Stage:  "linkage",
				Detail: fmt.Sprintf("step %d merges id %d with itself", i, s.Left),
			}
		}
		left, err := resolve(nodes, s.Left, i, id)
		if err != nil {
			return nil, err
		}
		right, err := resolve(nodes, s.Right, i, id)
		if err != nil {
			return nil, err
		}

		parent := &Node{
			ID:       id,
			Distance: s.Distance,
			Count:    s.Count,
			Children: []*Node{left, right},
		}
		left.Parent = parent
		right.Parent = parent
		nodes = append(nodes, parent)
	}

	return nodes[len(nodes)-1], nil
}

func resolve(nodes []*Node, id, step, nextID int) (*Node, error) {
	if id < 0 || id >= nextID {
		return nil, &internalerr.StructuralError{
			Stage:  "linkage",
			Detail: fmt.Sprintf("step %d references id %d, valid range [0,%d)", step, id, nextID),
		}
	}
	child := nodes[id]
	if child.Parent != nil {
		return nil, &internalerr.StructuralError{
			Stage:  "linkage",
			Detail: fmt.Sprintf("step %d reuses id %d, already merged into %d", step, id, child.Parent.ID),
		}
	}
	return child, nil
}

// Walk visits every node reachable from root in pre-order.
func Walk(root *Node, fn func(*Node)) {
	if root == nil {
		return
	}
	fn(root)
	for _, c := range root.Children {
		Walk(c, fn)
	}
}

// Leaves returns the leaves under root in pre-order, which is the
// canonical display order of the dendrogram.
func Leaves(root *Node) []*Node {
	var out []*Node
	Walk(root, func(n *Node) {
		if n.IsLeaf() {
			out = append(out, n)
		}
	})
	return out
}
