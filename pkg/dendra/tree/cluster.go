package tree

// AssignClusters partitions the tree into maximal subtrees whose root
// merge distance is at or under threshold, writing a cluster id into
// every node reachable from root, and returns the number of clusters.
// A node starts a cluster iff it is a leaf or its distance <= threshold
// (inclusive: raising the threshold only absorbs more merges). Ids are
// renumbered from zero on every call following pre-order visitation, so
// they are stable for a fixed tree and threshold but carry no meaning
// across threshold changes.
func AssignClusters(root *Node, threshold float64) int {
	if root == nil {
		return 0
	}
	next := 0
	var visit func(n *Node)
	visit = func(n *Node) {
		if n.IsLeaf() || n.Distance <= threshold {
			fill(n, next)
			next++
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
		// an internal node above the threshold belongs to no cluster
		n.Cluster = -1
	}
	visit(root)
	return next
}

// fill stamps id onto n and its whole subtree.
func fill(n *Node, id int) {
	n.Cluster = id
	for _, c := range n.Children {
		fill(c, id)
	}
}

// ClusterMembers groups leaf names by cluster id after an
// AssignClusters pass. The outer slice is indexed by cluster id; member
// order within a cluster follows leaf pre-order.
func ClusterMembers(root *Node, clusterCount int) [][]string {
	members := make([][]string, clusterCount)
	for _, leaf := range Leaves(root) {
		if leaf.Cluster >= 0 && leaf.Cluster < clusterCount {
			members[leaf.Cluster] = append(members[leaf.Cluster], leaf.Name)
		}
	}
	return members
}
