package octree

// Stats summarizes the shape of a built tree.
type Stats struct {
	Nodes     int
	Leaves    int
	MaxDepth  int
	Triangles int
	// References counts leaf triangle slots; it exceeds Triangles when
	// triangles straddle octant boundaries.
	References int
}

// Walk visits every node depth-first, parents before children. Returning
// false from fn skips the node's subtree.
func (o *Octree) Walk(fn func(n *Node) bool) {
	if o.root == nil {
		return
	}
	walk(o.root, fn)
}

func walk(n *Node, fn func(n *Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.children {
		walk(child, fn)
	}
}

// Stats walks the tree and reports node counts.
func (o *Octree) Stats() Stats {
	st := Stats{Triangles: len(o.tris)}
	o.Walk(func(n *Node) bool {
		st.Nodes++
		if n.depth > st.MaxDepth {
			st.MaxDepth = n.depth
		}
		if n.IsLeaf() {
			st.Leaves++
			st.References += len(n.triangles)
		}
		return true
	})
	return st
}
