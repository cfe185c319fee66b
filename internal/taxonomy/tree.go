package taxonomy

import "slices"

// Tree is the immutable taxonomy graph produced by a Builder.
type Tree struct {
	nodes    map[string]*Node
	order    []string
	rejected []EdgeError
}

// Len reports the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns a copy of the node with the given id.
func (t *Tree) Node(id string) (Node, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Has reports whether id is part of the tree.
func (t *Tree) Has(id string) bool {
	_, ok := t.nodes[id]
	return ok
}

// IDs returns all node ids in first-seen order.
func (t *Tree) IDs() []string { return slices.Clone(t.order) }

// Roots returns the ids of nodes without a parent, in first-seen order.
func (t *Tree) Roots() []string {
	var roots []string
	for _, id := range t.order {
		if !t.nodes[id].HasParent {
			roots = append(roots, id)
		}
	}
	return roots
}

// Rejected returns the edges refused during construction.
func (t *Tree) Rejected() []EdgeError { return slices.Clone(t.rejected) }
