package taxonomy

import "strings"

// Builder assembles a Tree from reference edges that may arrive in any order.
// A Builder is not safe for concurrent use.
type Builder struct {
	groups   map[string]struct{}
	nodes    map[string]*Node
	order    []string
	rejected []EdgeError
}

// NewBuilder returns a builder that classifies ids found in orthgroupIDs as
// KindOrthgroup and every other id as KindSpecies.
func NewBuilder(orthgroupIDs []string) *Builder {
	groups := make(map[string]struct{}, len(orthgroupIDs))
	for _, id := range orthgroupIDs {
		groups[id] = struct{}{}
	}
	return &Builder{
		groups: groups,
		nodes:  make(map[string]*Node),
	}
}

func (b *Builder) kindOf(id string) Kind {
	if _, ok := b.groups[id]; ok {
		return KindOrthgroup
	}
	return KindSpecies
}

func (b *Builder) ensure(id, name string) *Node {
	if n, ok := b.nodes[id]; ok {
		if n.Name == "" {
			n.Name = strings.ToUpper(name)
		}
		return n
	}
	n := &Node{ID: id, Name: strings.ToUpper(name), Kind: b.kindOf(id)}
	b.nodes[id] = n
	b.order = append(b.order, id)
	return n
}

// Add applies a single edge. Edges that are invalid, would give a child a
// second parent, or would close a cycle are refused with an EdgeError and
// leave the builder unchanged; the refusal is also kept for Tree.Rejected.
func (b *Builder) Add(e Edge) error {
	if err := b.check(e); err != nil {
		ee := EdgeError{Edge: e, Err: err}
		b.rejected = append(b.rejected, ee)
		return ee
	}
	child := b.ensure(e.ChildID, e.ChildName)
	parent := b.ensure(e.ParentID, e.ParentName)
	child.Parent = parent.ID
	child.HasParent = true
	if child.Kind == KindOrthgroup {
		parent.ChildGroups = append(parent.ChildGroups, child.ID)
	} else {
		parent.Children = append(parent.Children, child.ID)
	}
	return nil
}

func (b *Builder) check(e Edge) error {
	if e.ChildID == "" || e.ParentID == "" {
		return ErrInvalidEdge
	}
	if e.ChildID == e.ParentID {
		return ErrCycle
	}
	if n, ok := b.nodes[e.ChildID]; ok && n.HasParent {
		return ErrDuplicateParent
	}
	// Walking up from the new parent must never reach the child.
	cur := e.ParentID
	for steps := 0; steps <= len(b.nodes); steps++ {
		n, ok := b.nodes[cur]
		if !ok || !n.HasParent {
			return nil
		}
		if n.Parent == e.ChildID {
			return ErrCycle
		}
		cur = n.Parent
	}
	return ErrCycle
}

// Build freezes the current state into an immutable Tree. The builder must
// not be reused afterwards.
func (b *Builder) Build() *Tree {
	t := &Tree{
		nodes:    b.nodes,
		order:    b.order,
		rejected: b.rejected,
	}
	b.nodes = nil
	b.order = nil
	b.rejected = nil
	return t
}

// BuildTree is a convenience wrapper feeding every edge to a new Builder.
// Refused edges do not abort the build; they are reported by Tree.Rejected.
func BuildTree(edges []Edge, orthgroupIDs []string) *Tree {
	b := NewBuilder(orthgroupIDs)
	for _, e := range edges {
		_ = b.Add(e)
	}
	return b.Build()
}
