// Package taxonomy models the mixed species/orthologous-group taxonomy and
// derives the ancestor, descendant and family-tree views served by the engine.
//
// A Tree is assembled once from reference edges and never mutated afterwards,
// so every exported read is safe for concurrent use without locking.
package taxonomy

import (
	"errors"
	"fmt"
	"slices"
)

// Kind identifies whether a taxonomy node is an orthologous-group level or a species leaf.
type Kind string

const (
	KindSpecies   Kind = "species"
	KindOrthgroup Kind = "orthgroup"
)

// Edge is one child → parent row of the taxonomy reference table.
type Edge struct {
	ChildID    string
	ChildName  string
	ParentID   string
	ParentName string
}

// Node is a single taxonomy entry keyed by taxon id.
type Node struct {
	ID   string
	Name string
	Kind Kind
	// Parent is only meaningful when HasParent is set; the root has none.
	Parent    string
	HasParent bool
	// Children holds species-kind child ids in edge-encounter order.
	Children []string
	// ChildGroups holds orthgroup-kind child ids in edge-encounter order.
	ChildGroups []string
}

// ParentID returns the parent id and whether the node has one.
func (n Node) ParentID() (string, bool) {
	return n.Parent, n.HasParent
}

func (n *Node) clone() Node {
	out := *n
	out.Children = slices.Clone(n.Children)
	out.ChildGroups = slices.Clone(n.ChildGroups)
	return out
}

var (
	// ErrCycle is returned for edges that would close a loop in the parent chain.
	ErrCycle = errors.New("taxonomy: edge would create a cycle")
	// ErrDuplicateParent is returned when a child already has a parent.
	ErrDuplicateParent = errors.New("taxonomy: child already has a parent")
	// ErrInvalidEdge is returned when an edge endpoint id is empty.
	ErrInvalidEdge = errors.New("taxonomy: edge endpoints must be non-empty")
)

// EdgeError records an edge the builder refused to apply.
type EdgeError struct {
	Edge Edge
	Err  error
}

func (e EdgeError) Error() string {
	return fmt.Sprintf("edge %s -> %s: %v", e.Edge.ChildID, e.Edge.ParentID, e.Err)
}

func (e EdgeError) Unwrap() error { return e.Err }

// UnknownSpeciesError is returned when an id is not a species in the built tree.
type UnknownSpeciesError struct {
	ID string
}

func (e UnknownSpeciesError) Error() string {
	return fmt.Sprintf("unknown species %s", e.ID)
}

// UnknownOrthogroupError is returned when an id or name is not an orthologous-group level.
type UnknownOrthogroupError struct {
	ID string
}

func (e UnknownOrthogroupError) Error() string {
	return fmt.Sprintf("unknown orthologous group level %s", e.ID)
}
