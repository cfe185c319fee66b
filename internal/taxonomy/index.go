package taxonomy

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Index holds the views derived from a Tree once at startup: the ancestor
// chain of every species and the flattened species list of every
// orthologous group, plus id/name lookups.
type Index struct {
	tree        *Tree
	ancestors   map[string][]string
	descendants map[string][]string
	groupNames  map[string]string
	allNames    map[string]string
}

// Level pairs a taxonomy id with its display name.
type Level struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewIndex derives every ancestor chain and descendant list from tree.
func NewIndex(tree *Tree) *Index {
	x := &Index{
		tree:        tree,
		ancestors:   make(map[string][]string),
		descendants: make(map[string][]string),
		groupNames:  make(map[string]string),
		allNames:    make(map[string]string),
	}
	for _, id := range tree.order {
		n := tree.nodes[id]
		if _, dup := x.allNames[n.Name]; !dup && n.Name != "" {
			x.allNames[n.Name] = id
		}
		if n.Kind == KindOrthgroup {
			if _, dup := x.groupNames[n.Name]; !dup && n.Name != "" {
				x.groupNames[n.Name] = id
			}
		}
	}

	for _, id := range tree.order {
		if tree.nodes[id].Kind == KindSpecies {
			x.ancestors[id] = x.walkAncestors(id)
		}
	}

	flat := make(map[string][]string)
	for _, id := range tree.order {
		if tree.nodes[id].Kind != KindOrthgroup {
			continue
		}
		species := slices.Clone(x.flatten(id, flat))
		slices.SortStableFunc(species, CompareTaxonIDs)
		x.descendants[id] = species
	}
	return x
}

// walkAncestors follows parent links from a species to the root. The chain is
// kept in root-ward insertion order: most specific level first, root last.
func (x *Index) walkAncestors(id string) []string {
	chain := []string{}
	n := x.tree.nodes[id]
	for steps := 0; n.HasParent && steps < len(x.tree.nodes); steps++ {
		parent, ok := x.tree.nodes[n.Parent]
		if !ok {
			break
		}
		chain = append(chain, parent.ID)
		n = parent
	}
	return chain
}

// flatten returns the species reachable from id through ChildGroups, without
// touching the tree. Groups are visited in reverse declared order; callers
// sort the result so only intermediate ordering depends on it.
func (x *Index) flatten(id string, memo map[string][]string) []string {
	if out, ok := memo[id]; ok {
		return out
	}
	n := x.tree.nodes[id]
	out := make([]string, 0, len(n.Children))
	out = append(out, n.Children...)
	for i := len(n.ChildGroups) - 1; i >= 0; i-- {
		out = append(out, x.flatten(n.ChildGroups[i], memo)...)
	}
	memo[id] = out
	return out
}

// CompareTaxonIDs orders ids numerically; non-numeric ids sort after numeric
// ones, lexically among themselves.
func CompareTaxonIDs(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		return cmp.Compare(ai, bi)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// Tree returns the underlying tree.
func (x *Index) Tree() *Tree { return x.tree }

// AncestorChain returns the ancestors of a species, most specific first.
func (x *Index) AncestorChain(speciesID string) ([]string, error) {
	chain, ok := x.ancestors[speciesID]
	if !ok {
		return nil, UnknownSpeciesError{ID: speciesID}
	}
	return slices.Clone(chain), nil
}

// AncestorLevels is AncestorChain with display names attached.
func (x *Index) AncestorLevels(speciesID string) ([]Level, error) {
	chain, ok := x.ancestors[speciesID]
	if !ok {
		return nil, UnknownSpeciesError{ID: speciesID}
	}
	out := make([]Level, 0, len(chain))
	for _, id := range chain {
		out = append(out, Level{ID: id, Name: x.tree.nodes[id].Name})
	}
	return out, nil
}

// DescendantSpecies returns every species under an orthologous group,
// sorted numerically.
func (x *Index) DescendantSpecies(orthgroupID string) ([]string, error) {
	species, ok := x.descendants[orthgroupID]
	if !ok {
		return nil, UnknownOrthogroupError{ID: orthgroupID}
	}
	return slices.Clone(species), nil
}

// IsSpecies reports whether id is a species-kind node.
func (x *Index) IsSpecies(id string) bool {
	_, ok := x.ancestors[id]
	return ok
}

// IsOrthgroup reports whether id is an orthgroup-kind node.
func (x *Index) IsOrthgroup(id string) bool {
	_, ok := x.descendants[id]
	return ok
}

// Name returns the display name of any node.
func (x *Index) Name(id string) (string, bool) {
	n, ok := x.tree.nodes[id]
	if !ok {
		return "", false
	}
	return n.Name, true
}

// ResolveLevel maps an orthologous-group id or display name (any case) to
// its id.
func (x *Index) ResolveLevel(level string) (string, bool) {
	if x.IsOrthgroup(level) {
		return level, true
	}
	id, ok := x.groupNames[strings.ToUpper(level)]
	return id, ok
}

// ResolveNode maps any node id or display name to its id, preferring
// orthologous-group levels when a name is shared.
func (x *Index) ResolveNode(ref string) (string, bool) {
	if x.tree.Has(ref) {
		return ref, true
	}
	if id, ok := x.ResolveLevel(ref); ok {
		return id, true
	}
	id, ok := x.allNames[strings.ToUpper(ref)]
	return id, ok
}
