package taxonomy

import "strings"

// ProteinRef identifies a protein attached to a species leaf.
type ProteinRef struct {
	ID string `json:"id"`
}

// FamilyNode is one node of a per-request projection of the taxonomy onto a
// protein set. Species leaves carry Proteins; group nodes carry Children.
type FamilyNode struct {
	ID       string        `json:"id"`
	Type     Kind          `json:"type"`
	Name     string        `json:"name"`
	Proteins []ProteinRef  `json:"proteins,omitempty"`
	Children []*FamilyNode `json:"children,omitempty"`
}

func (n *FamilyNode) isLeaf() bool { return n.Proteins != nil }

// SpeciesOf returns the species prefix of a "<speciesId>.<localId>" protein id.
// Ids without a dot are treated as a bare species id.
func SpeciesOf(proteinID string) string {
	species, _, _ := strings.Cut(proteinID, ".")
	return species
}

// GroupBySpecies buckets protein ids by species, keeping input order.
func GroupBySpecies(proteinIDs []string) map[string][]string {
	out := make(map[string][]string)
	for _, p := range proteinIDs {
		sp := SpeciesOf(p)
		out[sp] = append(out[sp], p)
	}
	return out
}

// FamilyTree projects the subtree rooted at level (id or name) onto the
// species of proteinIDs. The projection is built in full first and then
// pruned bottom-up so that every leaf has proteins and every surviving group
// has at least one child. An empty protein list yields a nil tree.
func (x *Index) FamilyTree(proteinIDs []string, level string) (*FamilyNode, error) {
	if len(proteinIDs) == 0 {
		return nil, nil
	}
	rootID, ok := x.ResolveNode(level)
	if !ok {
		return nil, UnknownOrthogroupError{ID: level}
	}
	root := x.project(rootID, GroupBySpecies(proteinIDs))
	prune(root)
	return root, nil
}

func (x *Index) project(id string, bySpecies map[string][]string) *FamilyNode {
	n := x.tree.nodes[id]
	out := &FamilyNode{ID: n.ID, Type: n.Kind, Name: n.Name, Children: []*FamilyNode{}}
	for _, sp := range n.Children {
		proteins, ok := bySpecies[sp]
		if !ok {
			continue
		}
		refs := make([]ProteinRef, 0, len(proteins))
		for _, p := range proteins {
			refs = append(refs, ProteinRef{ID: p})
		}
		out.Children = append(out.Children, &FamilyNode{
			ID:       sp,
			Type:     KindSpecies,
			Name:     x.tree.nodes[sp].Name,
			Proteins: refs,
		})
	}
	for _, g := range n.ChildGroups {
		out.Children = append(out.Children, x.project(g, bySpecies))
	}
	return out
}

// prune removes, post-order, every non-leaf child left without children.
// The node passed in is never removed itself.
func prune(n *FamilyNode) {
	kept := n.Children[:0]
	for _, c := range n.Children {
		if !c.isLeaf() {
			prune(c)
			if len(c.Children) == 0 {
				continue
			}
		}
		kept = append(kept, c)
	}
	n.Children = kept
}
