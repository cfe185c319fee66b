package taxonomy

import (
	"errors"
	"slices"
	"testing"
)

func TestBuilderOutOfOrderEdges(t *testing.T) {
	tree := BuildTree(fixtureEdges, fixtureGroups)
	if got := len(tree.Rejected()); got != 0 {
		t.Fatalf("unexpected rejected edges: %v", tree.Rejected())
	}
	if tree.Len() != 12 {
		t.Fatalf("expected 12 nodes, got %d", tree.Len())
	}

	metazoa, ok := tree.Node("33208")
	if !ok {
		t.Fatalf("metazoa missing")
	}
	if metazoa.Kind != KindOrthgroup || metazoa.Name != "METAZOA" {
		t.Fatalf("unexpected metazoa node %+v", metazoa)
	}
	if parent, ok := metazoa.ParentID(); !ok || parent != "2759" {
		t.Fatalf("metazoa parent not resolved from later edge: %q %v", parent, ok)
	}
	if !slices.Equal(metazoa.Children, []string{"9606", "7227"}) {
		t.Fatalf("species children out of encounter order: %v", metazoa.Children)
	}
	if !slices.Equal(metazoa.ChildGroups, []string{"40674"}) {
		t.Fatalf("unexpected child groups: %v", metazoa.ChildGroups)
	}

	human, _ := tree.Node("9606")
	if human.Kind != KindSpecies || human.Name != "HOMO SAPIENS" {
		t.Fatalf("unexpected human node %+v", human)
	}

	if roots := tree.Roots(); !slices.Equal(roots, []string{"1"}) {
		t.Fatalf("expected single root, got %v", roots)
	}
	root, _ := tree.Node("1")
	if _, ok := root.ParentID(); ok {
		t.Fatalf("root must not have a parent")
	}
}

func TestBuilderNodeCopiesAreIsolated(t *testing.T) {
	tree := BuildTree(fixtureEdges, fixtureGroups)
	n, _ := tree.Node("33208")
	n.Children[0] = "mutated"
	again, _ := tree.Node("33208")
	if again.Children[0] != "9606" {
		t.Fatalf("tree mutated through returned node")
	}
}

func TestBuilderRejectsMalformedEdges(t *testing.T) {
	cases := []struct {
		name  string
		edges []Edge
		bad   Edge
		want  error
	}{
		{
			name: "self loop",
			bad:  Edge{ChildID: "5", ParentID: "5"},
			want: ErrCycle,
		},
		{
			name: "cycle through ancestors",
			edges: []Edge{
				{ChildID: "3", ParentID: "2"},
				{ChildID: "2", ParentID: "1"},
			},
			bad:  Edge{ChildID: "1", ParentID: "3"},
			want: ErrCycle,
		},
		{
			name:  "second parent",
			edges: []Edge{{ChildID: "3", ParentID: "2"}},
			bad:   Edge{ChildID: "3", ParentID: "1"},
			want:  ErrDuplicateParent,
		},
		{
			name: "empty endpoint",
			bad:  Edge{ChildID: "", ParentID: "1"},
			want: ErrInvalidEdge,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBuilder([]string{"1", "2"})
			for _, e := range tc.edges {
				if err := b.Add(e); err != nil {
					t.Fatalf("setup edge %v: %v", e, err)
				}
			}
			err := b.Add(tc.bad)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var ee EdgeError
			if !errors.As(err, &ee) || ee.Edge != tc.bad {
				t.Fatalf("expected EdgeError for %v, got %v", tc.bad, err)
			}
			tree := b.Build()
			if len(tree.Rejected()) != 1 {
				t.Fatalf("expected rejection recorded, got %v", tree.Rejected())
			}
		})
	}
}

func TestBuilderKindFollowsChildNotParent(t *testing.T) {
	// A species-kind parent still files an orthgroup child under ChildGroups.
	tree := BuildTree([]Edge{
		{ChildID: "10", ChildName: "group", ParentID: "20", ParentName: "not a level"},
		{ChildID: "30", ChildName: "leaf", ParentID: "20", ParentName: "not a level"},
	}, []string{"10"})
	parent, _ := tree.Node("20")
	if parent.Kind != KindSpecies {
		t.Fatalf("expected species kind for unlisted id")
	}
	if !slices.Equal(parent.ChildGroups, []string{"10"}) || !slices.Equal(parent.Children, []string{"30"}) {
		t.Fatalf("children filed by wrong kind: %+v", parent)
	}
}
