package taxonomy

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFamilyTreePrunesEmptyBranches(t *testing.T) {
	x := fixtureIndex()
	tree, err := x.FamilyTree([]string{"9606.ENSP1", "10090.ENSMUSP2", "9606.ENSP3"}, "eukaryota")
	if err != nil {
		t.Fatalf("family tree: %v", err)
	}
	if tree.ID != "2759" || tree.Type != KindOrthgroup || tree.Name != "EUKARYOTA" {
		t.Fatalf("unexpected root %+v", tree)
	}
	if len(tree.Children) != 1 || tree.Children[0].ID != "33208" {
		t.Fatalf("fungi branch should be pruned, got %+v", tree.Children)
	}
	metazoa := tree.Children[0]
	if len(metazoa.Children) != 2 {
		t.Fatalf("expected human leaf and mammalia group, got %+v", metazoa.Children)
	}
	human := metazoa.Children[0]
	if human.ID != "9606" || human.Type != KindSpecies || len(human.Proteins) != 2 {
		t.Fatalf("unexpected human leaf %+v", human)
	}
	if human.Proteins[0].ID != "9606.ENSP1" || human.Proteins[1].ID != "9606.ENSP3" {
		t.Fatalf("proteins out of input order: %+v", human.Proteins)
	}
	mammalia := metazoa.Children[1]
	if mammalia.ID != "40674" || len(mammalia.Children) != 1 || mammalia.Children[0].ID != "10090" {
		t.Fatalf("unexpected mammalia branch %+v", mammalia)
	}
	assertPruned(t, tree, true)
}

func TestFamilyTreeRootSurvivesWithoutMatches(t *testing.T) {
	x := fixtureIndex()
	tree, err := x.FamilyTree([]string{"511145.b0001"}, "4751")
	if err != nil {
		t.Fatalf("family tree: %v", err)
	}
	if tree == nil || tree.ID != "4751" || len(tree.Children) != 0 {
		t.Fatalf("expected bare root, got %+v", tree)
	}
}

func TestFamilyTreeEmptyInput(t *testing.T) {
	x := fixtureIndex()
	for _, in := range [][]string{nil, {}} {
		tree, err := x.FamilyTree(in, "LUCA")
		if err != nil || tree != nil {
			t.Fatalf("expected empty result, got %+v %v", tree, err)
		}
	}
}

func TestFamilyTreeUnknownLevel(t *testing.T) {
	x := fixtureIndex()
	_, err := x.FamilyTree([]string{"9606.A"}, "PLANTAE")
	var unknown UnknownOrthogroupError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownOrthogroupError, got %v", err)
	}
}

func TestFamilyTreeEveryProteinSetIsPruned(t *testing.T) {
	x := fixtureIndex()
	all := []string{"9606.a", "7227.b", "10090.c", "9598.d", "4932.e", "511145.f"}
	// Every non-empty subset of the species, rooted at LUCA.
	for mask := 1; mask < 1<<len(all); mask++ {
		var proteins []string
		for i, p := range all {
			if mask&(1<<i) != 0 {
				proteins = append(proteins, p)
			}
		}
		tree, err := x.FamilyTree(proteins, "1")
		if err != nil {
			t.Fatalf("%v: %v", proteins, err)
		}
		assertPruned(t, tree, true)
		if got := countProteins(tree); got != len(proteins) {
			t.Fatalf("%v: expected %d proteins in tree, got %d", proteins, len(proteins), got)
		}
	}
}

func TestFamilyTreeJSONShape(t *testing.T) {
	x := fixtureIndex()
	tree, _ := x.FamilyTree([]string{"10090.c"}, "MAMMALIA")
	raw, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"40674","type":"orthgroup","name":"MAMMALIA","children":[{"id":"10090","type":"species","name":"MUS MUSCULUS","proteins":[{"id":"10090.c"}]}]}`
	if string(raw) != want {
		t.Fatalf("unexpected json\n got: %s\nwant: %s", raw, want)
	}
}

func assertPruned(t *testing.T, n *FamilyNode, root bool) {
	t.Helper()
	if n.isLeaf() {
		if len(n.Proteins) == 0 || len(n.Children) != 0 {
			t.Fatalf("leaf %s must carry proteins only", n.ID)
		}
		return
	}
	if !root && len(n.Children) == 0 {
		t.Fatalf("empty branch %s survived pruning", n.ID)
	}
	for _, c := range n.Children {
		assertPruned(t, c, false)
	}
}

func countProteins(n *FamilyNode) int {
	total := len(n.Proteins)
	for _, c := range n.Children {
		total += countProteins(c)
	}
	return total
}
