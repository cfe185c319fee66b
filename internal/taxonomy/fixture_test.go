package taxonomy

// Edges deliberately list leaves before the group edges that attach their
// parents, so builders must resolve ids seen first as parent stubs.
var fixtureEdges = []Edge{
	{ChildID: "9606", ChildName: "Homo sapiens", ParentID: "33208", ParentName: "Metazoa"},
	{ChildID: "7227", ChildName: "Drosophila melanogaster", ParentID: "33208", ParentName: "Metazoa"},
	{ChildID: "10090", ChildName: "Mus musculus", ParentID: "40674", ParentName: "Mammalia"},
	{ChildID: "9598", ChildName: "Pan troglodytes", ParentID: "40674", ParentName: "Mammalia"},
	{ChildID: "40674", ChildName: "Mammalia", ParentID: "33208", ParentName: "Metazoa"},
	{ChildID: "4932", ChildName: "Saccharomyces cerevisiae", ParentID: "4751", ParentName: "Fungi"},
	{ChildID: "33208", ChildName: "Metazoa", ParentID: "2759", ParentName: "Eukaryota"},
	{ChildID: "4751", ChildName: "Fungi", ParentID: "2759", ParentName: "Eukaryota"},
	{ChildID: "2759", ChildName: "Eukaryota", ParentID: "1", ParentName: "LUCA"},
	{ChildID: "511145", ChildName: "Escherichia coli", ParentID: "2", ParentName: "Bacteria"},
	{ChildID: "2", ChildName: "Bacteria", ParentID: "1", ParentName: "LUCA"},
}

var fixtureGroups = []string{"1", "2", "2759", "33208", "40674", "4751"}

func fixtureIndex() *Index {
	return NewIndex(BuildTree(fixtureEdges, fixtureGroups))
}
