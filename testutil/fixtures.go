package testutil

import (
	"context"
	"testing"

	"orthocore/internal/blob"
	"orthocore/internal/graph"
	"orthocore/internal/reference"
)

// Sample protein ids used across package tests.
const (
	HumanHBA  = "9606.ENSP00000251595"
	MouseHBA  = "10090.ENSMUSP00000069892"
	ChimpHBA  = "9598.ENSPTRP00000013606"
	FlyGlob   = "7227.FBPP0079553"
	YeastTFC3 = "4932.YAL001C"
	EcoliThrL = "511145.b0001"
)

// SampleReferenceObjects returns the four reference files, keyed by their
// default names, describing LUCA > {Bacteria, Eukaryota > {Metazoa > {Mammalia},
// Fungi}}. Homo sapiens attaches directly to Metazoa.
func SampleReferenceObjects() map[string]string {
	return map[string]string{
		"cogs.txt": "1: LUCA\n2: Bacteria\n2759: Eukaryota\n33208: Metazoa\n40674: Mammalia\n4751: Fungi\n",
		"ontology_terms.tsv": "BTO:0000759\tLIVER\nBTO:0000142\tBRAIN\n" +
			"BTO:0001489\tWHOLE_ORGANISM\nBTO:0000089\tBLOOD\n",
		"ontology_2_species.tsv": "9606\tLIVER\n9606\tBRAIN\n9606\tWHOLE_ORGANISM\n" +
			"10090\tLIVER\n10090\tWHOLE_ORGANISM\n7227\tWHOLE_ORGANISM\n4932\tWHOLE_ORGANISM\n",
		"taxonomy_tree.tsv": "taxon_id\tparent_id\ttaxon_name\tparent_name\n" +
			"--------\t---------\t----------\t-----------\n" +
			"9606\t33208\tHomo sapiens\tMetazoa\n" +
			"7227\t33208\tDrosophila melanogaster\tMetazoa\n" +
			"10090\t40674\tMus musculus\tMammalia\n" +
			"9598\t40674\tPan troglodytes\tMammalia\n" +
			"40674\t33208\tMammalia\tMetazoa\n" +
			"4932\t4751\tSaccharomyces cerevisiae\tFungi\n" +
			"33208\t2759\tMetazoa\tEukaryota\n" +
			"4751\t2759\tFungi\tEukaryota\n" +
			"2759\t1\tEukaryota\tLUCA\n" +
			"511145\t2\tEscherichia coli\tBacteria\n" +
			"2\t1\tBacteria\tLUCA\n",
	}
}

// SampleGraph returns a small ortholog graph consistent with
// SampleReferenceObjects. The chimp protein has no datasets and Fungi has no
// NOG, so walks from yeast must climb past it.
func SampleGraph() graph.Fixture {
	return graph.Fixture{
		NOGs: []graph.FixtureNOG{
			{ID: "NOG_MAM_1", LevelID: "40674", LevelName: "MAMMALIA"},
			{ID: "NOG_MET_1", LevelID: "33208", LevelName: "METAZOA"},
			{ID: "NOG_EUK_1", LevelID: "2759", LevelName: "EUKARYOTA"},
			{ID: "COG_LUCA_1", LevelID: "1", LevelName: "LUCA"},
		},
		Proteins: []graph.FixtureProtein{
			{ID: HumanHBA, Name: "HBA1", NOGs: []string{"NOG_MET_1", "NOG_EUK_1", "COG_LUCA_1"}},
			{ID: MouseHBA, Name: "Hba-a1", NOGs: []string{"NOG_MAM_1", "NOG_MET_1", "NOG_EUK_1", "COG_LUCA_1"}},
			{ID: ChimpHBA, Name: "HBA", NOGs: []string{"NOG_MAM_1"}},
			{ID: FlyGlob, Name: "glob1", NOGs: []string{"NOG_MET_1", "NOG_EUK_1", "COG_LUCA_1"}},
			{ID: YeastTFC3, Name: "TFC3", NOGs: []string{"NOG_EUK_1", "COG_LUCA_1"}},
			{ID: EcoliThrL, Name: "thrL", NOGs: []string{"COG_LUCA_1"}},
		},
		Datasets: []graph.Dataset{
			{ID: 1, Filename: "9606-LIVER-integrated.txt", Organ: "LIVER", Integrated: true, Score: 0},
			{ID: 2, Filename: "9606-LIVER-study.txt", Organ: "LIVER", Score: 5.2},
			{ID: 3, Filename: "10090-LIVER-a.txt", Organ: "LIVER", Score: 3},
			{ID: 4, Filename: "10090-LIVER-b.txt", Organ: "LIVER", Score: 7},
			{ID: 5, Filename: "7227-WHOLE_ORGANISM.txt", Organ: "WHOLE_ORGANISM", Score: 2},
			{ID: 6, Filename: "4932-WHOLE_ORGANISM-integrated.txt", Organ: "WHOLE_ORGANISM", Integrated: true, Score: 10},
			{ID: 7, Filename: "9606-BRAIN.txt", Organ: "BRAIN", Score: 0},
		},
		Abundances: []graph.FixtureAbundance{
			{ProteinID: HumanHBA, DatasetID: 1, PPM: 12.5, Rank: "3/120"},
			{ProteinID: HumanHBA, DatasetID: 2, PPM: 10, Rank: "5/120"},
			{ProteinID: HumanHBA, DatasetID: 7, PPM: 1, Rank: "40/100"},
			{ProteinID: MouseHBA, DatasetID: 3, PPM: 8, Rank: "10/90"},
			{ProteinID: MouseHBA, DatasetID: 4, PPM: 9.5, Rank: "7/95"},
			{ProteinID: FlyGlob, DatasetID: 5, PPM: 4, Rank: "20/50"},
			{ProteinID: YeastTFC3, DatasetID: 6, PPM: 30, Rank: "1/60"},
		},
	}
}

// SampleTables loads SampleReferenceObjects through the reference loader.
func SampleTables(tb testing.TB) *reference.Tables {
	tb.Helper()
	ctx := context.Background()
	src, err := blob.Open(ctx, blob.Config{Driver: blob.DriverMemory, Objects: SampleReferenceObjects()})
	if err != nil {
		tb.Fatalf("open sample reference: %v", err)
	}
	tables, err := reference.Load(ctx, src, reference.DefaultFiles())
	if err != nil {
		tb.Fatalf("load sample reference: %v", err)
	}
	return tables
}

// SampleStore serves SampleGraph from memory.
func SampleStore() graph.Store { return graph.NewFixtureStore(SampleGraph()) }
