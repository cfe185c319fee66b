// Package reference loads the four flat reference tables (orthologous groups,
// species tissues, tissue ontology terms and taxonomy edges) that the
// taxonomy index is built from at startup.
package reference

import (
	"context"
	"io"
	"slices"

	"golang.org/x/sync/errgroup"

	"orthocore/internal/blob"
	"orthocore/internal/taxonomy"
)

// Files names the blob keys of the reference tables.
type Files struct {
	Orthgroups     string `yaml:"orthgroups"`
	SpeciesTissues string `yaml:"species_tissues"`
	Tissues        string `yaml:"tissues"`
	Taxonomy       string `yaml:"taxonomy"`
}

// DefaultFiles returns the file names used by the published ontology bundle.
func DefaultFiles() Files {
	return Files{
		Orthgroups:     "cogs.txt",
		SpeciesTissues: "ontology_2_species.tsv",
		Tissues:        "ontology_terms.tsv",
		Taxonomy:       "taxonomy_tree.tsv",
	}
}

// Tables is the parsed reference data.
type Tables struct {
	// Orthgroups maps orthologous-group level id to upper-cased name.
	Orthgroups map[string]string
	// OrthgroupOrder lists the level ids in file order.
	OrthgroupOrder []string
	// SpeciesTissues maps species id to the tissue codes measured for it.
	SpeciesTissues map[string][]string
	// Tissues maps tissue code (e.g. LIVER) to its ontology term (e.g. BTO:0000759).
	Tissues map[string]string
	// Edges are the taxonomy rows in file order.
	Edges []taxonomy.Edge
}

// Load fetches and parses every table from src. The four reads run
// concurrently; the first failure cancels the rest.
func Load(ctx context.Context, src blob.Reader, files Files) (*Tables, error) {
	t := &Tables{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return readBlob(ctx, src, files.Orthgroups, func(r io.Reader) error {
			var err error
			t.Orthgroups, t.OrthgroupOrder, err = ParseOrthgroups(r, files.Orthgroups)
			return err
		})
	})
	g.Go(func() error {
		return readBlob(ctx, src, files.SpeciesTissues, func(r io.Reader) error {
			var err error
			t.SpeciesTissues, err = ParseSpeciesTissues(r, files.SpeciesTissues)
			return err
		})
	})
	g.Go(func() error {
		return readBlob(ctx, src, files.Tissues, func(r io.Reader) error {
			var err error
			t.Tissues, err = ParseTissueTerms(r, files.Tissues)
			return err
		})
	})
	g.Go(func() error {
		return readBlob(ctx, src, files.Taxonomy, func(r io.Reader) error {
			var err error
			t.Edges, err = ParseTaxonomyEdges(r, files.Taxonomy)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}

func readBlob(ctx context.Context, src blob.Reader, key string, parse func(io.Reader) error) error {
	_, rc, err := src.Get(ctx, key)
	if err != nil {
		return &MalformedError{File: key, Reason: "unreadable", Err: err}
	}
	defer func() { _ = rc.Close() }()
	return parse(rc)
}

// OrthgroupIDs returns the orthologous-group level ids in file order.
func (t *Tables) OrthgroupIDs() []string { return slices.Clone(t.OrthgroupOrder) }

// BuildIndex assembles the taxonomy tree from the edges and derives its index.
func (t *Tables) BuildIndex() *taxonomy.Index {
	return taxonomy.NewIndex(taxonomy.BuildTree(t.Edges, t.OrthgroupOrder))
}

// IsTissue reports whether code is a known tissue ontology code.
func (t *Tables) IsTissue(code string) bool {
	_, ok := t.Tissues[code]
	return ok
}
