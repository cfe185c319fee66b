package orthology

import (
	"context"

	"golang.org/x/sync/errgroup"

	"orthocore/internal/graph/core"
	"orthocore/internal/taxonomy"
)

// AbundanceValue is the reported measurement for a protein.
type AbundanceValue struct {
	Value    float64 `json:"value"`
	Position int     `json:"position"`
	Rank     string  `json:"rank"`
}

// DatasetRef identifies the dataset a measurement was taken from.
type DatasetRef struct {
	Filename string `json:"filename"`
	ID       int64  `json:"iid"`
}

// ProteinAbundance is one protein's selected abundance in a tissue.
type ProteinAbundance struct {
	ProteinID string         `json:"proteinId"`
	Name      string         `json:"name"`
	Abundance AbundanceValue `json:"abundance"`
	Dataset   DatasetRef     `json:"dataset"`
}

// LevelTissues lists the tissues measured in a protein's group at a level.
type LevelTissues struct {
	Level   taxonomy.Level `json:"taxonomicLevel"`
	Tissues []TissueTerm   `json:"tissues"`
}

// LevelOrthologs is a protein's group members at a level.
type LevelOrthologs struct {
	Level     taxonomy.Level  `json:"taxonomicLevel"`
	Tissues   []TissueTerm    `json:"tissues,omitempty"`
	Orthologs []core.Ortholog `json:"orthologs"`
}

// AbundanceReport combines selected abundances with the family tree of the
// proteins that have one.
type AbundanceReport struct {
	ProteinID  string               `json:"proteinId"`
	Tissue     string               `json:"tissue"`
	Level      taxonomy.Level       `json:"taxonomicLevel"`
	Abundances []ProteinAbundance   `json:"abundances"`
	FamilyTree *taxonomy.FamilyNode `json:"familyTree"`
}

// Tissues returns the tissues measured for proteins in proteinID's group at level.
func (e *Engine) Tissues(ctx context.Context, proteinID, level string) (LevelTissues, error) {
	var out LevelTissues
	err := e.run(ctx, "tissues", func(ctx context.Context) error {
		lvl, err := e.Level(level)
		if err != nil {
			return err
		}
		out.Level = lvl
		out.Tissues, err = e.tissues(ctx, proteinID, lvl)
		return err
	})
	return out, err
}

func (e *Engine) tissues(ctx context.Context, proteinID string, lvl taxonomy.Level) ([]TissueTerm, error) {
	var codes []string
	err := e.query(ctx, func(ctx context.Context) error {
		var err error
		codes, err = e.store.TissuesOf(ctx, proteinID, lvl)
		return err
	})
	if err != nil {
		return nil, failed("load tissues", err)
	}
	return e.terms(codes), nil
}

// Orthologs returns proteins with expression data sharing proteinID's group at level.
func (e *Engine) Orthologs(ctx context.Context, proteinID, level string) (LevelOrthologs, error) {
	var out LevelOrthologs
	err := e.run(ctx, "orthologs", func(ctx context.Context) error {
		lvl, err := e.Level(level)
		if err != nil {
			return err
		}
		out.Level = lvl
		out.Orthologs, err = e.orthologs(ctx, proteinID, lvl)
		return err
	})
	return out, err
}

func (e *Engine) orthologs(ctx context.Context, proteinID string, lvl taxonomy.Level) ([]core.Ortholog, error) {
	var members []core.Ortholog
	err := e.query(ctx, func(ctx context.Context) error {
		var err error
		members, err = e.store.OrthologsOf(ctx, proteinID, lvl)
		return err
	})
	if err != nil {
		return nil, failed("load orthologs", err)
	}
	if members == nil {
		members = []core.Ortholog{}
	}
	return members, nil
}

// TissuesAndOrthologs runs the tissue and ortholog lookups concurrently.
func (e *Engine) TissuesAndOrthologs(ctx context.Context, proteinID, level string) (LevelOrthologs, error) {
	var out LevelOrthologs
	err := e.run(ctx, "tissues_and_orthologs", func(ctx context.Context) error {
		lvl, err := e.Level(level)
		if err != nil {
			return err
		}
		out.Level = lvl
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			out.Tissues, err = e.tissues(gctx, proteinID, lvl)
			return err
		})
		g.Go(func() error {
			var err error
			out.Orthologs, err = e.orthologs(gctx, proteinID, lvl)
			return err
		})
		return g.Wait()
	})
	return out, err
}

// OrthologsAndAbundances loads proteinID's orthologs at level and reports one
// selected abundance per protein measured in tissue. The query protein is
// always included. Proteins whose datasets yield no selection are omitted.
func (e *Engine) OrthologsAndAbundances(ctx context.Context, proteinID, tissue, level string) ([]ProteinAbundance, error) {
	var out []ProteinAbundance
	err := e.run(ctx, "orthologs_and_abundances", func(ctx context.Context) error {
		lvl, err := e.Level(level)
		if err != nil {
			return err
		}
		if err := e.checkTissue(tissue); err != nil {
			return err
		}
		out, err = e.abundances(ctx, proteinID, tissue, lvl)
		return err
	})
	return out, err
}

func (e *Engine) abundances(ctx context.Context, proteinID, tissue string, lvl taxonomy.Level) ([]ProteinAbundance, error) {
	members, err := e.orthologs(ctx, proteinID, lvl)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members)+1)
	seen := make(map[string]struct{}, len(members)+1)
	for _, m := range append(members, core.Ortholog{ProteinID: proteinID}) {
		if _, dup := seen[m.ProteinID]; dup {
			continue
		}
		seen[m.ProteinID] = struct{}{}
		ids = append(ids, m.ProteinID)
	}

	var rows []core.AbundanceRow
	err = e.query(ctx, func(ctx context.Context) error {
		var err error
		rows, err = e.store.AbundanceRecordsFor(ctx, ids, tissue)
		return err
	})
	if err != nil {
		return nil, failed("load abundances", err)
	}

	type group struct {
		name       string
		candidates []Candidate
	}
	var order []string
	byProtein := make(map[string]*group)
	for _, r := range rows {
		g, ok := byProtein[r.ProteinID]
		if !ok {
			g = &group{name: r.Name}
			byProtein[r.ProteinID] = g
			order = append(order, r.ProteinID)
		}
		g.candidates = append(g.candidates, Candidate{Abundance: r.Abundance, Dataset: r.Dataset})
	}

	out := make([]ProteinAbundance, 0, len(order))
	for _, id := range order {
		g := byProtein[id]
		idx, ok := SelectDataset(g.candidates)
		if !ok {
			e.opts.logger.Debug("no dataset selected", "protein", id, "tissue", tissue, "candidates", len(g.candidates))
			continue
		}
		c := g.candidates[idx]
		out = append(out, ProteinAbundance{
			ProteinID: id,
			Name:      g.name,
			Abundance: AbundanceValue{
				Value:    c.Abundance.PPM,
				Position: RankPosition(c.Abundance.Rank),
				Rank:     c.Abundance.Rank,
			},
			Dataset: DatasetRef{Filename: c.Dataset.Filename, ID: c.Dataset.ID},
		})
	}
	return out, nil
}

// Report loads abundances for proteinID's orthologs in tissue at level and
// projects the reporting proteins onto the taxonomy below level.
func (e *Engine) Report(ctx context.Context, proteinID, tissue, level string) (AbundanceReport, error) {
	out := AbundanceReport{ProteinID: proteinID, Tissue: tissue}
	err := e.run(ctx, "abundance_report", func(ctx context.Context) error {
		lvl, err := e.Level(level)
		if err != nil {
			return err
		}
		if err := e.checkTissue(tissue); err != nil {
			return err
		}
		out.Level = lvl
		out.Abundances, err = e.abundances(ctx, proteinID, tissue, lvl)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(out.Abundances))
		for _, a := range out.Abundances {
			ids = append(ids, a.ProteinID)
		}
		out.FamilyTree, err = e.familyTree(ids, lvl.ID)
		return err
	})
	return out, err
}
