// Package orthology answers ortholog questions for a protein: which taxonomic
// level is the lowest with expression data in a tissue, which orthologs and
// abundances exist at a level, and how the result proteins spread over the
// taxonomy.
//
// An Engine pairs the immutable reference tables and taxonomy index built at
// startup with a graph store acquired separately. Every method is safe for
// concurrent use.
package orthology

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"orthocore/internal/graph/core"
	"orthocore/internal/reference"
	"orthocore/internal/taxonomy"
)

// Engine serves ortholog resolution over an index and a graph store.
type Engine struct {
	tables *reference.Tables
	index  *taxonomy.Index
	store  core.Store
	opts   options
}

// New assembles an engine. The index must have been built from tables.
func New(tables *reference.Tables, index *taxonomy.Index, store core.Store, opts ...Option) (*Engine, error) {
	if tables == nil || index == nil {
		return nil, errors.New("orthology: reference tables and index are required")
	}
	if store == nil {
		return nil, errors.New("orthology: graph store is required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{tables: tables, index: index, store: store, opts: o}, nil
}

// Index returns the taxonomy index.
func (e *Engine) Index() *taxonomy.Index { return e.index }

// run wraps an operation with tracing and metrics.
func (e *Engine) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := e.opts.tracer.Start(ctx, operation)
	start := e.opts.clock.Now()
	err := fn(ctx)
	e.opts.metrics.Observe(ctx, operation, err == nil, e.opts.clock.Now().Sub(start))
	span.End(err)
	if err != nil {
		e.opts.logger.Debug("operation failed", "operation", operation, "error", err)
	}
	return err
}

// query applies the rate limit and per-query timeout around one store call.
func (e *Engine) query(ctx context.Context, fn func(context.Context) error) error {
	if e.opts.limiter != nil {
		if err := e.opts.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if e.opts.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.queryTimeout)
		defer cancel()
	}
	return fn(ctx)
}

// IsValidTaxonomicLevel reports whether level names an orthologous group by
// id or by display name (any case). Groups listed in the reference tables
// count even when the taxonomy has no edge for them.
func (e *Engine) IsValidTaxonomicLevel(level string) bool {
	_, ok := e.resolveLevel(level)
	return ok
}

// IsValidTissue reports whether code is a known tissue ontology code.
func (e *Engine) IsValidTissue(code string) bool {
	return e.tables.IsTissue(code)
}

// Level resolves a level reference to its id and display name.
func (e *Engine) Level(level string) (taxonomy.Level, error) {
	lvl, ok := e.resolveLevel(level)
	if !ok {
		return taxonomy.Level{}, invalidLevel(level)
	}
	return lvl, nil
}

// resolveLevel prefers the taxonomy, then falls back to the orthologous
// group table for levels the taxonomy does not place.
func (e *Engine) resolveLevel(level string) (taxonomy.Level, bool) {
	if id, ok := e.index.ResolveLevel(level); ok {
		name, _ := e.index.Name(id)
		return taxonomy.Level{ID: id, Name: name}, true
	}
	if name, ok := e.tables.Orthgroups[level]; ok {
		return taxonomy.Level{ID: level, Name: name}, true
	}
	upper := strings.ToUpper(level)
	for _, id := range e.tables.OrthgroupOrder {
		if e.tables.Orthgroups[id] == upper {
			return taxonomy.Level{ID: id, Name: upper}, true
		}
	}
	return taxonomy.Level{}, false
}

// AncestorChain returns the ancestor level ids of a species, most specific first.
func (e *Engine) AncestorChain(speciesID string) ([]string, error) {
	return e.index.AncestorChain(speciesID)
}

// Levels returns the ancestor levels of a species with display names.
func (e *Engine) Levels(speciesID string) ([]taxonomy.Level, error) {
	return e.index.AncestorLevels(speciesID)
}

// DescendantSpecies returns the species under an orthologous group, which
// may be given by id or name.
func (e *Engine) DescendantSpecies(level string) ([]string, error) {
	id, ok := e.index.ResolveLevel(level)
	if !ok {
		return nil, taxonomy.UnknownOrthogroupError{ID: level}
	}
	return e.index.DescendantSpecies(id)
}

// TissueTerm pairs a tissue code with its ontology term.
type TissueTerm struct {
	Code string `json:"code"`
	Term string `json:"ontoTerm"`
}

// SpeciesTissues returns the tissues measured for a species, in file order.
func (e *Engine) SpeciesTissues(speciesID string) ([]TissueTerm, error) {
	if !e.index.IsSpecies(speciesID) {
		return nil, taxonomy.UnknownSpeciesError{ID: speciesID}
	}
	return e.terms(e.tables.SpeciesTissues[speciesID]), nil
}

func (e *Engine) terms(codes []string) []TissueTerm {
	out := make([]TissueTerm, 0, len(codes))
	for _, c := range codes {
		out = append(out, TissueTerm{Code: c, Term: e.tables.Tissues[c]})
	}
	return out
}

// FamilyTree projects the taxonomy below level onto the species of proteinIDs.
// An empty protein list yields a nil tree.
func (e *Engine) FamilyTree(proteinIDs []string, level string) (*taxonomy.FamilyNode, error) {
	lvl, err := e.Level(level)
	if err != nil {
		return nil, err
	}
	return e.familyTree(proteinIDs, lvl.ID)
}

// familyTree yields a nil tree for levels with no taxonomy subtree.
func (e *Engine) familyTree(proteinIDs []string, levelID string) (*taxonomy.FamilyNode, error) {
	if !e.index.IsOrthgroup(levelID) {
		return nil, nil
	}
	return e.index.FamilyTree(proteinIDs, levelID)
}

// TissueCodes returns every known tissue code, sorted.
func (e *Engine) TissueCodes() []string {
	out := make([]string, 0, len(e.tables.Tissues))
	for code := range e.tables.Tissues {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func (e *Engine) checkTissue(tissue string) error {
	if !e.tables.IsTissue(tissue) {
		return invalidTissue(tissue)
	}
	return nil
}

func failed(operation string, err error) error {
	if err == nil {
		return nil
	}
	return &ResolutionFailedError{Operation: operation, Err: fmt.Errorf("graph store: %w", err)}
}
