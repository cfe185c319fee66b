// Package memory provides an in-process graph store backed by a fixture. It
// mirrors the query semantics of the neo4j and SQL backends.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"orthocore/internal/graph/core"
)

// FixtureProtein is a protein node and the NOGs it belongs to.
type FixtureProtein struct {
	ID   string   `json:"eid"`
	Name string   `json:"name"`
	NOGs []string `json:"nogs"`
}

// FixtureNOG is an orthologous group at a taxonomic level.
type FixtureNOG struct {
	ID        string `json:"id"`
	LevelID   string `json:"levelId"`
	LevelName string `json:"level"`
}

// FixtureAbundance links a protein to a dataset.
type FixtureAbundance struct {
	ProteinID string  `json:"protein"`
	DatasetID int64   `json:"dataset"`
	PPM       float64 `json:"ppm"`
	Rank      string  `json:"rank"`
}

// Fixture is the full in-memory graph.
type Fixture struct {
	Proteins   []FixtureProtein   `json:"proteins"`
	NOGs       []FixtureNOG       `json:"nogs"`
	Datasets   []core.Dataset     `json:"datasets"`
	Abundances []FixtureAbundance `json:"abundances"`
}

// LoadFixture decodes a JSON fixture.
func LoadFixture(r io.Reader) (Fixture, error) {
	var f Fixture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return Fixture{}, fmt.Errorf("decode graph fixture: %w", err)
	}
	return f, nil
}

// Store answers graph queries from an immutable fixture.
type Store struct {
	proteins   map[string]FixtureProtein
	nogs       map[string]FixtureNOG
	members    map[string][]string // nog id -> protein ids
	datasets   map[int64]core.Dataset
	abundances map[string][]FixtureAbundance // protein id -> measurements
}

var _ core.Store = (*Store)(nil)

// New indexes the fixture.
func New(f Fixture) *Store {
	s := &Store{
		proteins:   make(map[string]FixtureProtein, len(f.Proteins)),
		nogs:       make(map[string]FixtureNOG, len(f.NOGs)),
		members:    make(map[string][]string),
		datasets:   make(map[int64]core.Dataset, len(f.Datasets)),
		abundances: make(map[string][]FixtureAbundance),
	}
	for _, n := range f.NOGs {
		s.nogs[n.ID] = n
	}
	for _, p := range f.Proteins {
		s.proteins[p.ID] = p
		for _, nog := range p.NOGs {
			s.members[nog] = append(s.members[nog], p.ID)
		}
	}
	for _, d := range f.Datasets {
		s.datasets[d.ID] = d
	}
	for _, a := range f.Abundances {
		s.abundances[a.ProteinID] = append(s.abundances[a.ProteinID], a)
	}
	for _, list := range s.abundances {
		sort.SliceStable(list, func(i, j int) bool { return list[i].DatasetID < list[j].DatasetID })
	}
	return s
}

// Driver implements core.Store.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Close implements core.Store.
func (s *Store) Close(context.Context) error { return nil }

// groupMembers returns the distinct proteins sharing a NOG at level with proteinID, sorted.
func (s *Store) groupMembers(proteinID string, level core.Level) []string {
	p, ok := s.proteins[proteinID]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, nogID := range p.NOGs {
		nog, ok := s.nogs[nogID]
		if !ok || nog.LevelID != level.ID {
			continue
		}
		for _, m := range s.members[nogID] {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

// TissuesOf implements core.Store.
func (s *Store) TissuesOf(ctx context.Context, proteinID string, level core.Level) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, m := range s.groupMembers(proteinID, level) {
		for _, a := range s.abundances[m] {
			d, ok := s.datasets[a.DatasetID]
			if !ok {
				continue
			}
			if _, dup := seen[d.Organ]; dup {
				continue
			}
			seen[d.Organ] = struct{}{}
			out = append(out, d.Organ)
		}
	}
	sort.Strings(out)
	return out, nil
}

// OrthologsOf implements core.Store.
func (s *Store) OrthologsOf(ctx context.Context, proteinID string, level core.Level) ([]core.Ortholog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []core.Ortholog
	for _, m := range s.groupMembers(proteinID, level) {
		if len(s.abundances[m]) == 0 {
			continue
		}
		out = append(out, core.Ortholog{ProteinID: m, Name: s.proteins[m].Name})
	}
	return out, nil
}

// SharedOrthologsInTissue implements core.Store.
func (s *Store) SharedOrthologsInTissue(ctx context.Context, proteinID string, level core.Level, tissue string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []string
	for _, m := range s.groupMembers(proteinID, level) {
		for _, a := range s.abundances[m] {
			if d, ok := s.datasets[a.DatasetID]; ok && d.Organ == tissue {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}

// AbundanceRecordsFor implements core.Store.
func (s *Store) AbundanceRecordsFor(ctx context.Context, proteinIDs []string, tissue string) ([]core.AbundanceRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := append([]string(nil), proteinIDs...)
	sort.Strings(ids)
	var out []core.AbundanceRow
	var prev string
	for i, id := range ids {
		if i > 0 && id == prev {
			continue
		}
		prev = id
		p, ok := s.proteins[id]
		if !ok {
			continue
		}
		for _, a := range s.abundances[id] {
			d, ok := s.datasets[a.DatasetID]
			if !ok || d.Organ != tissue {
				continue
			}
			out = append(out, core.AbundanceRow{
				ProteinID: id,
				Name:      p.Name,
				Abundance: core.Abundance{PPM: a.PPM, Rank: a.Rank},
				Dataset:   d,
			})
		}
	}
	return out, nil
}
