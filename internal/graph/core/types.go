// Package core defines the read-only ortholog graph store abstraction: the
// four queries the engine issues against proteins, orthologous groups (NOGs)
// and tissue-expression datasets.
package core

import (
	"context"
	"fmt"
	"strconv"

	"orthocore/internal/taxonomy"
)

// Driver identifies a graph store implementation.
type Driver string

const (
	DriverNeo4j    Driver = "neo4j"    // Bolt / Cypher server (production)
	DriverPostgres Driver = "postgres" // relational mirror on PostgreSQL
	DriverSQLite   Driver = "sqlite"   // relational mirror in an embedded file
	DriverMemory   Driver = "memory"   // in-process fixture (tests / demos)
)

// Level identifies the taxonomic level a NOG belongs to.
type Level = taxonomy.Level

// Ortholog is a protein sharing an orthologous group with the query protein.
type Ortholog struct {
	ProteinID string `json:"proteinId"`
	Name      string `json:"name"`
}

// Abundance is the raw measurement linking a protein to a dataset.
type Abundance struct {
	PPM  float64 `json:"ppm"`
	Rank string  `json:"rank"`
}

// Dataset describes a tissue-expression dataset.
type Dataset struct {
	ID         int64   `json:"iid"`
	Filename   string  `json:"filename"`
	Organ      string  `json:"organ"`
	Integrated bool    `json:"integrated"`
	Score      float64 `json:"score"`
}

// AbundanceRow is one candidate measurement for a protein in a dataset.
type AbundanceRow struct {
	ProteinID string
	Name      string
	Abundance Abundance
	Dataset   Dataset
}

// Store is implemented by every graph backend. All methods are read-only and
// safe for concurrent use.
type Store interface {
	// TissuesOf returns the distinct tissue codes measured for proteins in the
	// orthologous group of proteinID at level.
	TissuesOf(ctx context.Context, proteinID string, level Level) ([]string, error)
	// OrthologsOf returns proteins with at least one dataset that share an
	// orthologous group with proteinID at level.
	OrthologsOf(ctx context.Context, proteinID string, level Level) ([]Ortholog, error)
	// SharedOrthologsInTissue returns the ids of proteins sharing an
	// orthologous group with proteinID at level that have a dataset for tissue.
	SharedOrthologsInTissue(ctx context.Context, proteinID string, level Level, tissue string) ([]string, error)
	// AbundanceRecordsFor returns every (protein, dataset) measurement for the
	// given proteins in tissue.
	AbundanceRecordsFor(ctx context.Context, proteinIDs []string, tissue string) ([]AbundanceRow, error)
	// Close releases connections held by the store.
	Close(ctx context.Context) error
	// Driver returns the backend identifier.
	Driver() Driver
}

// LevelNumber returns the numeric level id stored on NOGs.
func LevelNumber(level Level) (int64, error) {
	n, err := strconv.ParseInt(level.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("level id %q is not numeric: %w", level.ID, err)
	}
	return n, nil
}
