// Package graph re-exports the graph store abstraction and opens a backend
// selected by configuration.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"orthocore/internal/graph/core"
	"orthocore/internal/infra/graph/memory"
	"orthocore/internal/infra/graph/neo4j"
	"orthocore/internal/infra/graph/sqlstore"
)

type (
	Driver       = core.Driver
	Level        = core.Level
	Ortholog     = core.Ortholog
	Abundance    = core.Abundance
	Dataset      = core.Dataset
	AbundanceRow = core.AbundanceRow
	Store        = core.Store
	// Neo4jConfig configures the neo4j driver.
	Neo4jConfig = neo4j.Config
	// Fixture is the JSON document served by the memory driver.
	Fixture          = memory.Fixture
	FixtureProtein   = memory.FixtureProtein
	FixtureNOG       = memory.FixtureNOG
	FixtureAbundance = memory.FixtureAbundance
)

const (
	DriverNeo4j    = core.DriverNeo4j
	DriverPostgres = core.DriverPostgres
	DriverSQLite   = core.DriverSQLite
	DriverMemory   = core.DriverMemory
)

// Config selects and configures a backend.
type Config struct {
	Driver      Driver
	Neo4j       Neo4jConfig
	PostgresDSN string
	SQLitePath  string
	// FixturePath is a JSON fixture loaded by the memory driver; empty means an empty graph.
	FixturePath string
}

// NewFixtureStore serves a fixture from memory.
func NewFixtureStore(f Fixture) Store { return memory.New(f) }

// Open acquires the configured store. For neo4j this includes a bounded
// connectivity check.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case DriverNeo4j, "":
		return neo4j.Open(ctx, cfg.Neo4j, logger)
	case DriverPostgres:
		return sqlstore.OpenPostgres(ctx, cfg.PostgresDSN)
	case DriverSQLite:
		return sqlstore.OpenSQLite(ctx, cfg.SQLitePath)
	case DriverMemory:
		if cfg.FixturePath == "" {
			return memory.New(memory.Fixture{}), nil
		}
		f, err := os.Open(cfg.FixturePath)
		if err != nil {
			return nil, fmt.Errorf("open graph fixture: %w", err)
		}
		defer func() { _ = f.Close() }()
		fixture, err := memory.LoadFixture(f)
		if err != nil {
			return nil, err
		}
		return memory.New(fixture), nil
	default:
		return nil, fmt.Errorf("unknown graph driver %s", cfg.Driver)
	}
}
