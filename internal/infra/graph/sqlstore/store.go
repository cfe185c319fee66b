// Package sqlstore serves ortholog graph queries from a relational mirror of
// the graph, on PostgreSQL (pgx) or an embedded SQLite file.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"orthocore/internal/graph/core"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

var _ core.Store = (*Store)(nil)

const (
	defaultPostgresDSN = "postgres://localhost/orthocore?sslmode=disable"
	defaultSQLitePath  = "orthocore.db"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// OverrideSQLOpen swaps the sql.Open implementation. The returned func restores it.
func OverrideSQLOpen(fn func(driverName, dsn string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}

// Schema is the relational layout of the mirror. It is shared by both dialects.
const Schema = `
CREATE TABLE IF NOT EXISTS proteins (
	eid TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS nogs (
	id TEXT PRIMARY KEY,
	level_id BIGINT NOT NULL,
	level_name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS protein_nogs (
	protein_eid TEXT NOT NULL,
	nog_id TEXT NOT NULL,
	PRIMARY KEY (protein_eid, nog_id)
);
CREATE TABLE IF NOT EXISTS datasets (
	iid BIGINT PRIMARY KEY,
	filename TEXT NOT NULL,
	organ TEXT NOT NULL,
	integrated BOOLEAN NOT NULL DEFAULT FALSE,
	score DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS abundances (
	protein_eid TEXT NOT NULL,
	dataset_iid BIGINT NOT NULL,
	ppm DOUBLE PRECISION NOT NULL,
	rank TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (protein_eid, dataset_iid)
);
CREATE INDEX IF NOT EXISTS idx_nogs_level ON nogs (level_id);
CREATE INDEX IF NOT EXISTS idx_protein_nogs_nog ON protein_nogs (nog_id);
CREATE INDEX IF NOT EXISTS idx_datasets_organ ON datasets (organ);
`

// Store runs the graph queries against a *sql.DB.
type Store struct {
	db     *sql.DB
	driver core.Driver
}

// OpenPostgres connects to PostgreSQL via pgx. An empty dsn uses the local default.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	return open(ctx, "pgx", dsn, core.DriverPostgres)
}

// OpenSQLite opens (creating if needed) an SQLite mirror at path.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	return open(ctx, "sqlite", path, core.DriverSQLite)
}

func open(ctx context.Context, driverName, dsn string, driver core.Driver) (*Store, error) {
	openMu.Lock()
	db, err := sqlOpen(driverName, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &Store{db: db, driver: driver}, nil
}

// ApplySchema creates the mirror tables when absent. Provisioning tools call it
// before bulk-loading; the query path never writes.
func (s *Store) ApplySchema(ctx context.Context) error {
	for _, stmt := range strings.Split(Schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

// DB exposes the underlying sql.DB for provisioning and test hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Driver implements core.Store.
func (s *Store) Driver() core.Driver { return s.driver }

// Close implements core.Store.
func (s *Store) Close(context.Context) error { return s.db.Close() }

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != core.DriverPostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const groupJoin = `
FROM protein_nogs self
JOIN nogs n ON n.id = self.nog_id
JOIN protein_nogs member ON member.nog_id = self.nog_id`

// Orthologous groups are filtered on nogs.level_id, the numeric level. Rows
// loaded with only a level name do not match.
const (
	tissuesQuery = `SELECT DISTINCT d.organ` + groupJoin + `
JOIN abundances a ON a.protein_eid = member.protein_eid
JOIN datasets d ON d.iid = a.dataset_iid
WHERE self.protein_eid = ? AND n.level_id = ?
ORDER BY d.organ`

	orthologsQuery = `SELECT DISTINCT p.eid, p.name` + groupJoin + `
JOIN proteins p ON p.eid = member.protein_eid
WHERE self.protein_eid = ? AND n.level_id = ?
AND EXISTS (SELECT 1 FROM abundances a WHERE a.protein_eid = p.eid)
ORDER BY p.eid`

	sharedQuery = `SELECT DISTINCT member.protein_eid` + groupJoin + `
JOIN abundances a ON a.protein_eid = member.protein_eid
JOIN datasets d ON d.iid = a.dataset_iid
WHERE self.protein_eid = ? AND n.level_id = ? AND d.organ = ?
ORDER BY member.protein_eid`

	abundanceQuery = `SELECT p.eid, p.name, a.ppm, a.rank, d.iid, d.filename, d.organ, d.integrated, d.score
FROM abundances a
JOIN proteins p ON p.eid = a.protein_eid
JOIN datasets d ON d.iid = a.dataset_iid
WHERE d.organ = ? AND a.protein_eid IN (%s)
ORDER BY p.eid, d.iid`
)

// TissuesOf implements core.Store.
func (s *Store) TissuesOf(ctx context.Context, proteinID string, level core.Level) ([]string, error) {
	levelID, err := core.LevelNumber(level)
	if err != nil {
		return nil, err
	}
	return s.queryStrings(ctx, "tissues", tissuesQuery, proteinID, levelID)
}

// OrthologsOf implements core.Store.
func (s *Store) OrthologsOf(ctx context.Context, proteinID string, level core.Level) ([]core.Ortholog, error) {
	levelID, err := core.LevelNumber(level)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(orthologsQuery), proteinID, levelID)
	if err != nil {
		return nil, fmt.Errorf("select orthologs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []core.Ortholog
	for rows.Next() {
		var o core.Ortholog
		if err := rows.Scan(&o.ProteinID, &o.Name); err != nil {
			return nil, fmt.Errorf("scan orthologs: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orthologs: %w", err)
	}
	return out, nil
}

// SharedOrthologsInTissue implements core.Store.
func (s *Store) SharedOrthologsInTissue(ctx context.Context, proteinID string, level core.Level, tissue string) ([]string, error) {
	levelID, err := core.LevelNumber(level)
	if err != nil {
		return nil, err
	}
	return s.queryStrings(ctx, "shared orthologs", sharedQuery, proteinID, levelID, tissue)
}

// AbundanceRecordsFor implements core.Store.
func (s *Store) AbundanceRecordsFor(ctx context.Context, proteinIDs []string, tissue string) ([]core.AbundanceRow, error) {
	if len(proteinIDs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(proteinIDs)+1)
	args = append(args, tissue)
	for _, id := range proteinIDs {
		args = append(args, id)
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(proteinIDs)), ",")
	query := s.rebind(fmt.Sprintf(abundanceQuery, marks))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select abundances: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []core.AbundanceRow
	for rows.Next() {
		var r core.AbundanceRow
		if err := rows.Scan(&r.ProteinID, &r.Name, &r.Abundance.PPM, &r.Abundance.Rank,
			&r.Dataset.ID, &r.Dataset.Filename, &r.Dataset.Organ, &r.Dataset.Integrated, &r.Dataset.Score); err != nil {
			return nil, fmt.Errorf("scan abundances: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate abundances: %w", err)
	}
	return out, nil
}

func (s *Store) queryStrings(ctx context.Context, what, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", what, err)
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return out, nil
}
