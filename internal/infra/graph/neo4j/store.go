// Package neo4j serves ortholog graph queries from a Neo4j server over Bolt.
//
// The graph holds (:Protein {eid, name}) nodes linked to (:NOG {level, levelId})
// groups and, through relationships carrying {ppm, rank}, to
// (:Dataset {iid, filename, organ, integrated, score}) nodes.
package neo4j

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"orthocore/internal/graph/core"
)

var _ core.Store = (*Store)(nil)

const (
	defaultURL            = "neo4j://localhost:7687"
	defaultConnectRetries = 3
	defaultRetryDelay     = time.Second
)

// Config holds connection settings.
type Config struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	// ConnectRetries bounds the startup connectivity check.
	ConnectRetries int           `yaml:"connect_retries"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
}

// runFunc executes a read query and returns its records.
type runFunc func(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)

// Store issues Cypher reads through a driver.
type Store struct {
	driver neo4j.DriverWithContext
	run    runFunc
}

var newDriver = func(cfg Config) (neo4j.DriverWithContext, error) {
	return neo4j.NewDriverWithContext(cfg.URL, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
}

// Open creates a driver and verifies connectivity, retrying up to
// cfg.ConnectRetries times before giving up.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	if cfg.ConnectRetries <= 0 {
		cfg.ConnectRetries = defaultConnectRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	driver, err := newDriver(cfg)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := awaitConnectivity(ctx, driver, cfg, logger); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	logger.Info("connected to neo4j", "url", cfg.URL, "database", cfg.Database)
	s := &Store{driver: driver}
	s.run = func(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
		opts := []neo4j.ExecuteQueryConfigurationOption{neo4j.ExecuteQueryWithReadersRouting()}
		if cfg.Database != "" {
			opts = append(opts, neo4j.ExecuteQueryWithDatabase(cfg.Database))
		}
		res, err := neo4j.ExecuteQuery(ctx, driver, cypher, params, neo4j.EagerResultTransformer, opts...)
		if err != nil {
			return nil, err
		}
		return res.Records, nil
	}
	return s, nil
}

func awaitConnectivity(ctx context.Context, driver neo4j.DriverWithContext, cfg Config, logger *slog.Logger) error {
	var err error
	for attempt := 1; attempt <= cfg.ConnectRetries; attempt++ {
		if err = driver.VerifyConnectivity(ctx); err == nil {
			return nil
		}
		logger.Warn("neo4j connectivity check failed", "attempt", attempt, "max_attempts", cfg.ConnectRetries, "error", err)
		if attempt == cfg.ConnectRetries {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("neo4j connectivity: %w", ctx.Err())
		case <-time.After(cfg.RetryDelay):
		}
	}
	return fmt.Errorf("neo4j connectivity after %d attempts: %w", cfg.ConnectRetries, err)
}

// Driver implements core.Store.
func (s *Store) Driver() core.Driver { return core.DriverNeo4j }

// Close implements core.Store.
func (s *Store) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Close(ctx)
}

// NOG nodes are matched on their numeric levelId property, not on the level
// name. Loaders must set levelId on every NOG; a graph carrying only the
// name in n.level matches nothing here.
const (
	tissuesCypher = `MATCH (p:Protein {eid: $proteinID})-->(n:NOG)<--(m:Protein)-->(d:Dataset)
WHERE n.levelId = $levelId
RETURN DISTINCT d.organ AS tissue ORDER BY tissue`

	orthologsCypher = `MATCH (p:Protein {eid: $proteinID})-->(n:NOG)<--(m:Protein)-->(:Dataset)
WHERE n.levelId = $levelId
RETURN DISTINCT m.eid AS eid, m.name AS name ORDER BY eid`

	sharedCypher = `MATCH (p:Protein {eid: $proteinID})-->(n:NOG)<--(m:Protein)-->(d:Dataset)
WHERE d.organ = $tissue AND n.levelId = $levelId
RETURN DISTINCT m.eid AS eid ORDER BY eid`

	abundanceCypher = `MATCH (p:Protein)-[r]->(d:Dataset)
WHERE d.organ = $tissue AND p.eid IN $eids
RETURN p.eid AS eid, p.name AS name, r.ppm AS ppm, r.rank AS rank,
       d.iid AS iid, d.filename AS filename, d.organ AS organ, d.integrated AS integrated, d.score AS score
ORDER BY eid, iid`
)

// TissuesOf implements core.Store.
func (s *Store) TissuesOf(ctx context.Context, proteinID string, level core.Level) ([]string, error) {
	levelID, err := core.LevelNumber(level)
	if err != nil {
		return nil, err
	}
	recs, err := s.run(ctx, tissuesCypher, map[string]any{"proteinID": proteinID, "levelId": levelID})
	if err != nil {
		return nil, fmt.Errorf("query tissues: %w", err)
	}
	return column(recs, "tissue")
}

// OrthologsOf implements core.Store.
func (s *Store) OrthologsOf(ctx context.Context, proteinID string, level core.Level) ([]core.Ortholog, error) {
	levelID, err := core.LevelNumber(level)
	if err != nil {
		return nil, err
	}
	recs, err := s.run(ctx, orthologsCypher, map[string]any{"proteinID": proteinID, "levelId": levelID})
	if err != nil {
		return nil, fmt.Errorf("query orthologs: %w", err)
	}
	out := make([]core.Ortholog, 0, len(recs))
	for _, rec := range recs {
		eid, err := stringValue(rec, "eid")
		if err != nil {
			return nil, err
		}
		name, _ := stringValue(rec, "name")
		out = append(out, core.Ortholog{ProteinID: eid, Name: name})
	}
	return out, nil
}

// SharedOrthologsInTissue implements core.Store.
func (s *Store) SharedOrthologsInTissue(ctx context.Context, proteinID string, level core.Level, tissue string) ([]string, error) {
	levelID, err := core.LevelNumber(level)
	if err != nil {
		return nil, err
	}
	recs, err := s.run(ctx, sharedCypher, map[string]any{"proteinID": proteinID, "levelId": levelID, "tissue": tissue})
	if err != nil {
		return nil, fmt.Errorf("query shared orthologs: %w", err)
	}
	return column(recs, "eid")
}

// AbundanceRecordsFor implements core.Store.
func (s *Store) AbundanceRecordsFor(ctx context.Context, proteinIDs []string, tissue string) ([]core.AbundanceRow, error) {
	if len(proteinIDs) == 0 {
		return nil, nil
	}
	recs, err := s.run(ctx, abundanceCypher, map[string]any{"eids": proteinIDs, "tissue": tissue})
	if err != nil {
		return nil, fmt.Errorf("query abundances: %w", err)
	}
	out := make([]core.AbundanceRow, 0, len(recs))
	for _, rec := range recs {
		var row core.AbundanceRow
		var err error
		if row.ProteinID, err = stringValue(rec, "eid"); err != nil {
			return nil, err
		}
		row.Name, _ = stringValue(rec, "name")
		row.Abundance.Rank, _ = stringValue(rec, "rank")
		if row.Abundance.PPM, err = floatValue(rec, "ppm"); err != nil {
			return nil, err
		}
		if row.Dataset.ID, err = intValue(rec, "iid"); err != nil {
			return nil, err
		}
		row.Dataset.Filename, _ = stringValue(rec, "filename")
		row.Dataset.Organ, _ = stringValue(rec, "organ")
		row.Dataset.Integrated = boolValue(rec, "integrated")
		row.Dataset.Score, _ = floatValue(rec, "score")
		out = append(out, row)
	}
	return out, nil
}

var errMissingField = errors.New("missing field")

func column(recs []*neo4j.Record, key string) ([]string, error) {
	out := make([]string, 0, len(recs))
	for _, rec := range recs {
		v, err := stringValue(rec, key)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func stringValue(rec *neo4j.Record, key string) (string, error) {
	raw, ok := rec.Get(key)
	if !ok || raw == nil {
		return "", fmt.Errorf("record %s: %w", key, errMissingField)
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// floatValue accepts numbers and numeric strings; ppm values are stored both ways.
func floatValue(rec *neo4j.Record, key string) (float64, error) {
	raw, ok := rec.Get(key)
	if !ok || raw == nil {
		return 0, fmt.Errorf("record %s: %w", key, errMissingField)
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("record %s: %w", key, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("record %s: unexpected type %T", key, raw)
	}
}

func intValue(rec *neo4j.Record, key string) (int64, error) {
	raw, ok := rec.Get(key)
	if !ok || raw == nil {
		return 0, fmt.Errorf("record %s: %w", key, errMissingField)
	}
	switch v := raw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("record %s: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("record %s: unexpected type %T", key, raw)
	}
}

func boolValue(rec *neo4j.Record, key string) bool {
	raw, _ := rec.Get(key)
	switch v := raw.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}
