// Package config loads service settings from defaults, an optional YAML file
// and ORTHOCORE_* / NEO4J_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"orthocore/internal/blob"
	"orthocore/internal/graph"
	"orthocore/internal/reference"
)

// Config is the full service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	Blob      BlobConfig      `yaml:"blob"`
	Reference reference.Files `yaml:"reference"`
	Graph     GraphConfig     `yaml:"graph"`
	Resolve   ResolveConfig   `yaml:"resolve"`
	Trace     TraceConfig     `yaml:"trace"`
}

// TraceConfig enables the JSON span log.
type TraceConfig struct {
	// File receives one JSON line per engine operation; empty disables tracing.
	File string `yaml:"file"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// BlobConfig selects where reference files are read from.
type BlobConfig struct {
	Driver blob.Driver   `yaml:"driver"`
	FSRoot string        `yaml:"fs_root"`
	S3     blob.S3Config `yaml:"s3"`
	// Objects holds the reference files inline for the memory driver.
	Objects map[string]string `yaml:"objects"`
}

// GraphConfig selects the ortholog graph backend.
type GraphConfig struct {
	Driver      graph.Driver      `yaml:"driver"`
	Neo4j       graph.Neo4jConfig `yaml:"neo4j"`
	PostgresDSN string            `yaml:"postgres_dsn"`
	SQLitePath  string            `yaml:"sqlite_path"`
	FixturePath string            `yaml:"fixture_path"`
}

// ResolveConfig bounds graph store traffic from the engine.
type ResolveConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	Backoff      time.Duration `yaml:"backoff"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	// QueryRate caps queries per second; zero means unlimited.
	QueryRate  float64 `yaml:"query_rate"`
	QueryBurst int     `yaml:"query_burst"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{Addr: ":3000", ShutdownTimeout: 10 * time.Second},
		Log:  LogConfig{Level: "info", Format: "text"},
		Blob: BlobConfig{Driver: blob.DriverFilesystem, FSRoot: "data/ontology"},
		Reference: reference.DefaultFiles(),
		Graph: GraphConfig{
			Driver: graph.DriverNeo4j,
			Neo4j: graph.Neo4jConfig{
				URL:            "neo4j://localhost:7687",
				Username:       "neo4j",
				ConnectRetries: 3,
				RetryDelay:     time.Second,
			},
		},
		Resolve: ResolveConfig{
			MaxAttempts:  3,
			Backoff:      200 * time.Millisecond,
			QueryTimeout: 10 * time.Second,
			QueryBurst:   1,
		},
	}
}

// Load builds the configuration. An empty path skips the YAML file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("ORTHOCORE_HTTP_ADDR", &cfg.HTTP.Addr)
	str("ORTHOCORE_LOG_LEVEL", &cfg.Log.Level)
	str("ORTHOCORE_LOG_FORMAT", &cfg.Log.Format)

	if v, ok := lookup("ORTHOCORE_BLOB_DRIVER"); ok && v != "" {
		cfg.Blob.Driver = blob.Driver(strings.ToLower(v))
	}
	str("ORTHOCORE_BLOB_FS_ROOT", &cfg.Blob.FSRoot)
	str("ORTHOCORE_BLOB_S3_BUCKET", &cfg.Blob.S3.Bucket)
	str("ORTHOCORE_BLOB_S3_REGION", &cfg.Blob.S3.Region)
	str("ORTHOCORE_BLOB_S3_ENDPOINT", &cfg.Blob.S3.Endpoint)
	str("ORTHOCORE_BLOB_S3_PREFIX", &cfg.Blob.S3.Prefix)
	if v, ok := lookup("ORTHOCORE_BLOB_S3_PATH_STYLE"); ok && v != "" {
		cfg.Blob.S3.PathStyle = strings.EqualFold(v, "true")
	}

	str("ORTHOCORE_REF_ORTHGROUPS", &cfg.Reference.Orthgroups)
	str("ORTHOCORE_REF_SPECIES_TISSUES", &cfg.Reference.SpeciesTissues)
	str("ORTHOCORE_REF_TISSUES", &cfg.Reference.Tissues)
	str("ORTHOCORE_REF_TAXONOMY", &cfg.Reference.Taxonomy)

	if v, ok := lookup("ORTHOCORE_GRAPH_DRIVER"); ok && v != "" {
		cfg.Graph.Driver = graph.Driver(strings.ToLower(v))
	}
	str("NEO4J_URL", &cfg.Graph.Neo4j.URL)
	str("NEO4J_USER", &cfg.Graph.Neo4j.Username)
	str("NEO4J_PASS", &cfg.Graph.Neo4j.Password)
	str("ORTHOCORE_NEO4J_DATABASE", &cfg.Graph.Neo4j.Database)
	integer("ORTHOCORE_NEO4J_CONNECT_RETRIES", &cfg.Graph.Neo4j.ConnectRetries)
	str("ORTHOCORE_POSTGRES_DSN", &cfg.Graph.PostgresDSN)
	str("ORTHOCORE_SQLITE_PATH", &cfg.Graph.SQLitePath)
	str("ORTHOCORE_GRAPH_FIXTURE", &cfg.Graph.FixturePath)

	integer("ORTHOCORE_RESOLVE_MAX_ATTEMPTS", &cfg.Resolve.MaxAttempts)
	duration("ORTHOCORE_RESOLVE_BACKOFF", &cfg.Resolve.Backoff)
	duration("ORTHOCORE_QUERY_TIMEOUT", &cfg.Resolve.QueryTimeout)
	if v, ok := lookup("ORTHOCORE_QUERY_RATE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("ORTHOCORE_QUERY_RATE: %w", err))
		} else {
			cfg.Resolve.QueryRate = f
		}
	}
	integer("ORTHOCORE_QUERY_BURST", &cfg.Resolve.QueryBurst)
	str("ORTHOCORE_TRACE_FILE", &cfg.Trace.File)
	return errors.Join(errs...)
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.Blob.Driver {
	case blob.DriverFilesystem, blob.DriverS3, blob.DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("blob.driver: unknown driver %q", c.Blob.Driver))
	}
	if c.Blob.Driver == blob.DriverS3 && c.Blob.S3.Bucket == "" {
		errs = append(errs, errors.New("blob.s3.bucket: required for the s3 driver"))
	}
	if c.Blob.Driver == blob.DriverMemory && len(c.Blob.Objects) == 0 {
		errs = append(errs, errors.New("blob.objects: required for the memory driver"))
	}
	switch c.Graph.Driver {
	case graph.DriverNeo4j, graph.DriverPostgres, graph.DriverSQLite, graph.DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("graph.driver: unknown driver %q", c.Graph.Driver))
	}
	if c.Resolve.MaxAttempts < 1 {
		errs = append(errs, errors.New("resolve.max_attempts: must be at least 1"))
	}
	if c.Resolve.Backoff < 0 || c.Resolve.QueryTimeout < 0 {
		errs = append(errs, errors.New("resolve: durations must not be negative"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// BlobOpenConfig converts the blob section for blob.Open.
func (c Config) BlobOpenConfig() blob.Config {
	return blob.Config{Driver: c.Blob.Driver, FSRoot: c.Blob.FSRoot, S3: c.Blob.S3, Objects: c.Blob.Objects}
}

// GraphOpenConfig converts the graph section for graph.Open.
func (c Config) GraphOpenConfig() graph.Config {
	return graph.Config{
		Driver:      c.Graph.Driver,
		Neo4j:       c.Graph.Neo4j,
		PostgresDSN: c.Graph.PostgresDSN,
		SQLitePath:  c.Graph.SQLitePath,
		FixturePath: c.Graph.FixturePath,
	}
}

// NewLogger builds a slog logger writing to w.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
