package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"orthocore/internal/blob"
	"orthocore/internal/graph"
	"orthocore/internal/reference"
)

func env(m map[string]string) lookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.HTTP.Addr != ":3000" || cfg.Graph.Driver != graph.DriverNeo4j || cfg.Resolve.MaxAttempts != 3 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Reference.Taxonomy != "taxonomy_tree.tsv" {
		t.Fatalf("unexpected reference defaults %+v", cfg.Reference)
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orthocore.yaml")
	doc := `
http:
  addr: ":8080"
log:
  level: debug
  format: json
graph:
  driver: sqlite
  sqlite_path: /var/lib/orthocore/graph.db
  neo4j:
    url: neo4j://graph:7687
resolve:
  backoff: 50ms
  query_timeout: 2s
reference:
  taxonomy: tree.tsv
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ORTHOCORE_HTTP_ADDR", ":9090")
	t.Setenv("NEO4J_PASS", "secret")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("env should override yaml, got %s", cfg.HTTP.Addr)
	}
	if cfg.Graph.Driver != graph.DriverSQLite || cfg.Graph.SQLitePath != "/var/lib/orthocore/graph.db" {
		t.Fatalf("unexpected graph config %+v", cfg.Graph)
	}
	if cfg.Graph.Neo4j.URL != "neo4j://graph:7687" || cfg.Graph.Neo4j.Password != "secret" || cfg.Graph.Neo4j.ConnectRetries != 3 {
		t.Fatalf("unexpected neo4j config %+v", cfg.Graph.Neo4j)
	}
	if cfg.Resolve.Backoff != 50*time.Millisecond || cfg.Resolve.QueryTimeout != 2*time.Second || cfg.Resolve.MaxAttempts != 3 {
		t.Fatalf("unexpected resolve config %+v", cfg.Resolve)
	}
	if cfg.Reference.Taxonomy != "tree.tsv" || cfg.Reference.Orthgroups != "cogs.txt" {
		t.Fatalf("unexpected reference files %+v", cfg.Reference)
	}
	gc := cfg.GraphOpenConfig()
	if gc.Driver != graph.DriverSQLite || gc.SQLitePath != cfg.Graph.SQLitePath {
		t.Fatalf("unexpected graph open config %+v", gc)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, env(map[string]string{
		"ORTHOCORE_BLOB_DRIVER":          "S3",
		"ORTHOCORE_BLOB_S3_BUCKET":       "paxdb-reference",
		"ORTHOCORE_BLOB_S3_PATH_STYLE":   "TRUE",
		"ORTHOCORE_GRAPH_DRIVER":         "postgres",
		"ORTHOCORE_POSTGRES_DSN":         "postgres://db/orthologs",
		"ORTHOCORE_RESOLVE_MAX_ATTEMPTS": "5",
		"ORTHOCORE_QUERY_RATE":           "25.5",
		"ORTHOCORE_REF_TISSUES":          "terms.tsv",
	}))
	if err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Blob.Driver != blob.DriverS3 || !cfg.Blob.S3.PathStyle || cfg.Blob.S3.Bucket != "paxdb-reference" {
		t.Fatalf("unexpected blob config %+v", cfg.Blob)
	}
	if cfg.Graph.Driver != graph.DriverPostgres || cfg.Graph.PostgresDSN != "postgres://db/orthologs" {
		t.Fatalf("unexpected graph config %+v", cfg.Graph)
	}
	if cfg.Resolve.MaxAttempts != 5 || cfg.Resolve.QueryRate != 25.5 {
		t.Fatalf("unexpected resolve config %+v", cfg.Resolve)
	}
	if cfg.Reference.Tissues != "terms.tsv" {
		t.Fatalf("unexpected reference %+v", cfg.Reference)
	}
	bc := cfg.BlobOpenConfig()
	if bc.Driver != blob.DriverS3 || bc.S3.Bucket != "paxdb-reference" {
		t.Fatalf("unexpected blob open config %+v", bc)
	}
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, env(map[string]string{
		"ORTHOCORE_RESOLVE_MAX_ATTEMPTS": "three",
		"ORTHOCORE_QUERY_TIMEOUT":        "soon",
		"ORTHOCORE_QUERY_RATE":           "fast",
	}))
	if err == nil {
		t.Fatalf("expected parse errors")
	}
	for _, key := range []string{"ORTHOCORE_RESOLVE_MAX_ATTEMPTS", "ORTHOCORE_QUERY_TIMEOUT", "ORTHOCORE_QUERY_RATE"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in %v", key, err)
		}
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"blob driver", func(c *Config) { c.Blob.Driver = "ftp" }, "blob.driver"},
		{"s3 bucket", func(c *Config) { c.Blob.Driver = blob.DriverS3 }, "blob.s3.bucket"},
		{"memory objects", func(c *Config) { c.Blob.Driver = blob.DriverMemory }, "blob.objects"},
		{"graph driver", func(c *Config) { c.Graph.Driver = "mysql" }, "graph.driver"},
		{"attempts", func(c *Config) { c.Resolve.MaxAttempts = 0 }, "max_attempts"},
		{"durations", func(c *Config) { c.Resolve.Backoff = -time.Second }, "durations"},
		{"log level", func(c *Config) { c.Log.Level = "chatty" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q error, got %v", tc.want, err)
			}
		})
	}
}

func TestMemoryBlobDriverIsSeededFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orthocore.yaml")
	doc := `
blob:
  driver: memory
  objects:
    cogs.txt: "1: LUCA\n2759: Eukaryota\n"
    ontology_terms.tsv: "BTO:0000759\tLIVER\n"
    ontology_2_species.tsv: "4932\tLIVER\n"
    taxonomy_tree.tsv: "h1\nh2\n4932\t2759\tSaccharomyces cerevisiae\tEukaryota\n2759\t1\tEukaryota\tLUCA\n"
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	src, err := blob.Open(context.Background(), cfg.BlobOpenConfig())
	if err != nil {
		t.Fatalf("open blob: %v", err)
	}
	tables, err := reference.Load(context.Background(), src, cfg.Reference)
	if err != nil {
		t.Fatalf("load reference from seeded memory driver: %v", err)
	}
	if tables.Orthgroups["2759"] != "EUKARYOTA" || !tables.IsTissue("LIVER") {
		t.Fatalf("unexpected tables %+v", tables)
	}
}

func TestTraceFileFromEnv(t *testing.T) {
	cfg := Default()
	if err := applyEnv(&cfg, env(map[string]string{"ORTHOCORE_TRACE_FILE": "/tmp/spans.jsonl"})); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Trace.File != "/tmp/spans.jsonl" {
		t.Fatalf("unexpected trace config %+v", cfg.Trace)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("http: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log = LogConfig{Level: "warn", Format: "json"}
	logger, err := cfg.NewLogger(&buf)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "protein", "9606.A")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"protein":"9606.A"`) {
		t.Fatalf("unexpected log output %q", out)
	}
}
