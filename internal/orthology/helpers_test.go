package orthology

import (
	"context"
	"sync"
	"testing"
	"time"

	"orthocore/internal/graph/core"
	"orthocore/testutil"
)

// stubStore answers SharedOrthologsInTissue from a per-level script and
// records every level queried.
type stubStore struct {
	core.Store
	mu     sync.Mutex
	shared func(level core.Level, call int) ([]string, error)
	levels []string
}

func (s *stubStore) SharedOrthologsInTissue(_ context.Context, _ string, level core.Level, _ string) ([]string, error) {
	s.mu.Lock()
	s.levels = append(s.levels, level.ID)
	call := len(s.levels)
	s.mu.Unlock()
	return s.shared(level, call)
}

type captureLogger struct {
	mu    sync.Mutex
	calls []string
}

func (c *captureLogger) record(s string) {
	c.mu.Lock()
	c.calls = append(c.calls, s)
	c.mu.Unlock()
}

func (c *captureLogger) Debug(msg string, _ ...any) { c.record("d:" + msg) }
func (c *captureLogger) Info(msg string, _ ...any)  { c.record("i:" + msg) }
func (c *captureLogger) Warn(msg string, _ ...any)  { c.record("w:" + msg) }
func (c *captureLogger) Error(msg string, _ ...any) { c.record("e:" + msg) }

func (c *captureLogger) count(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

type metricsCall struct {
	op      string
	success bool
}

type captureMetrics struct {
	mu     sync.Mutex
	calls  []metricsCall
	levels map[string]int
}

func (c *captureMetrics) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.mu.Lock()
	c.calls = append(c.calls, metricsCall{op: op, success: success})
	c.mu.Unlock()
}

func (c *captureMetrics) ObserveLevelQuery(outcome string) {
	c.mu.Lock()
	if c.levels == nil {
		c.levels = make(map[string]int)
	}
	c.levels[outcome]++
	c.mu.Unlock()
}

func noSleep(context.Context, time.Duration) error { return nil }

func newEngine(t *testing.T, store core.Store, opts ...Option) *Engine {
	t.Helper()
	tables := testutil.SampleTables(t)
	opts = append([]Option{WithSleeper(noSleep)}, opts...)
	e, err := New(tables, tables.BuildIndex(), store, opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func newSampleEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	return newEngine(t, testutil.SampleStore(), opts...)
}
