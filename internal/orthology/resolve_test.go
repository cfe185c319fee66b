package orthology

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"orthocore/internal/graph/core"
	"orthocore/internal/taxonomy"
	"orthocore/testutil"
)

func TestResolveStopsAtFirstLevelWithData(t *testing.T) {
	store := &stubStore{shared: func(level core.Level, _ int) ([]string, error) {
		if level.ID == "33208" {
			return []string{"9606.x"}, nil
		}
		return nil, nil
	}}
	e := newEngine(t, store)
	res, err := e.Resolve(context.Background(), testutil.MouseHBA, "10090", "LIVER")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.State != Found || res.Name() != "METAZOA" {
		t.Fatalf("unexpected resolution %+v", res)
	}
	if res.Queries != 2 || !reflect.DeepEqual(store.levels, []string{"40674", "33208"}) {
		t.Fatalf("expected two queries starting at the parent, got %d %v", res.Queries, store.levels)
	}
}

func TestResolveExhaustsWholeChain(t *testing.T) {
	store := &stubStore{shared: func(core.Level, int) ([]string, error) { return nil, nil }}
	e := newEngine(t, store)
	for _, species := range []string{"10090", "9606", "4932", "511145"} {
		store.levels = nil
		chain, _ := e.AncestorChain(species)
		res, err := e.Resolve(context.Background(), species+".p", species, "LIVER")
		if err != nil {
			t.Fatalf("resolve %s: %v", species, err)
		}
		if res.State != Exhausted || res.Name() != NoLevelFound {
			t.Fatalf("expected exhausted walk for %s, got %+v", species, res)
		}
		if res.Queries != len(chain) || !reflect.DeepEqual(store.levels, chain) {
			t.Fatalf("species %s: queried %v, want %v", species, store.levels, chain)
		}
	}
}

func TestResolveRetriesAtSameLevel(t *testing.T) {
	log := &captureLogger{}
	store := &stubStore{shared: func(level core.Level, call int) ([]string, error) {
		if call <= 2 {
			return nil, errors.New("transient")
		}
		return []string{"10090.x"}, nil
	}}
	e := newEngine(t, store, WithLogger(log))
	res, err := e.Resolve(context.Background(), testutil.MouseHBA, "10090", "LIVER")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Name() != "MAMMALIA" || res.Queries != 3 {
		t.Fatalf("unexpected resolution %+v", res)
	}
	if !reflect.DeepEqual(store.levels, []string{"40674", "40674", "40674"}) {
		t.Fatalf("retries must not advance the level: %v", store.levels)
	}
	if log.count("w:level query failed") != 2 {
		t.Fatalf("expected two warnings, got %v", log.calls)
	}
}

func TestResolveSurfacesStoreUnavailable(t *testing.T) {
	boom := errors.New("bolt: connection refused")
	store := &stubStore{shared: func(core.Level, int) ([]string, error) { return nil, boom }}
	var sleeps []time.Duration
	e := newEngine(t, store,
		WithRetryPolicy(RetryPolicy{MaxAttempts: 4, Backoff: 50 * time.Millisecond}),
		WithSleeper(func(_ context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		}))
	_, err := e.ResolveLowestLevel(context.Background(), testutil.MouseHBA, "10090", "LIVER")
	var unavailable *StoreUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected StoreUnavailableError, got %v", err)
	}
	if unavailable.Attempts != 4 || unavailable.Level != "MAMMALIA" || !errors.Is(err, boom) {
		t.Fatalf("unexpected error detail %+v", unavailable)
	}
	if len(store.levels) != 4 || len(sleeps) != 3 || sleeps[0] != 50*time.Millisecond {
		t.Fatalf("expected 4 attempts with 3 backoffs, got %v / %v", store.levels, sleeps)
	}
	if !IsStoreUnavailable(err) {
		t.Fatalf("IsStoreUnavailable should match")
	}
}

func TestResolveStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := &stubStore{shared: func(core.Level, int) ([]string, error) {
		cancel()
		return nil, errors.New("interrupted")
	}}
	e := newEngine(t, store)
	if _, err := e.Resolve(ctx, testutil.MouseHBA, "10090", "LIVER"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(store.levels) != 1 {
		t.Fatalf("expected no retry after cancel, got %v", store.levels)
	}
}

func TestResolveValidatesBeforeQuerying(t *testing.T) {
	store := &stubStore{shared: func(core.Level, int) ([]string, error) { return nil, nil }}
	e := newEngine(t, store)
	if _, err := e.Resolve(context.Background(), testutil.MouseHBA, "10090", "SPLEEN"); !errors.Is(err, ErrInvalidTissue) {
		t.Fatalf("expected ErrInvalidTissue, got %v", err)
	}
	var unknown taxonomy.UnknownSpeciesError
	if _, err := e.Resolve(context.Background(), "40674.x", "40674", "LIVER"); !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownSpeciesError for a group id, got %v", err)
	}
	if len(store.levels) != 0 {
		t.Fatalf("validation failures must not reach the store: %v", store.levels)
	}
}

func TestResolveLowestLevelAgainstSampleGraph(t *testing.T) {
	e := newSampleEngine(t)
	cases := []struct {
		protein, tissue, want string
	}{
		{testutil.MouseHBA, "LIVER", "MAMMALIA"},
		{testutil.FlyGlob, "LIVER", "METAZOA"},
		{testutil.YeastTFC3, "LIVER", "EUKARYOTA"},
		{testutil.EcoliThrL, "LIVER", "LUCA"},
		{testutil.HumanHBA, "BLOOD", NoLevelFound},
		{testutil.YeastTFC3, "WHOLE_ORGANISM", "EUKARYOTA"},
	}
	for _, tc := range cases {
		species, err := ParseProteinID(tc.protein)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.protein, err)
		}
		got, err := e.ResolveLowestLevel(context.Background(), tc.protein, species, tc.tissue)
		if err != nil {
			t.Fatalf("resolve %s/%s: %v", tc.protein, tc.tissue, err)
		}
		if got != tc.want {
			t.Fatalf("resolve %s/%s = %s, want %s", tc.protein, tc.tissue, got, tc.want)
		}
	}
}

func TestResolveRecordsMetrics(t *testing.T) {
	metrics := &captureMetrics{}
	tracer := NewJSONTracer(nil)
	e := newSampleEngine(t, WithMetricsRecorder(metrics), WithTracer(tracer))
	if _, err := e.ResolveLowestLevel(context.Background(), testutil.YeastTFC3, "4932", "LIVER"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(metrics.calls) != 1 || metrics.calls[0] != (metricsCall{op: "resolve_lowest_level", success: true}) {
		t.Fatalf("unexpected metrics %+v", metrics.calls)
	}
	if metrics.levels["miss"] != 1 || metrics.levels["hit"] != 1 {
		t.Fatalf("unexpected level outcomes %v", metrics.levels)
	}
	if entries := tracer.Entries(); len(entries) != 1 || entries[0].Status != "success" {
		t.Fatalf("unexpected trace entries %+v", entries)
	}
}
