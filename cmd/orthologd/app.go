package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"orthocore/internal/adapters/httpapi"
	"orthocore/internal/blob"
	"orthocore/internal/config"
	"orthocore/internal/graph"
	"orthocore/internal/orthology"
	"orthocore/internal/reference"
	"orthocore/internal/taxonomy"
)

// loadIndex reads the reference tables and derives the taxonomy index.
func loadIndex(ctx context.Context, cfg config.Config, logger *slog.Logger) (*reference.Tables, *taxonomy.Index, error) {
	src, err := blob.Open(ctx, cfg.BlobOpenConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("open reference store: %w", err)
	}
	start := time.Now()
	tables, err := reference.Load(ctx, src, cfg.Reference)
	if err != nil {
		return nil, nil, err
	}
	index := tables.BuildIndex()
	for _, rej := range index.Tree().Rejected() {
		logger.Warn("rejected taxonomy edge",
			"child", rej.Edge.ChildID, "parent", rej.Edge.ParentID, "reason", rej.Err)
	}
	logger.Info("reference data loaded",
		"driver", src.Driver(),
		"nodes", index.Tree().Len(),
		"orthgroups", len(tables.Orthgroups),
		"tissues", len(tables.Tissues),
		"duration", time.Since(start))
	return tables, index, nil
}

func engineOptions(cfg config.Config, logger *slog.Logger, extra ...orthology.Option) []orthology.Option {
	opts := []orthology.Option{
		orthology.WithLogger(logger),
		orthology.WithRetryPolicy(orthology.RetryPolicy{
			MaxAttempts: cfg.Resolve.MaxAttempts,
			Backoff:     cfg.Resolve.Backoff,
		}),
		orthology.WithQueryTimeout(cfg.Resolve.QueryTimeout),
		orthology.WithQueryRateLimit(cfg.Resolve.QueryRate, cfg.Resolve.QueryBurst),
	}
	return append(opts, extra...)
}

// openEngine loads the index, acquires the graph store and assembles the
// engine. The returned close func releases the store and the trace file.
func openEngine(ctx context.Context, cfg config.Config, logger *slog.Logger, extra ...orthology.Option) (*orthology.Engine, func(), error) {
	tables, index, err := loadIndex(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	var closers []func()
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	if cfg.Trace.File != "" {
		f, err := os.OpenFile(cfg.Trace.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open trace file: %w", err)
		}
		closers = append(closers, func() {
			if err := f.Close(); err != nil {
				logger.Warn("close trace file", "error", err)
			}
		})
		extra = append(extra, orthology.WithTracer(orthology.NewJSONTracer(f)))
	}
	store, err := graph.Open(ctx, cfg.GraphOpenConfig(), logger)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("open graph store: %w", err)
	}
	closers = append(closers, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("close graph store", "error", err)
		}
	})
	engine, err := orthology.New(tables, index, store, engineOptions(cfg, logger, extra...)...)
	if err != nil {
		release()
		return nil, nil, err
	}
	return engine, release, nil
}

// serve runs the HTTP API until ctx is canceled.
func serve(ctx context.Context, cfg config.Config, logger *slog.Logger, ready chan<- string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	engine, closeStore, err := openEngine(ctx, cfg, logger, orthology.WithMetricsRecorder(orthology.NewPrometheusRecorder(reg)))
	if err != nil {
		return err
	}
	defer closeStore()

	handler := httpapi.NewHandler(engine)
	handler.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.WithRequestLogging(handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := listen(cfg.HTTP.Addr)
	if err != nil {
		return err
	}
	logger.Info("orthologd listening", "addr", ln.Addr().String(), "graph_driver", cfg.Graph.Driver)
	if ready != nil {
		ready <- ln.Addr().String()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
