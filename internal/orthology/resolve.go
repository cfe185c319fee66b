package orthology

import (
	"context"
	"errors"

	"orthocore/internal/graph/core"
	"orthocore/internal/taxonomy"
)

// State is the phase of a level-resolution walk.
type State int

const (
	Searching State = iota
	Found
	Exhausted
)

func (s State) String() string {
	switch s {
	case Searching:
		return "searching"
	case Found:
		return "found"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Resolution is the outcome of a level walk.
type Resolution struct {
	State State
	// Level is the matched level when State is Found.
	Level taxonomy.Level
	// Queries counts graph store calls, retries included.
	Queries int
}

// Name returns the matched level's display name, or NoLevelFound.
func (r Resolution) Name() string {
	if r.State != Found {
		return NoLevelFound
	}
	return r.Level.Name
}

// ResolveLowestLevel returns the display name of the lowest ancestor level of
// speciesID at which proteinID shares an orthologous group with a protein
// measured in tissue, or NoLevelFound.
func (e *Engine) ResolveLowestLevel(ctx context.Context, proteinID, speciesID, tissue string) (string, error) {
	res, err := e.Resolve(ctx, proteinID, speciesID, tissue)
	if err != nil {
		return "", err
	}
	return res.Name(), nil
}

// Resolve walks the ancestor chain of speciesID root-ward, one query per
// level, stopping at the first level with a match. The species itself is
// never queried. A failing query is retried at the same level up to the
// retry policy's bound, after which a *StoreUnavailableError is returned.
func (e *Engine) Resolve(ctx context.Context, proteinID, speciesID, tissue string) (Resolution, error) {
	var res Resolution
	err := e.run(ctx, "resolve_lowest_level", func(ctx context.Context) error {
		if err := e.checkTissue(tissue); err != nil {
			return err
		}
		chain, err := e.index.AncestorChain(speciesID)
		if err != nil {
			return err
		}
		for _, id := range chain {
			name, _ := e.index.Name(id)
			level := taxonomy.Level{ID: id, Name: name}
			hits, attempts, err := e.queryLevel(ctx, proteinID, level, tissue)
			res.Queries += attempts
			if err != nil {
				return err
			}
			if len(hits) > 0 {
				res.State, res.Level = Found, level
				e.opts.logger.Debug("lowest level found", "protein", proteinID, "tissue", tissue,
					"level", level.Name, "queries", res.Queries)
				return nil
			}
		}
		res.State = Exhausted
		return nil
	})
	return res, err
}

// queryLevel asks the store for shared orthologs at one level, retrying
// failures in place.
func (e *Engine) queryLevel(ctx context.Context, proteinID string, level core.Level, tissue string) ([]string, int, error) {
	var lastErr error
	limit := e.opts.retry.MaxAttempts
	for attempt := 1; attempt <= limit; attempt++ {
		var hits []string
		err := e.query(ctx, func(qctx context.Context) error {
			var err error
			hits, err = e.store.SharedOrthologsInTissue(qctx, proteinID, level, tissue)
			return err
		})
		if err == nil {
			e.observeLevelQuery(len(hits) > 0)
			return hits, attempt, nil
		}
		e.observeLevelQueryError()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, attempt, ctxErr
		}
		lastErr = err
		e.opts.logger.Warn("level query failed", "protein", proteinID, "level", level.Name,
			"attempt", attempt, "max_attempts", limit, "error", err)
		if attempt < limit {
			if err := e.opts.sleep(ctx, e.opts.retry.Backoff); err != nil {
				return nil, attempt, err
			}
		}
	}
	return nil, limit, &StoreUnavailableError{ProteinID: proteinID, Level: level.Name, Attempts: limit, Err: lastErr}
}

func (e *Engine) observeLevelQuery(hit bool) {
	if o, ok := e.opts.metrics.(LevelQueryObserver); ok {
		if hit {
			o.ObserveLevelQuery("hit")
		} else {
			o.ObserveLevelQuery("miss")
		}
	}
}

func (e *Engine) observeLevelQueryError() {
	if o, ok := e.opts.metrics.(LevelQueryObserver); ok {
		o.ObserveLevelQuery("error")
	}
}

// IsStoreUnavailable reports whether err came from exhausting level-walk retries.
func IsStoreUnavailable(err error) bool {
	var target *StoreUnavailableError
	return errors.As(err, &target)
}
