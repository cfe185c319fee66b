package orthology

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Logger is the structured logging surface used by the engine. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// MetricsRecorder observes the outcome and latency of engine operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// LevelQueryObserver is optionally implemented by a MetricsRecorder to count
// individual level-walk queries by outcome (hit, miss, error).
type LevelQueryObserver interface {
	ObserveLevelQuery(outcome string)
}

// Tracer starts a span per engine operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended with the operation's error, if any.
type TraceSpan interface {
	End(err error)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// RetryPolicy bounds retries of a failed level-walk query at a single level.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries per level, including the first.
	MaxAttempts int
	// Backoff is the pause before each retry.
	Backoff time.Duration
}

// DefaultRetryPolicy tries each level three times, 200ms apart.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Backoff: 200 * time.Millisecond}

type options struct {
	logger       Logger
	clock        Clock
	metrics      MetricsRecorder
	tracer       Tracer
	retry        RetryPolicy
	queryTimeout time.Duration
	limiter      *rate.Limiter
	sleep        func(ctx context.Context, d time.Duration) error
}

func defaultOptions() options {
	return options{
		logger:       noopLogger{},
		clock:        ClockFunc(time.Now),
		metrics:      noopMetrics{},
		tracer:       noopTracer{},
		retry:        DefaultRetryPolicy,
		queryTimeout: 10 * time.Second,
		sleep:        sleepContext,
	}
}

// Option customizes an Engine.
type Option func(*options)

// WithLogger sets the engine logger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the time source used for operation timing.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithMetricsRecorder installs a metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(t Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithRetryPolicy sets the per-level retry bound. MaxAttempts below one is
// treated as one.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *options) {
		if p.MaxAttempts < 1 {
			p.MaxAttempts = 1
		}
		if p.Backoff < 0 {
			p.Backoff = 0
		}
		o.retry = p
	}
}

// WithQueryTimeout bounds every graph store round-trip. Zero disables the bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(o *options) { o.queryTimeout = d }
}

// WithQueryRateLimit caps graph store queries per second across the engine.
// A non-positive limit disables limiting.
func WithQueryRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		if perSecond <= 0 {
			o.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithSleeper replaces the backoff wait between retries.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *options) {
		if fn != nil {
			o.sleep = fn
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
