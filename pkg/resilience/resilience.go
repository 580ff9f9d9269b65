// Package resilience wraps outbound calls in an ordered pipeline of policies.
//
// The default pipeline is circuit breaker (outermost), then retry with
// exponential backoff, then a per-attempt time limit (innermost). Policies
// dispatch on the error kinds of package domain: validation and business
// errors are returned at once and never trip a breaker, transient errors are
// retried and counted as failures.
package resilience

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Call is the single call signature every policy wraps.
type Call func(ctx context.Context) error

// Policy decorates a call made under an operation name.
type Policy interface {
	Name() string
	Wrap(op string, next Call) Call
}

// Config holds the settings of the default pipeline.
type Config struct {
	// Timeout bounds each attempt.
	Timeout time.Duration
	Retry   RetryConfig
	Breaker BreakerConfig
}

// DefaultConfig returns conservative settings for calls between services.
func DefaultConfig() Config {
	return Config{
		Timeout: 5 * time.Second,
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
		},
		Breaker: BreakerConfig{
			Window:              time.Minute,
			MinRequests:         10,
			FailureRatio:        0.5,
			OpenTimeout:         30 * time.Second,
			HalfOpenMaxRequests: 3,
		},
	}
}

// Pipeline applies its policies in order, the first one outermost.
type Pipeline struct {
	policies []Policy
}

// NewPipeline creates a pipeline; policies[0] is the outermost.
func NewPipeline(policies ...Policy) *Pipeline {
	return &Pipeline{policies: policies}
}

// New builds the default circuit breaker → retry → time limit pipeline.
func New(cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "resilience")
	return NewPipeline(
		NewCircuitBreaker(cfg.Breaker, logger),
		NewRetry(cfg.Retry, logger),
		NewTimeLimit(cfg.Timeout),
	)
}

// Policies lists the policy names, outermost first.
func (p *Pipeline) Policies() []string {
	names := make([]string, len(p.policies))
	for i, pol := range p.policies {
		names[i] = pol.Name()
	}
	return names
}

// Run executes call under op through every policy.
func (p *Pipeline) Run(ctx context.Context, op string, call Call) error {
	wrapped := call
	for i := len(p.policies) - 1; i >= 0; i-- {
		wrapped = p.policies[i].Wrap(op, wrapped)
	}
	return wrapped(ctx)
}

// Execute runs a value-returning call through p. The value of the attempt
// that succeeded is returned; on error the zero value is returned.
func Execute[T any](ctx context.Context, p *Pipeline, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := Outcome(ctx, p, op, fn)
	if err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Outcome is Execute for calls that report a value together with an error,
// such as a rejected transfer and its FAILED record. The value of the last
// attempt that finished within its time limit is returned alongside the
// error.
//
// Every attempt keeps its own result. An attempt abandoned by the time limit
// keeps running in the background and its result is discarded.
func Outcome[T any](ctx context.Context, p *Pipeline, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		mu  sync.Mutex
		out T
	)
	err := p.Run(ctx, op, func(actx context.Context) error {
		v, err := fn(actx)
		mu.Lock()
		defer mu.Unlock()
		if actx.Err() == nil {
			out = v
		}
		return err
	})
	mu.Lock()
	defer mu.Unlock()
	return out, err
}
