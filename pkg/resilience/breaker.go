package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the per-operation circuit breakers.
type BreakerConfig struct {
	// Window is the cyclic period after which the counts of a closed breaker reset.
	Window time.Duration
	// MinRequests is the number of requests in a window before the ratio is evaluated.
	MinRequests uint32
	// FailureRatio opens the breaker once reached.
	FailureRatio float64
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// HalfOpenMaxRequests is the number of probes admitted while half-open.
	HalfOpenMaxRequests uint32
}

// CircuitBreaker keeps one breaker per operation name. While a breaker is open
// calls fail with CIRCUIT_OPEN without being attempted.
type CircuitBreaker struct {
	cfg    BreakerConfig
	logger *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

// NewCircuitBreaker creates a CircuitBreaker policy.
func NewCircuitBreaker(cfg BreakerConfig, logger *slog.Logger) *CircuitBreaker {
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 1
	}
	if cfg.FailureRatio <= 0 || cfg.FailureRatio > 1 {
		cfg.FailureRatio = 0.5
	}
	if cfg.HalfOpenMaxRequests == 0 {
		cfg.HalfOpenMaxRequests = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CircuitBreaker{cfg: cfg, logger: logger, breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}])}
}

func (c *CircuitBreaker) Name() string { return "circuit_breaker" }

func (c *CircuitBreaker) breaker(op string) *gobreaker.CircuitBreaker[struct{}] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.breakers[op]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        op,
		MaxRequests: c.cfg.HalfOpenMaxRequests,
		Interval:    c.cfg.Window,
		Timeout:     c.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < c.cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= c.cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", "op", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool { return !countsAsFailure(err) },
	})
	c.breakers[op] = cb
	return cb
}

// State reports the breaker state of op ("closed" for unseen operations).
func (c *CircuitBreaker) State(op string) string {
	return c.breaker(op).State().String()
}

func (c *CircuitBreaker) Wrap(op string, next Call) Call {
	return func(ctx context.Context) error {
		_, err := c.breaker(op).Execute(func() (struct{}, error) {
			return struct{}{}, next(ctx)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domain.ErrCircuitOpen.WithDetail("circuit for %s is open", op).Wrap(err)
		}
		return err
	}
}

// countsAsFailure reports whether err says anything about the health of the
// dependency. Rejections and caller cancellations do not.
func countsAsFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindBusiness:
		return false
	}
	return true
}
