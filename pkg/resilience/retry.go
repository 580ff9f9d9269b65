package resilience

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/cenkalti/backoff/v4"
)

// RetryConfig bounds the retry policy.
type RetryConfig struct {
	// MaxAttempts counts the first call; 1 disables retries.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Multiplier defaults to 2.
	Multiplier float64
	// Jitter is the randomization factor, 0 for none. Defaults to 0.2.
	Jitter *float64
}

// Retry re-runs transient failures with exponential backoff. Any other error
// is returned as is. When the attempts are exhausted the last error is
// wrapped in SERVICE_UNAVAILABLE.
type Retry struct {
	cfg    RetryConfig
	logger *slog.Logger
}

// NewRetry creates a Retry policy.
func NewRetry(cfg RetryConfig, logger *slog.Logger) *Retry {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 100 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = 2
	}
	if cfg.Jitter == nil {
		j := 0.2
		cfg.Jitter = &j
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retry{cfg: cfg, logger: logger}
}

func (r *Retry) Name() string { return "retry" }

func (r *Retry) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(r.cfg.InitialBackoff),
		backoff.WithMaxInterval(r.cfg.MaxBackoff),
		backoff.WithMultiplier(r.cfg.Multiplier),
		backoff.WithRandomizationFactor(*r.cfg.Jitter),
		backoff.WithMaxElapsedTime(0),
	)
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.cfg.MaxAttempts-1)), ctx)
}

func (r *Retry) Wrap(op string, next Call) Call {
	return func(ctx context.Context) error {
		var (
			attempts int
			lastErr  error
		)
		err := backoff.RetryNotify(func() error {
			attempts++
			lastErr = next(ctx)
			if lastErr == nil || domain.IsTransient(lastErr) {
				return lastErr
			}
			return backoff.Permanent(lastErr)
		}, r.newBackOff(ctx), func(err error, wait time.Duration) {
			r.logger.Warn("retrying after transient failure",
				"op", op, "attempt", attempts, "backoff", wait, "error", err)
		})
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			// the caller gave up, possibly while waiting for the next attempt
			return ctx.Err()
		case domain.IsTransient(lastErr):
			r.logger.Error("giving up after transient failures", "op", op, "attempts", attempts, "error", lastErr)
			return domain.ErrServiceUnavailable.
				WithDetail("%s failed after %d attempts", op, attempts).
				Wrap(lastErr)
		case lastErr == nil:
			return err
		default:
			return lastErr
		}
	}
}
