package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
)

// TimeLimit runs each attempt on a context with a deadline. When the deadline
// passes first the call is abandoned and TIMEOUT is returned; the abandoned
// call keeps running until it observes its context.
type TimeLimit struct {
	d time.Duration
}

// NewTimeLimit creates a TimeLimit; a non-positive d disables it.
func NewTimeLimit(d time.Duration) *TimeLimit {
	return &TimeLimit{d: d}
}

func (t *TimeLimit) Name() string { return "time_limit" }

func (t *TimeLimit) Wrap(op string, next Call) Call {
	if t.d <= 0 {
		return next
	}
	return func(ctx context.Context) error {
		cctx, cancel := context.WithTimeout(ctx, t.d)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- next(cctx) }()

		select {
		case err := <-done:
			return t.finished(ctx, op, err)
		case <-cctx.Done():
			if err := ctx.Err(); err != nil {
				return err
			}
			// the call may have finished in the same instant
			select {
			case err := <-done:
				return t.finished(ctx, op, err)
			default:
			}
			return domain.ErrTimeout.WithDetail("%s exceeded %s", op, t.d)
		}
	}
}

func (t *TimeLimit) finished(ctx context.Context, op string, err error) error {
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return domain.ErrTimeout.WithDetail("%s exceeded %s", op, t.d).Wrap(err)
	}
	return err
}
