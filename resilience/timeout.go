package resilience

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/adamthedash/iterators/errors"
)

// Timeout runs fn with a context that expires after d. The deadline is
// cooperative: fn must observe ctx to return early. When fn fails after
// its own deadline passed, the error is reported as a retryable TIMEOUT
// wrapping fn's error. A non-positive d runs fn without a deadline.
func Timeout[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}

	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	result, err := fn(tctx)
	if err != nil && ctx.Err() == nil && stderrors.Is(tctx.Err(), context.DeadlineExceeded) {
		var zero T
		return zero, errors.Timeout("transformation").
			WithDetail("timeout", d.String()).
			WithCause(err)
	}
	return result, err
}

// TimeoutFunc decorates a per-item transformation with Timeout.
func TimeoutFunc[I, O any](d time.Duration, fn func(ctx context.Context, item I) (O, error)) func(ctx context.Context, item I) (O, error) {
	return func(ctx context.Context, item I) (O, error) {
		return Timeout(ctx, d, func(ctx context.Context) (O, error) {
			return fn(ctx, item)
		})
	}
}
