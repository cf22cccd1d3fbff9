package pipeline

import (
	"context"
	"fmt"

	apperrors "github.com/adamthedash/iterators/errors"
)

// Bucket runs the pipeline and partitions its values into n slices by the
// index fn returns. Values keep their relative order within a bucket. All
// values are held in memory, so Bucket is not suited to unbounded input.
// An index outside [0, n) stops the run with an INVALID_INPUT error.
func Bucket[T any](ctx context.Context, p *Pipeline[T], n int, fn func(T) int) ([][]T, error) {
	if n < 1 {
		return nil, apperrors.InvalidInput("buckets", fmt.Sprintf("bucket count must be at least 1, got %d", n))
	}
	buckets := make([][]T, n)
	err := ForEach(ctx, p, func(_ context.Context, v T) error {
		i := fn(v)
		if i < 0 || i >= n {
			return apperrors.InvalidInput("bucket", fmt.Sprintf("index %d out of range [0, %d)", i, n))
		}
		buckets[i] = append(buckets[i], v)
		return nil
	})
	return buckets, err
}
