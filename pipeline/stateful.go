package pipeline

import "context"

// StatefulMap transforms each value with fn, threading one mutable state
// through every call in order. It runs on the consumer's goroutine; see
// StatefulParMap for a concurrent version with one state per worker.
//
//	// running total
//	sums := pipeline.StatefulMap(p, new(int), func(_ context.Context, total *int, n int) (int, error) {
//	    *total += n
//	    return *total, nil
//	})
func StatefulMap[S, I, O any](p *Pipeline[I], state S, fn func(context.Context, S, I) (O, error)) *Pipeline[O] {
	return Map(p, func(ctx context.Context, in I) (O, error) {
		return fn(ctx, state, in)
	})
}
