package pipeline

import (
	"context"
	"iter"
)

// FromSeq creates a pipeline from a standard library sequence. Each run
// starts a fresh pull over seq; Close stops it.
func FromSeq[T any](seq iter.Seq[T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(_ context.Context) Iterator[T] {
			next, stop := iter.Pull(seq)
			return &seqIter[T]{next: next, stop: stop}
		},
	}
}

// Generate creates an infinite pipeline that calls fn for every value.
// An error from fn ends the pipeline.
func Generate[T any](fn func(ctx context.Context) (T, error)) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(_ context.Context) Iterator[T] {
			return &generateIter[T]{fn: fn}
		},
	}
}

// Range yields the integers in [start, end).
func Range(start, end int) *Pipeline[int] {
	return &Pipeline[int]{
		create: func(_ context.Context) Iterator[int] {
			return &rangeIter{next: start, end: end}
		},
	}
}

type seqIter[T any] struct {
	next func() (T, bool)
	stop func()
}

func (it *seqIter[T]) Next(ctx context.Context) (T, bool, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, false, err
	}
	v, ok := it.next()
	return v, ok, nil
}

func (it *seqIter[T]) Close() error {
	it.stop()
	return nil
}

type generateIter[T any] struct {
	fn func(ctx context.Context) (T, error)
}

func (it *generateIter[T]) Next(ctx context.Context) (T, bool, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, false, err
	}
	v, err := it.fn(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}

func (it *generateIter[T]) Close() error { return nil }

type rangeIter struct {
	next, end int
}

func (it *rangeIter) Next(_ context.Context) (int, bool, error) {
	if it.next >= it.end {
		return 0, false, nil
	}
	v := it.next
	it.next++
	return v, true, nil
}

func (it *rangeIter) Close() error { return nil }
