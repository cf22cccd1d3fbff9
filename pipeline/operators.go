package pipeline

import (
	"context"
	"errors"
)

// derive builds a pipeline whose iterator wraps a fresh iterator of p.
func derive[I, O any](p *Pipeline[I], wrap func(src Iterator[I]) Iterator[O]) *Pipeline[O] {
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			return wrap(p.create(ctx))
		},
	}
}

// upstream is embedded by single-input stages; closing the stage closes its
// input.
type upstream[T any] struct {
	source Iterator[T]
}

func (u upstream[T]) Close() error { return u.source.Close() }

// Map transforms each value using fn. An error from fn ends the pipeline.
func Map[I, O any](p *Pipeline[I], fn func(context.Context, I) (O, error)) *Pipeline[O] {
	return derive(p, func(src Iterator[I]) Iterator[O] {
		return &mapIter[I, O]{upstream: upstream[I]{src}, fn: fn}
	})
}

// Filter keeps only values that satisfy the predicate.
func Filter[T any](p *Pipeline[T], keep func(T) bool) *Pipeline[T] {
	return derive(p, func(src Iterator[T]) Iterator[T] {
		return &filterIter[T]{upstream: upstream[T]{src}, keep: keep}
	})
}

// Take yields at most n values, then stops pulling from upstream.
func Take[T any](p *Pipeline[T], n int) *Pipeline[T] {
	return derive(p, func(src Iterator[T]) Iterator[T] {
		return &takeIter[T]{upstream: upstream[T]{src}, left: n}
	})
}

// Skip discards the first n values.
func Skip[T any](p *Pipeline[T], n int) *Pipeline[T] {
	return derive(p, func(src Iterator[T]) Iterator[T] {
		return &skipIter[T]{upstream: upstream[T]{src}, left: n}
	})
}

// Tap calls fn for each value as a side-effect and passes the value on
// unchanged. Use it for progress reporting or counting. An error from fn
// ends the pipeline.
func Tap[T any](p *Pipeline[T], fn func(context.Context, T) error) *Pipeline[T] {
	return Map(p, func(ctx context.Context, v T) (T, error) {
		if err := fn(ctx, v); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	})
}

// Concat yields every value of each pipeline in turn. All inputs are
// created up front and closed together.
func Concat[T any](pipelines ...*Pipeline[T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			iters := make([]Iterator[T], 0, len(pipelines))
			for _, p := range pipelines {
				iters = append(iters, p.create(ctx))
			}
			return &concatIter[T]{iters: iters}
		},
	}
}

type mapIter[I, O any] struct {
	upstream[I]
	fn func(context.Context, I) (O, error)
}

func (it *mapIter[I, O]) Next(ctx context.Context) (out O, ok bool, err error) {
	in, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return out, false, err
	}
	if out, err = it.fn(ctx, in); err != nil {
		var zero O
		return zero, false, err
	}
	return out, true, nil
}

type filterIter[T any] struct {
	upstream[T]
	keep func(T) bool
}

func (it *filterIter[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		v, ok, err := it.source.Next(ctx)
		if err != nil || !ok || it.keep(v) {
			return v, ok && err == nil, err
		}
	}
}

type takeIter[T any] struct {
	upstream[T]
	left int
}

func (it *takeIter[T]) Next(ctx context.Context) (v T, ok bool, err error) {
	if it.left <= 0 {
		return v, false, nil
	}
	if v, ok, err = it.source.Next(ctx); ok && err == nil {
		it.left--
	}
	return v, ok, err
}

type skipIter[T any] struct {
	upstream[T]
	left int
}

func (it *skipIter[T]) Next(ctx context.Context) (v T, ok bool, err error) {
	for ; it.left > 0; it.left-- {
		if _, ok, err = it.source.Next(ctx); err != nil || !ok {
			return v, false, err
		}
	}
	return it.source.Next(ctx)
}

type concatIter[T any] struct {
	iters []Iterator[T]
	cur   int
}

func (it *concatIter[T]) Next(ctx context.Context) (v T, ok bool, err error) {
	for ; it.cur < len(it.iters); it.cur++ {
		if v, ok, err = it.iters[it.cur].Next(ctx); err != nil || ok {
			return v, ok, err
		}
	}
	return v, false, nil
}

func (it *concatIter[T]) Close() error {
	errs := make([]error, len(it.iters))
	for i, iter := range it.iters {
		errs[i] = iter.Close()
	}
	return errors.Join(errs...)
}
