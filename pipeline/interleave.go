package pipeline

import (
	"context"
	"errors"
)

// Interleave alternates values from left and right, starting with left.
// It ends as soon as the side whose turn it is runs out, so with a shorter
// right the last left value is still yielded:
//
//	Interleave([1 2 3 4 5], [6 7 8]) -> 1 6 2 7 3 8 4
func Interleave[T any](left, right *Pipeline[T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &interleaveIter[T]{left: left.create(ctx), right: right.create(ctx)}
		},
	}
}

type interleaveIter[T any] struct {
	left, right Iterator[T]
	onRight     bool
	done        bool
}

func (it *interleaveIter[T]) Next(ctx context.Context) (result T, ok bool, err error) {
	if it.done {
		return result, false, nil
	}
	side := it.left
	if it.onRight {
		side = it.right
	}
	val, ok, err := side.Next(ctx)
	if err != nil || !ok {
		it.done = true
		return result, false, err
	}
	it.onRight = !it.onRight
	return val, true, nil
}

func (it *interleaveIter[T]) Close() error {
	return errors.Join(it.left.Close(), it.right.Close())
}
