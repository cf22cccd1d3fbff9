package pipeline

import (
	"context"
	"iter"
)

// Seq runs the pipeline as a range-over-func sequence. A failure is yielded
// once as (zero, err) and ends the sequence. Breaking out of the loop closes
// the underlying iterators.
//
//	for v, err := range pipeline.Seq(ctx, p) {
//	    if err != nil {
//	        return err
//	    }
//	    use(v)
//	}
func Seq[T any](ctx context.Context, p *Pipeline[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		it := p.create(ctx)
		defer it.Close()
		for {
			v, ok, err := it.Next(ctx)
			if err != nil {
				yield(v, err)
				return
			}
			if !ok || !yield(v, nil) {
				return
			}
		}
	}
}
