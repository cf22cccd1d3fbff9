package pipeline

import (
	"context"

	"github.com/adamthedash/iterators/parmap"
)

// ParMap applies fn to every value of p on a pool of workers and yields one
// outcome per value in input order. Failures of fn become failed outcomes;
// use FilterLog to drop them. A fatal engine error ends the pipeline with
// that error, as does a constructor error on the first pull.
func ParMap[I, O any](p *Pipeline[I], fn parmap.Func[I, O], opts ...parmap.Option) *Pipeline[parmap.Outcome[O]] {
	return &Pipeline[parmap.Outcome[O]]{
		create: func(ctx context.Context) Iterator[parmap.Outcome[O]] {
			source := p.create(ctx)
			e, err := parmap.New(ctx, source, fn, opts...)
			if err != nil {
				return &errIter[parmap.Outcome[O]]{err: err, closer: source.Close}
			}
			return e
		},
	}
}

// StatefulParMap is ParMap where each worker owns a state created by
// factory and passed to every fn call that worker makes.
func StatefulParMap[S, I, O any](p *Pipeline[I], factory parmap.StateFactory[S], fn parmap.StatefulFunc[S, I, O], opts ...parmap.Option) *Pipeline[parmap.Outcome[O]] {
	return &Pipeline[parmap.Outcome[O]]{
		create: func(ctx context.Context) Iterator[parmap.Outcome[O]] {
			source := p.create(ctx)
			e, err := parmap.NewStateful(ctx, source, factory, fn, opts...)
			if err != nil {
				return &errIter[parmap.Outcome[O]]{err: err, closer: source.Close}
			}
			return e
		},
	}
}
