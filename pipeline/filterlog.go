package pipeline

import (
	"context"

	apperrors "github.com/adamthedash/iterators/errors"
	"github.com/adamthedash/iterators/logger"
	"github.com/adamthedash/iterators/parmap"
)

// FilterLog unwraps engine outcomes. Successful values pass through; failed
// outcomes are logged at error level with their sequence number and code and
// are skipped. A nil log uses the "pipeline" component logger.
func FilterLog[T any](p *Pipeline[parmap.Outcome[T]], log *logger.Logger) *Pipeline[T] {
	if log == nil {
		log = logger.Get("pipeline")
	}
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &filterLogIter[T]{upstream: upstream[parmap.Outcome[T]]{p.create(ctx)}, log: log}
		},
	}
}

type filterLogIter[T any] struct {
	upstream[parmap.Outcome[T]]
	log *logger.Logger
}

func (it *filterLogIter[T]) Next(ctx context.Context) (result T, ok bool, err error) {
	for {
		out, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return result, false, err
		}
		if out.Err == nil {
			return out.Value, true, nil
		}
		it.log.WithContext(ctx).Error("item dropped", logger.Fields(
			logger.FieldSeq, out.Seq,
			logger.FieldCode, string(apperrors.CodeOf(out.Err)),
			logger.FieldError, out.Err.Error(),
		))
	}
}
