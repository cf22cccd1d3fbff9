package parmap

import (
	"context"

	"github.com/adamthedash/iterators/errors"
	"github.com/adamthedash/iterators/logger"
	"github.com/adamthedash/iterators/observability"
)

// pullContext merges the consumer's ctx with the engine's, so a pull from
// the source ends when either does.
func (e *Engine[I, O]) pullContext(ctx context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancelCause(ctx)
	stop := context.AfterFunc(e.ctx, func() { cancel(context.Cause(e.ctx)) })
	return merged, func() {
		stop()
		cancel(nil)
	}
}

// fill dispatches tasks until max in flight is reached or input ends. It
// runs on the consumer's goroutine with pullMu held, so it is the only
// writer of nextSeq and the only sender on tasks.
//
// A source error while ctx is still live becomes a SOURCE_FAILED outcome at
// the next sequence number and ends the input. If ctx ended, its error is
// returned and nothing is recorded. A task whose send was cut short by ctx
// is kept in pending and sent first on the next call.
func (e *Engine[I, O]) fill(ctx context.Context) error {
	if e.pending != nil {
		if err := e.send(ctx, *e.pending); err != nil {
			return err
		}
		e.pending = nil
	}

	pullCtx, cancel := e.pullContext(ctx)
	defer cancel()

	for {
		e.mu.Lock()
		if e.state != Running || e.noMoreInput || e.outstanding >= e.max {
			e.mu.Unlock()
			return nil
		}
		seq := e.nextSeq
		e.mu.Unlock()

		item, ok, err := e.src.Next(pullCtx)

		e.mu.Lock()
		if e.state.terminal() {
			e.mu.Unlock()
			return nil
		}
		if err != nil && pullCtx.Err() != nil {
			e.mu.Unlock()
			return context.Cause(pullCtx)
		}
		if err != nil || !ok {
			e.noMoreInput = true
			e.state = Draining
		}
		if err != nil {
			e.nextSeq++
			e.outstanding++
			insertErr := e.win.insert(Outcome[O]{Seq: seq, Err: errors.SourceFailed(seq, err)})
			e.mu.Unlock()

			if insertErr != nil {
				e.poison(insertErr)
				return nil
			}
			e.metrics.RecordDispatch(e.telemetry)
			e.metrics.RecordOutcome(e.telemetry, observability.StatusSourceFailed, 0)
			e.log.Warn("source failed, ending input", logger.Fields(
				logger.FieldSeq, seq,
				logger.FieldError, err.Error(),
			))
			e.wake()
			return nil
		}
		if !ok {
			e.mu.Unlock()
			e.log.Debug("input exhausted", logger.Fields("items", seq))
			return nil
		}
		e.nextSeq++
		e.outstanding++
		e.mu.Unlock()
		e.metrics.RecordDispatch(e.telemetry)

		t := task[I]{seq: seq, item: item}
		if err := e.send(ctx, t); err != nil {
			e.pending = &t
			return err
		}
	}
}

// send queues t for the workers. It returns ctx's error if ctx ends before
// a worker takes t, and nil if the engine stops first.
func (e *Engine[I, O]) send(ctx context.Context, t task[I]) error {
	select {
	case e.tasks <- t:
		return nil
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
