package parmap

import (
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"github.com/adamthedash/iterators/errors"
	"github.com/adamthedash/iterators/logger"
	"github.com/adamthedash/iterators/observability"
)

// runWorker is the body of worker id. It creates the worker's state, then
// applies fn to tasks until the queue is closed. Leaving the loop any other
// way (a panic outside apply, runtime.Goexit in fn) poisons the engine.
func runWorker[S, I, O any](e *Engine[I, O], id int, factory StateFactory[S], fn StatefulFunc[S, I, O]) {
	defer e.wg.Done()

	var (
		state   S
		err     error
		created bool
		clean   bool
	)
	defer func() {
		r := recover()
		if r != nil || !clean {
			var cause error
			if r != nil {
				cause = fmt.Errorf("panic: %v", r)
			}
			e.poison(errors.WorkerLost(id, cause))
		}
		if created {
			releaseState(e, id, state)
		}
	}()

	state, err = newState(e, id, factory)
	if err != nil {
		clean = true
		e.poison(err)
		return
	}
	created = true

	for t := range e.tasks {
		if e.stopped() {
			continue
		}
		e.accept(apply(e, id, state, fn, t))
	}
	clean = true
}

// newState runs the factory, turning an error or panic into
// STATE_INIT_FAILED.
func newState[S, I, O any](e *Engine[I, O], id int, factory StateFactory[S]) (state S, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.StateInitFailed(id, fmt.Errorf("panic: %v", r))
		}
	}()
	state, err = factory(e.ctx, id)
	if err != nil {
		return state, errors.StateInitFailed(id, err)
	}
	return state, nil
}

// releaseState closes the state if it is an io.Closer. A failing or
// panicking Close is logged and otherwise ignored.
func releaseState[S, I, O any](e *Engine[I, O], id int, state S) {
	c, ok := any(state).(io.Closer)
	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("worker state release panicked", logger.Fields(
				logger.FieldWorker, id,
				logger.FieldError, fmt.Sprint(r),
			))
		}
	}()
	if err := c.Close(); err != nil {
		e.log.Warn("worker state release failed", logger.Fields(
			logger.FieldWorker, id,
			logger.FieldError, err.Error(),
		))
	}
}

// apply runs fn on one task and wraps the result as an outcome.
func apply[S, I, O any](e *Engine[I, O], id int, state S, fn StatefulFunc[S, I, O], t task[I]) (out Outcome[O]) {
	out.Seq = t.seq
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			var zero O
			out.Value = zero
			out.Err = errors.ItemPanicked(t.seq, id, r, debug.Stack())
			e.metrics.RecordOutcome(e.telemetry, observability.StatusPanicked, time.Since(start))
		}
	}()

	v, err := fn(e.ctx, state, t.item)
	if err != nil {
		out.Err = errors.ItemFailed(t.seq, id, err)
		e.metrics.RecordOutcome(e.telemetry, observability.StatusFailed, time.Since(start))
		return out
	}
	out.Value = v
	e.metrics.RecordOutcome(e.telemetry, observability.StatusSuccess, time.Since(start))
	return out
}

// accept hands a finished outcome to the reassembly window and wakes the
// consumer. Outcomes arriving after shutdown are dropped.
func (e *Engine[I, O]) accept(out Outcome[O]) {
	e.mu.Lock()
	if e.state.terminal() {
		e.mu.Unlock()
		return
	}
	err := e.win.insert(out)
	e.mu.Unlock()

	if err != nil {
		e.poison(err)
		return
	}
	e.wake()
}
