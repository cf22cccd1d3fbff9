package parmap

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamthedash/iterators/errors"
	"github.com/adamthedash/iterators/logger"
	"github.com/adamthedash/iterators/observability"
)

// Engine is an ordered concurrent map from a Source[I] to outcomes of O.
// It is created running; Next drives it and Close releases it. Next may be
// called from several goroutines but calls are serialised.
type Engine[I, O any] struct {
	id      string
	cfg     Config
	max     int
	src     Source[I]
	log     *logger.Logger
	metrics *observability.PipelineMetrics
	span    trace.Span

	// ctx is passed to every transformation and cancelled on shutdown.
	ctx    context.Context
	cancel context.CancelFunc
	// telemetry is ctx without its cancellation, for metric recording.
	telemetry context.Context

	tasks  chan task[I]
	notify chan struct{}
	done   chan struct{}
	joined chan struct{}
	wg     sync.WaitGroup

	// pullMu serialises Next and the dispatcher, and guards closing tasks
	// and pending.
	pullMu sync.Mutex
	// pending is a dispatched task not yet taken by a worker.
	pending *task[I]

	mu          sync.Mutex
	state       State
	fatal       error
	win         *window[O]
	nextSeq     uint64
	released    uint64
	outstanding int
	noMoreInput bool

	stopOnce  sync.Once
	joinStart sync.Once
	joinOnce  sync.Once
	closeErr  error
}

// New starts an engine applying fn to every item of src. The workers start
// immediately; nothing is pulled from src until the first Next.
func New[I, O any](ctx context.Context, src Source[I], fn Func[I, O], opts ...Option) (*Engine[I, O], error) {
	if fn == nil {
		return nil, errors.InvalidInput("fn", "transformation is nil")
	}
	factory := func(context.Context, int) (struct{}, error) { return struct{}{}, nil }
	stateful := func(ctx context.Context, _ struct{}, item I) (O, error) { return fn(ctx, item) }
	return NewStateful[struct{}, I, O](ctx, src, factory, stateful, opts...)
}

// NewStateful starts an engine whose workers each own a state created by
// factory. The state is passed to every fn call made by its worker.
func NewStateful[S, I, O any](ctx context.Context, src Source[I], factory StateFactory[S], fn StatefulFunc[S, I, O], opts ...Option) (*Engine[I, O], error) {
	if src == nil {
		return nil, errors.InvalidInput("source", "source is nil")
	}
	if factory == nil || fn == nil {
		return nil, errors.InvalidInput("fn", "transformation is nil")
	}

	o := options{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	o.cfg.ApplyDefaults()
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if o.log == nil {
		o.log = logger.Get("parmap")
	}
	if o.meter == nil {
		o.meter = observability.Meter(observability.MeterName)
	}
	metrics, err := observability.NewPipelineMetrics(o.meter, o.cfg.Name)
	if err != nil {
		return nil, errors.Internal(err)
	}

	id := uuid.NewString()
	maxInFlight := o.cfg.MaxInFlight()
	spanCtx, span := observability.StartSpan(ctx, observability.SpanParmapRun,
		trace.WithAttributes(
			attribute.String(observability.AttrPipeline, o.cfg.Name),
			attribute.String(observability.AttrPipelineID, id),
			attribute.Int(observability.AttrWorkers, o.cfg.Workers),
			attribute.Int(observability.AttrMaxInFlight, maxInFlight),
		))
	runCtx, cancel := context.WithCancel(spanCtx)

	e := &Engine[I, O]{
		id:        id,
		cfg:       o.cfg,
		max:       maxInFlight,
		src:       src,
		log:       o.log.WithFields(map[string]any{logger.FieldPipelineID: id, "pipeline": o.cfg.Name}),
		metrics:   metrics,
		span:      span,
		ctx:       runCtx,
		cancel:    cancel,
		telemetry: context.WithoutCancel(spanCtx),
		tasks:     make(chan task[I], o.cfg.Buffer()),
		notify:    make(chan struct{}, 1),
		done:      make(chan struct{}),
		joined:    make(chan struct{}),
		win:       newWindow[O](maxInFlight),
	}

	e.wg.Add(o.cfg.Workers)
	for w := 0; w < o.cfg.Workers; w++ {
		go runWorker(e, w, factory, fn)
	}

	e.log.Debug("pipeline started", logger.Fields(
		"workers", o.cfg.Workers,
		"max_in_flight", maxInFlight,
	))
	return e, nil
}

// ID returns the unique id of this engine instance.
func (e *Engine[I, O]) ID() string { return e.id }

// State returns the current lifecycle state.
func (e *Engine[I, O]) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine[I, O]) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Dispatched:  e.nextSeq,
		Released:    e.released,
		Outstanding: e.outstanding,
		Pending:     e.win.len(),
		MaxInFlight: e.max,
	}
}

// Next returns the outcome with the next sequence number, blocking until it
// is available. It returns (zero, false, nil) at the end of input or after
// Close, the fatal error if the engine is poisoned, and ctx.Err() if ctx
// ends first; in the last case the engine stays usable.
func (e *Engine[I, O]) Next(ctx context.Context) (Outcome[O], bool, error) {
	var zero Outcome[O]

	e.pullMu.Lock()
	defer e.pullMu.Unlock()

	for {
		e.mu.Lock()
		switch e.state {
		case Poisoned:
			err := e.fatal
			e.mu.Unlock()
			return zero, false, err
		case ShutDown:
			e.mu.Unlock()
			return zero, false, nil
		}

		if out, ok := e.win.pop(); ok {
			e.outstanding--
			e.released++
			e.mu.Unlock()
			e.metrics.RecordRelease(e.telemetry, 1)
			// A failed refill surfaces on the following call.
			_ = e.fill(ctx)
			return out, true, nil
		}

		if e.noMoreInput && e.outstanding == 0 {
			e.mu.Unlock()
			e.log.Debug("input drained")
			e.signal()
			e.joinLocked()
			return zero, false, nil
		}
		needFill := e.pending != nil || (e.state == Running && e.outstanding < e.max)
		e.mu.Unlock()

		if err := ctx.Err(); err != nil {
			return zero, false, err
		}
		if needFill {
			if err := e.fill(ctx); err != nil {
				return zero, false, err
			}
			continue
		}

		select {
		case <-e.notify:
		case <-e.done:
		case <-ctx.Done():
			return zero, false, ctx.Err()
		}
	}
}

// Close abandons the engine: unreleased outcomes are discarded, the task
// queue is closed once no Next is in progress, every worker is joined and
// the source is closed. Close is idempotent and returns the source's Close
// error.
func (e *Engine[I, O]) Close() error {
	return e.Shutdown(context.Background())
}

// Shutdown is Close bounded by ctx. If ctx ends before every worker has
// exited it returns ctx.Err(); the join continues in the background and
// worker states are still released as each worker exits.
func (e *Engine[I, O]) Shutdown(ctx context.Context) error {
	e.signal()
	e.joinStart.Do(func() {
		go func() {
			e.pullMu.Lock()
			defer e.pullMu.Unlock()
			e.joinLocked()
		}()
	})

	select {
	case <-e.joined:
		return e.closeErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// signal moves the engine to ShutDown unless it is already terminal, then
// stops dispatch and cancels the worker context.
func (e *Engine[I, O]) signal() {
	e.mu.Lock()
	if !e.state.terminal() {
		e.state = ShutDown
	}
	e.mu.Unlock()
	e.stop()
}

func (e *Engine[I, O]) stop() {
	e.stopOnce.Do(func() {
		close(e.done)
		e.cancel()
	})
}

// stopped reports whether shutdown or poisoning has been signalled.
func (e *Engine[I, O]) stopped() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// poison records a fatal error. The first one wins; failures reported after
// shutdown are only logged.
func (e *Engine[I, O]) poison(err error) {
	e.mu.Lock()
	if e.state.terminal() {
		state := e.state
		e.mu.Unlock()
		e.log.Debug("fatal error after stop", logger.Fields(
			logger.FieldState, state.String(),
			logger.FieldCode, string(errors.CodeOf(err)),
			logger.FieldError, err.Error(),
		))
		return
	}
	e.state = Poisoned
	e.fatal = err
	e.mu.Unlock()

	e.stop()
	e.log.Error("pipeline poisoned", logger.Fields(
		logger.FieldCode, string(errors.CodeOf(err)),
		logger.FieldError, err.Error(),
	))
	observability.RecordSpanError(e.span, err)
	e.wake()
}

// wake signals the consumer without blocking. One pending token is enough
// because the consumer re-checks everything under mu.
func (e *Engine[I, O]) wake() {
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

// joinLocked closes the task queue, waits for every worker and closes the
// source. The caller holds pullMu, so no dispatch is sending on tasks.
func (e *Engine[I, O]) joinLocked() {
	e.joinOnce.Do(func() {
		close(e.tasks)
		e.wg.Wait()
		e.closeErr = e.src.Close()

		e.mu.Lock()
		discarded := e.outstanding
		stats := Stats{Dispatched: e.nextSeq, Released: e.released}
		state := e.state
		e.mu.Unlock()

		e.metrics.RecordRelease(e.telemetry, int64(discarded))
		e.span.SetAttributes(
			attribute.Int64("pipeline.dispatched", int64(stats.Dispatched)),
			attribute.Int64("pipeline.released", int64(stats.Released)),
			attribute.String("pipeline.state", state.String()),
		)
		if e.closeErr != nil {
			e.log.Warn("source close failed", logger.ErrorFields("close", e.closeErr))
		}
		e.span.End()
		e.log.Debug("pipeline stopped", logger.Fields(
			logger.FieldState, state.String(),
			"dispatched", stats.Dispatched,
			"released", stats.Released,
			"discarded", discarded,
		))
		close(e.joined)
	})
}
