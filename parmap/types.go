package parmap

import "context"

// Source is the upstream sequence an engine pulls from. It has the same
// shape as pipeline.Iterator, so any pipeline stage can feed an engine.
type Source[T any] interface {
	// Next returns the next item, or (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases the source. The engine calls it once, after every
	// worker has exited.
	Close() error
}

// Func transforms one item.
type Func[I, O any] func(ctx context.Context, item I) (O, error)

// StatefulFunc transforms one item using the calling worker's own state.
type StatefulFunc[S, I, O any] func(ctx context.Context, state S, item I) (O, error)

// StateFactory creates the state of one worker. worker is in [0, Workers).
type StateFactory[S any] func(ctx context.Context, worker int) (S, error)

// Outcome is the result for the item with sequence number Seq. A nil Err
// means Value holds the transformed item; otherwise Err is an
// *errors.AppError describing the failure.
type Outcome[O any] struct {
	Seq   uint64
	Value O
	Err   error
}

// OK reports whether the outcome is a success.
func (o Outcome[O]) OK() bool { return o.Err == nil }

// task is one numbered item on its way to a worker.
type task[I any] struct {
	seq  uint64
	item I
}

// Stats is a snapshot of an engine's counters.
type Stats struct {
	// Dispatched is the number of sequence numbers assigned so far.
	Dispatched uint64
	// Released is the number of outcomes returned by Next.
	Released uint64
	// Outstanding counts tasks dispatched but not yet released.
	Outstanding int
	// Pending counts finished outcomes waiting in the reassembly window.
	Pending int
	// MaxInFlight is Workers + AdmissionBuffer.
	MaxInFlight int
}
