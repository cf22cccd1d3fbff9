// Package parmap implements an ordered concurrent map over a pull-based
// source: a fixed pool of workers applies a transformation to every item
// while the consumer receives outcomes strictly in input order.
//
// # Model
//
// The engine has three parts that share one mutex:
//
//   - The dispatcher runs on the consumer's call to Next. It pulls items
//     from the source, numbers them 0, 1, 2, ... and hands them to a shared
//     task queue while fewer than Workers+AdmissionBuffer tasks are
//     outstanding. The number of outstanding tasks is the only
//     backpressure signal.
//   - Workers pick tasks from the queue as they become free and apply the
//     transformation. Errors and panics become failure outcomes for that
//     item only; the worker keeps going.
//   - The reassembly window holds finished outcomes keyed by sequence
//     number until the one due next arrives, then releases it.
//
// An outcome is released only when every earlier outcome has been
// released, so a slow item delays later ones but never reorders them.
//
// # Worker state
//
// NewStateful gives each worker its own scratch value, created by a
// factory on the worker's goroutine before it takes its first task. The
// value is passed to every call that worker makes and is never shared, so
// the transformation may mutate it without locking. If it implements
// io.Closer it is closed exactly once when the worker exits.
//
// # Failures
//
// Item-level failures (ITEM_FAILED, ITEM_PANICKED, SOURCE_FAILED) are
// reported inside Outcome.Err and do not stop the engine. Infrastructure
// failures (WORKER_LOST, STATE_INIT_FAILED, PROTOCOL_VIOLATION) poison the
// engine: every later Next returns the same error.
//
// # Usage
//
//	eng, err := parmap.New(ctx, src, func(ctx context.Context, path string) (Digest, error) {
//	    return digestFile(ctx, path)
//	}, parmap.WithWorkers(8))
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	for {
//	    out, ok, err := eng.Next(ctx)
//	    if err != nil || !ok {
//	        return err
//	    }
//	    if out.Err != nil {
//	        log.Warn("item failed", logger.Fields("seq", out.Seq))
//	        continue
//	    }
//	    use(out.Value)
//	}
package parmap
