// Package pipeline provides composable, pull-based data pipeline operators.
//
// Pipelines are lazy: no work happens until values are pulled via Collect,
// Drain, ForEach or Seq. Each stage pulls from the previous stage on demand,
// providing natural backpressure without explicit flow control.
//
// The Iterator interface has the same method set as parmap.Source, so any
// pipeline stage can feed an ordered concurrent map.
//
// # Sources
//
//   - FromSlice, From, FromFunc: wrap existing values or iterators
//   - FromSeq: adapt a standard library iter.Seq
//   - Generate: an infinite sequence produced by a function
//   - Range: integers in [start, end)
//
// # Operators
//
// Synchronous (single-goroutine):
//
//   - Map: transform each value
//   - StatefulMap: transform each value, threading one mutable state
//   - Filter: keep values matching a predicate
//   - Take, Skip: bound or offset the sequence
//   - Tap: side-effect without altering the value
//   - Concat: join pipelines sequentially
//   - Interleave: alternate two pipelines
//   - FilterLog: unwrap parmap outcomes, logging and dropping failures
//
// Concurrent (multi-goroutine):
//
//   - Buffered: prefetch into a bounded queue on a producer goroutine
//   - ParMap, StatefulParMap: ordered concurrent map on a worker pool
//
// # Terminals
//
// Collect, Drain, ForEach, Seq and Bucket run a pipeline; Iter hands out the
// raw iterator.
//
// # Usage
//
//	hashes := pipeline.ParMap(pipeline.FromSlice(paths), digest, parmap.WithWorkers(8))
//	for sum, err := range pipeline.Seq(ctx, pipeline.FilterLog(hashes, log)) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(sum)
//	}
package pipeline
