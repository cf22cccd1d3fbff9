// Package errors provides the error taxonomy shared by every stage of the
// library.
//
// Errors fall into two classes. Item-level errors (a transformation failed or
// panicked for one element, or the upstream source failed to produce one) are
// carried inside the outcome stream and never affect sibling elements.
// Fatal errors (protocol violations and lost workers) poison a pipeline and
// are returned from every subsequent pull.
//
//	out, ok, err := it.Next(ctx)
//	if errors.IsFatal(err) {
//	    // the pipeline will make no further progress
//	}
//	if out.Err != nil {
//	    seq, _ := errors.SequenceOf(out.Err)
//	    log.Warn("item failed", logger.Fields("seq", seq))
//	}
package errors
