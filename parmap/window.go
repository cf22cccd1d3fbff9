package parmap

import (
	"github.com/adamthedash/iterators/errors"
)

// window holds finished outcomes until they can be released in order.
// Every key is >= next and no key appears twice.
type window[O any] struct {
	pending map[uint64]Outcome[O]
	next    uint64
	limit   int
}

func newWindow[O any](limit int) *window[O] {
	return &window[O]{
		pending: make(map[uint64]Outcome[O], limit),
		limit:   limit,
	}
}

// insert stores an outcome. A sequence number that was already released,
// is already pending, or would grow the window past its limit breaks the
// sequencing protocol.
func (w *window[O]) insert(o Outcome[O]) error {
	if o.Seq < w.next {
		return errors.ProtocolViolation("outcome %d arrived after %d was released", o.Seq, w.next-1)
	}
	if _, dup := w.pending[o.Seq]; dup {
		return errors.ProtocolViolation("duplicate outcome for sequence %d", o.Seq)
	}
	if len(w.pending) >= w.limit {
		return errors.ProtocolViolation("reassembly window full (%d outcomes) at sequence %d", len(w.pending), o.Seq)
	}
	w.pending[o.Seq] = o
	return nil
}

// pop removes and returns the outcome due next, if it has arrived.
func (w *window[O]) pop() (Outcome[O], bool) {
	o, ok := w.pending[w.next]
	if !ok {
		return o, false
	}
	delete(w.pending, w.next)
	w.next++
	return o, true
}

func (w *window[O]) len() int { return len(w.pending) }
