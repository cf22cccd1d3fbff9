package pipeline

import "context"

// Buffered prefetches up to capacity values from p on a separate goroutine,
// decoupling the producer's rate from the consumer's. Order is preserved.
// A capacity below 1 is treated as 1.
func Buffered[T any](p *Pipeline[T], capacity int) *Pipeline[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			source := p.create(ctx)
			bufCtx, cancel := context.WithCancel(ctx)
			ch := make(chan result[T], capacity)
			stopped := make(chan struct{})

			go func() {
				defer close(stopped)
				defer close(ch)
				for {
					val, ok, err := source.Next(bufCtx)
					if err != nil {
						select {
						case ch <- result[T]{err: err}:
						case <-bufCtx.Done():
						}
						return
					}
					if !ok {
						return
					}
					select {
					case ch <- result[T]{val: val, ok: true}:
					case <-bufCtx.Done():
						return
					}
				}
			}()

			return &channelIter[T]{
				ch: ch,
				closer: func() error {
					cancel()
					// The producer may be inside source.Next.
					<-stopped
					return source.Close()
				},
			}
		},
	}
}
