package main

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/termqueue/queue"
	"github.com/lixenwraith/termqueue/trace"
)

// view presents received batches
type view[E any] interface {
	show(at time.Time, b queue.Batch[E])
	fault(err error)
}

// consumer is the receive side of the demo: one batch at a time, in delivery order
type consumer[E any] struct {
	view  view[E]
	trace *trace.Writer[E]
	bell  *bell
	quit  func(E) bool // Reports an event that ends the session

	received *atomic.Int64
	publish  func() // Refreshes derived metrics after each batch
}

// run receives until quit, a delivered fault, queue close or ctx cancellation
// Returns the delivered fault, nil otherwise
func (c *consumer[E]) run(ctx context.Context, q *queue.Queue[E]) error {
	for {
		b, err := q.RecvContext(ctx)
		if err != nil {
			if !errors.Is(err, queue.ErrClosed) {
				log.Printf("termqueue: receive ended: %v", err)
			}
			return nil
		}

		now := time.Now()
		if c.received != nil {
			c.received.Add(1)
		}
		if c.publish != nil {
			c.publish()
		}
		if c.trace != nil {
			if err := c.trace.Write(now, b); err != nil {
				log.Printf("termqueue: %v", err)
			}
		}

		if ferr := b.Fault(); ferr != nil {
			c.view.fault(ferr)
			return ferr
		}
		c.view.show(now, b)

		events := b.Events()
		if len(events) > 0 {
			c.bell.ring(len(events))
		}
		if c.quit != nil {
			for _, e := range events {
				if c.quit(e) {
					return nil
				}
			}
		}
	}
}
