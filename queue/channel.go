package queue

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrEmptyBatch   = errors.New("empty batch")
	ErrClosed       = errors.New("channel closed")
	ErrReceiverGone = errors.New("receiver dropped")
)

// Channel is an unbounded multi-producer single-consumer FIFO of batches
// Thread-Safety:
//   - Send: any number of goroutines, never blocks on capacity
//   - Recv/TryRecv/RecvContext: single consumer
//
// Delivery order is Send order; concurrent senders are not prioritized
type Channel[E any] struct {
	mu      sync.Mutex
	items   []Batch[E]
	closed  bool
	dropped bool

	// 1-slot wakeup; a pending signal survives until the consumer checks items
	notify chan struct{}
}

// NewChannel creates an empty open channel
func NewChannel[E any]() *Channel[E] {
	return &Channel[E]{
		items:  make([]Batch[E], 0, 16),
		notify: make(chan struct{}, 1),
	}
}

// Send appends b, ownership passes to the channel
func (c *Channel[E]) Send(b Batch[E]) error {
	if len(b) == 0 {
		return ErrEmptyBatch
	}

	c.mu.Lock()
	switch {
	case c.dropped:
		c.mu.Unlock()
		return ErrReceiverGone
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	}
	c.items = append(c.items, b)
	c.mu.Unlock()

	c.wake()
	return nil
}

// Recv blocks until a batch is available
// Returns false once the channel is closed and drained
func (c *Channel[E]) Recv() (Batch[E], bool) {
	b, err := c.RecvContext(context.Background())
	return b, err == nil
}

// TryRecv returns the next batch without blocking
func (c *Channel[E]) TryRecv() (Batch[E], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.popLocked()
}

// RecvContext blocks until a batch is available, ctx is done, or the channel is closed and drained
func (c *Channel[E]) RecvContext(ctx context.Context) (Batch[E], error) {
	for {
		c.mu.Lock()
		if b, ok := c.popLocked(); ok {
			c.mu.Unlock()
			return b, nil
		}
		if c.closed || c.dropped {
			c.mu.Unlock()
			return nil, ErrClosed
		}
		c.mu.Unlock()

		select {
		case <-c.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len returns the number of undelivered batches
func (c *Channel[E]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close shuts the send side; queued batches remain receivable. Idempotent
func (c *Channel[E]) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wake()
}

// Drop abandons the receive end: pending batches are discarded and later sends fail
func (c *Channel[E]) Drop() {
	c.mu.Lock()
	c.dropped = true
	c.items = nil
	c.mu.Unlock()
	c.wake()
}

func (c *Channel[E]) popLocked() (Batch[E], bool) {
	if len(c.items) == 0 {
		return nil, false
	}
	b := c.items[0]
	c.items[0] = nil
	c.items = c.items[1:]
	if len(c.items) == 0 {
		// Reclaim backing array once drained
		c.items = c.items[:0:0]
	}
	return b, true
}

func (c *Channel[E]) wake() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}
