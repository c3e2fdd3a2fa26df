package source

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNoEvent is returned by Read when Poll did not report an event first
	ErrNoEvent = errors.New("source: read without a polled event")
	// ErrClosed is reported by Poll once a source closed without a specific error
	ErrClosed = errors.New("source: closed")
)

// Chan is a buffered event channel exposing Poll/Read
// Push/Close/Interrupt may be called from any goroutine; Poll/Read from the single poller
type Chan[E any] struct {
	ch chan E

	closed    chan struct{}
	closeOnce sync.Once
	err       error // Set once before closed is closed

	interrupt     chan struct{}
	interruptOnce sync.Once

	next    E
	hasNext bool
}

// NewChan creates a source buffering up to buffer events before Push blocks
func NewChan[E any](buffer int) *Chan[E] {
	return &Chan[E]{
		ch:        make(chan E, buffer),
		closed:    make(chan struct{}),
		interrupt: make(chan struct{}),
	}
}

// Push delivers e, blocking while the buffer is full
// Returns false if the source was closed first
func (c *Chan[E]) Push(e E) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.ch <- e:
		return true
	case <-c.closed:
		return false
	}
}

// TryPush delivers e only if buffer space is available
func (c *Chan[E]) TryPush(e E) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.ch <- e:
		return true
	default:
		return false
	}
}

// Close ends the stream; Poll reports ErrClosed after buffered events drain
func (c *Chan[E]) Close() {
	c.CloseWithError(nil)
}

// CloseWithError ends the stream with err (ErrClosed when nil). First call wins
func (c *Chan[E]) CloseWithError(err error) {
	c.closeOnce.Do(func() {
		if err == nil {
			err = ErrClosed
		}
		c.err = err
		close(c.closed)
	})
}

// Interrupt makes the current and later Poll calls return false promptly
func (c *Chan[E]) Interrupt() {
	c.interruptOnce.Do(func() {
		close(c.interrupt)
	})
}

// Poll waits up to timeout for an event
func (c *Chan[E]) Poll(timeout time.Duration) (bool, error) {
	if c.hasNext {
		return true, nil
	}

	// Buffered events win over close and interrupt
	select {
	case e := <-c.ch:
		c.next, c.hasNext = e, true
		return true, nil
	default:
	}

	select {
	case <-c.interrupt:
		return false, nil
	default:
	}

	select {
	case <-c.closed:
		return false, c.err
	default:
	}

	if timeout <= 0 {
		return false, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case e := <-c.ch:
		c.next, c.hasNext = e, true
		return true, nil
	case <-c.closed:
		// Push may have landed just before close
		select {
		case e := <-c.ch:
			c.next, c.hasNext = e, true
			return true, nil
		default:
			return false, c.err
		}
	case <-c.interrupt:
		return false, nil
	case <-timer.C:
		return false, nil
	}
}

// Read returns the event taken by the last successful Poll; never blocks
func (c *Chan[E]) Read() (E, error) {
	if !c.hasNext {
		var zero E
		return zero, ErrNoEvent
	}
	e := c.next
	var zero E
	c.next, c.hasNext = zero, false
	return e, nil
}
