package queue

import "time"

// Source is the upstream input capability the poller drains
//
// Contract: Read is only called immediately after Poll returned true, and must not block
// in that case. The latency bounds of the poller assume it; a Read that blocks becomes an
// extra unbounded suspension point. Each adapter documents how it guarantees this.
type Source[E any] interface {
	// Poll reports whether an event is available within timeout
	// A clean timeout is (false, nil); any error is a fault
	Poll(timeout time.Duration) (bool, error)

	// Read returns the next available event
	Read() (E, error)
}

// Interrupter is implemented by sources that can wake a blocked Poll
// Queue.Stop calls it so the poller does not sit out an idle timeout
type Interrupter interface {
	Interrupt()
}

// pollOnce polls for up to timeout and reads the event if one is ready
func pollOnce[E any](src Source[E], timeout time.Duration) (ev E, ok bool, err error) {
	ready, err := src.Poll(timeout)
	if err != nil || !ready {
		return ev, false, err
	}
	ev, err = src.Read()
	if err != nil {
		return ev, false, err
	}
	return ev, true, nil
}
