package terminal

import (
	"errors"
	"sync/atomic"
	"time"
)

// escapeTimeout is the duration to wait after a partial sequence (typically a lone ESC)
// before resolving it with what has arrived
const escapeTimeout = 50 * time.Millisecond

// interruptSlice bounds a single backend wait so Interrupt is noticed promptly
const interruptSlice = 50 * time.Millisecond

// ErrNoEvent is returned by Read when Poll did not report an event first
var ErrNoEvent = errors.New("terminal: read without a polled event")

// Source decodes terminal input into key events
// Poll and Read must be called from one goroutine; Interrupt and Close from any
type Source struct {
	backend     Backend
	readBuf     []byte
	buf         []byte // Undecoded bytes, at most one partial sequence
	pending     []Event
	interrupted atomic.Bool
	closed      atomic.Bool
}

// Open puts stdin in raw mode and returns a source reading from it
func Open() (*Source, error) {
	b := newBackend()
	if err := b.Init(); err != nil {
		return nil, err
	}
	return NewSource(b), nil
}

// NewSource wraps an initialized backend
func NewSource(b Backend) *Source {
	return &Source{
		backend: b,
		readBuf: make([]byte, 256),
		buf:     make([]byte, 0, 256),
	}
}

// Poll reports whether a decoded event is available within timeout
func (s *Source) Poll(timeout time.Duration) (bool, error) {
	if len(s.pending) > 0 {
		return true, nil
	}

	deadline := time.Now().Add(timeout)
	for {
		if s.interrupted.Load() {
			return false, nil
		}

		remaining := time.Until(deadline)
		wait := min(max(remaining, 0), interruptSlice)

		ready, err := s.backend.Wait(wait)
		if err != nil {
			return false, err
		}

		if ready {
			n, err := s.backend.Read(s.readBuf)
			if err != nil {
				return false, err
			}
			s.buf = append(s.buf, s.readBuf[:n]...)
			s.decode(false)
			if len(s.pending) > 0 {
				return true, nil
			}
			if len(s.buf) > 0 {
				// Partial sequence: resolve it soon rather than at the caller's deadline
				if d := time.Now().Add(escapeTimeout); d.Before(deadline) {
					deadline = d
				}
			}
			continue
		}

		if remaining <= wait {
			if len(s.buf) > 0 {
				s.decode(true)
			}
			return len(s.pending) > 0, nil
		}
	}
}

// Read pops the next decoded event; never touches the fd
func (s *Source) Read() (Event, error) {
	if len(s.pending) == 0 {
		return Event{}, ErrNoEvent
	}
	ev := s.pending[0]
	s.pending = s.pending[1:]
	if len(s.pending) == 0 {
		s.pending = s.pending[:0:0]
	}
	return ev, nil
}

// Interrupt makes the current and later Poll calls return promptly
func (s *Source) Interrupt() {
	s.interrupted.Store(true)
}

// Close restores the terminal. Safe to call multiple times
func (s *Source) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.backend.Fini()
	}
	return nil
}

func (s *Source) decode(final bool) {
	consumed := parseInput(s.buf, final, func(ev Event) {
		s.pending = append(s.pending, ev)
	})
	if consumed >= len(s.buf) {
		s.buf = s.buf[:0]
		return
	}
	copy(s.buf, s.buf[consumed:])
	s.buf = s.buf[:len(s.buf)-consumed]
}
