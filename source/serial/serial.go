// Package serial feeds bytes from a serial line (github.com/tarm/serial) into a queue.
package serial

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	tarm "github.com/tarm/serial"

	"github.com/lixenwraith/termqueue/source"
)

const (
	DefaultBaud = 115200
	// readTimeout bounds each port read so Close is noticed without data on the line
	readTimeout = 100 * time.Millisecond
	readBufSize = 256
)

// Config selects the port
type Config struct {
	Name string
	Baud int
}

// Source delivers each received byte as one event
type Source struct {
	*source.Chan[byte]

	port io.ReadCloser
	// A timed-out port read surfaces as io.EOF; only true for real ports
	eofIsIdle bool

	closeOnce sync.Once
	closing   chan struct{}
	done      chan struct{}
}

// Open opens the port and starts reading
func Open(cfg Config, buffer int) (*Source, error) {
	if cfg.Name == "" {
		return nil, errors.New("serial: port name required")
	}
	if cfg.Baud <= 0 {
		cfg.Baud = DefaultBaud
	}
	port, err := tarm.OpenPort(&tarm.Config{
		Name:        cfg.Name,
		Baud:        cfg.Baud,
		ReadTimeout: readTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.Name, err)
	}
	return newSource(port, true, buffer), nil
}

func newSource(port io.ReadCloser, eofIsIdle bool, buffer int) *Source {
	s := &Source{
		Chan:      source.NewChan[byte](buffer),
		port:      port,
		eofIsIdle: eofIsIdle,
		closing:   make(chan struct{}),
		done:      make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *Source) pump() {
	defer close(s.done)
	buf := make([]byte, readBufSize)
	for {
		n, err := s.port.Read(buf)
		for _, b := range buf[:n] {
			if !s.Push(b) {
				return
			}
		}

		select {
		case <-s.closing:
			s.Chan.Close()
			return
		default:
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF) && s.eofIsIdle:
		case errors.Is(err, io.EOF):
			s.Chan.Close()
			return
		default:
			s.CloseWithError(fmt.Errorf("serial: read: %w", err))
			return
		}
	}
}

// Close stops reading and closes the port
func (s *Source) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closing)
		s.Chan.Close()
		err = s.port.Close()
		<-s.done
	})
	return err
}
