// Package tty feeds runes read from the controlling terminal via github.com/mattn/go-tty.
package tty

import (
	"errors"
	"fmt"
	"io"
	"sync"

	gotty "github.com/mattn/go-tty"

	"github.com/lixenwraith/termqueue/source"
)

// runeReader is the part of *gotty.TTY the pump needs
type runeReader interface {
	ReadRune() (rune, error)
}

// Source delivers runes typed on the terminal
type Source struct {
	*source.Chan[rune]

	closer    io.Closer
	closeOnce sync.Once
	closing   chan struct{}
	done      chan struct{}
}

// Open opens the controlling terminal in raw mode
func Open(buffer int) (*Source, error) {
	t, err := gotty.Open()
	if err != nil {
		return nil, fmt.Errorf("tty: open: %w", err)
	}
	return newSource(t, t, buffer), nil
}

func newSource(r runeReader, c io.Closer, buffer int) *Source {
	s := &Source{
		Chan:    source.NewChan[rune](buffer),
		closer:  c,
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.pump(r)
	return s
}

func (s *Source) pump(r runeReader) {
	defer close(s.done)
	for {
		ch, err := r.ReadRune()
		if err != nil {
			select {
			case <-s.closing:
				s.Chan.Close()
			default:
				if errors.Is(err, io.EOF) {
					s.Chan.Close()
				} else {
					s.CloseWithError(fmt.Errorf("tty: read: %w", err))
				}
			}
			return
		}
		if !s.Push(ch) {
			return
		}
	}
}

// Close restores the terminal; a read error caused by closing ends the stream cleanly
func (s *Source) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closing)
		s.Chan.Close()
		err = s.closer.Close()
	})
	return err
}
