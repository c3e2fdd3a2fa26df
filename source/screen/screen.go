// Package screen feeds tcell screen events into a queue.
package screen

import (
	"errors"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/termqueue/source"
)

// ErrFinalized is reported by Poll once the screen was finalized
var ErrFinalized = errors.New("screen: finalized")

// DefaultBuffer matches the event channel depth of a typical tcell main loop
const DefaultBuffer = 100

// Source delivers tcell.Event values (keys, mouse, resize, paste) from a screen
// The screen must not be polled elsewhere while the source is open
type Source struct {
	*source.Chan[tcell.Event]

	screen    tcell.Screen
	quit      chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// New starts pumping events from an initialized screen
func New(s tcell.Screen, buffer int) *Source {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	src := &Source{
		Chan:   source.NewChan[tcell.Event](buffer),
		screen: s,
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go src.pump()
	return src
}

func (s *Source) pump() {
	defer close(s.done)

	events := make(chan tcell.Event)
	go s.screen.ChannelEvents(events, s.quit)

	for ev := range events {
		if !s.Push(ev) {
			return
		}
	}

	select {
	case <-s.quit:
		s.Chan.Close()
	default:
		// Channel closed without quit: the screen went through Fini
		s.CloseWithError(ErrFinalized)
	}
}

// Close stops the pump and ends the stream; the screen itself stays owned by the caller
func (s *Source) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		// Unblocks a Push waiting on a full buffer nobody polls anymore
		s.Chan.Close()
	})
	<-s.done
}
