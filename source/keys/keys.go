// Package keys feeds single keypresses read through github.com/eiannone/keyboard into a queue.
package keys

import (
	"fmt"
	"log"
	"sync"

	"github.com/eiannone/keyboard"

	"github.com/lixenwraith/termqueue/source"
)

// Event is one keypress: a printable Rune with Key 0, or a special Key with Rune 0
type Event struct {
	Rune rune
	Key  keyboard.Key
}

var keyNames = map[keyboard.Key]string{
	keyboard.KeyEsc:        "esc",
	keyboard.KeyEnter:      "enter",
	keyboard.KeyTab:        "tab",
	keyboard.KeySpace:      "space",
	keyboard.KeyBackspace:  "backspace",
	keyboard.KeyBackspace2: "backspace",
	keyboard.KeyCtrlC:      "ctrl+c",
	keyboard.KeyDelete:     "delete",
	keyboard.KeyHome:       "home",
	keyboard.KeyArrowUp:    "up",
	keyboard.KeyArrowDown:  "down",
	keyboard.KeyArrowLeft:  "left",
	keyboard.KeyArrowRight: "right",
}

func (e Event) String() string {
	if e.Key == 0 {
		return string(e.Rune)
	}
	if name, ok := keyNames[e.Key]; ok {
		return name
	}
	return fmt.Sprintf("key(0x%04x)", uint16(e.Key))
}

// Source delivers keypresses from the process's console
type Source struct {
	*source.Chan[Event]

	release   func() error
	closeOnce sync.Once
	closeErr  error
}

// Open puts the console in raw mode and starts reading keys
// The keyboard package is process-global: only one Source may be open at a time
func Open(buffer int) (*Source, error) {
	events, err := keyboard.GetKeys(buffer)
	if err != nil {
		return nil, fmt.Errorf("keys: open keyboard: %w", err)
	}
	return newSource(events, buffer, keyboard.Close), nil
}

func newSource(events <-chan keyboard.KeyEvent, buffer int, release func() error) *Source {
	s := &Source{
		Chan:    source.NewChan[Event](buffer),
		release: release,
	}
	go s.pump(events)
	return s
}

func (s *Source) pump(events <-chan keyboard.KeyEvent) {
	defer s.Chan.Close()
	for ke := range events {
		if ke.Err != nil {
			// Unrecognized escape sequences are reported per key, the stream stays usable
			log.Printf("[keys] dropped key: %v", ke.Err)
			continue
		}
		if !s.Push(Event{Rune: ke.Rune, Key: ke.Key}) {
			return
		}
	}
}

// Close ends the stream and restores the console
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.Chan.Close()
		if s.release != nil {
			s.closeErr = s.release()
		}
	})
	return s.closeErr
}
