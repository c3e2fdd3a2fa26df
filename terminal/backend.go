package terminal

import (
	"errors"
	"time"
)

// ErrNotTerminal is returned when stdin is not attached to a terminal
var ErrNotTerminal = errors.New("stdin is not a terminal")

// Backend abstracts the platform input fd
type Backend interface {
	// Init enters raw mode
	Init() error

	// Fini restores the saved terminal state. Safe to call multiple times
	Fini()

	// Wait reports whether input is readable within timeout
	Wait(timeout time.Duration) (bool, error)

	// Read reads available bytes into p; only called after Wait returned true
	Read(p []byte) (int, error)
}
