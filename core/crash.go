package core

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"

	"github.com/lixenwraith/termqueue/terminal"
)

var (
	restoreMu sync.Mutex
	restore   func()

	// Overridable in tests
	crashOut  io.Writer = os.Stderr
	crashExit           = os.Exit
)

// SetRestore registers the terminal cleanup run before crash output
// Pass nil to fall back to terminal.EmergencyReset on stdout
func SetRestore(fn func()) {
	restoreMu.Lock()
	restore = fn
	restoreMu.Unlock()
}

// HandleCrash is the unified panic handler that resets the terminal and prints the stack trace
func HandleCrash(r any) {
	if r == nil {
		return
	}

	restoreMu.Lock()
	fn := restore
	restoreMu.Unlock()

	if fn != nil {
		fn()
	} else {
		terminal.EmergencyReset(os.Stdout)
	}

	// \r\n keeps output readable if the terminal is still in raw mode
	fmt.Fprintf(crashOut, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(crashOut, "Stack Trace:\r\n%s\r\n", debug.Stack())
	if f, ok := crashOut.(*os.File); ok {
		f.Sync()
	}

	crashExit(1)
}

// Go runs fn in a new goroutine with panic recovery
// A panic is passed to onCrash, or HandleCrash when onCrash is nil
func Go(fn func(), onCrash func(any)) {
	if onCrash == nil {
		onCrash = HandleCrash
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				onCrash(r)
			}
		}()
		fn()
	}()
}
