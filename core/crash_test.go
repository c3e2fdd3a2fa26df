package core

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGoRecoversIntoHandler(t *testing.T) {
	var (
		mu  sync.Mutex
		got any
	)
	done := make(chan struct{})

	Go(func() {
		panic("producer failed")
	}, func(r any) {
		mu.Lock()
		got = r
		mu.Unlock()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("crash handler not called")
	}

	mu.Lock()
	defer mu.Unlock()
	if got != "producer failed" {
		t.Errorf("Expected recovered value 'producer failed', got %v", got)
	}
}

func TestGoWithoutPanic(t *testing.T) {
	ran := make(chan struct{})
	Go(func() { close(ran) }, func(r any) {
		t.Errorf("Unexpected crash: %v", r)
	})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("function did not run")
	}
}

func TestHandleCrashRestoresAndExits(t *testing.T) {
	var out bytes.Buffer
	exitCode := -1
	restored := false

	oldOut, oldExit := crashOut, crashExit
	crashOut = &out
	crashExit = func(code int) { exitCode = code }
	SetRestore(func() { restored = true })
	defer func() {
		crashOut, crashExit = oldOut, oldExit
		SetRestore(nil)
	}()

	HandleCrash("boom")

	if !restored {
		t.Error("Expected restore hook to run")
	}
	if exitCode != 1 {
		t.Errorf("Expected exit code 1, got %d", exitCode)
	}
	if !strings.Contains(out.String(), "CRASH DETECTED: boom") {
		t.Errorf("Expected crash banner, got %q", out.String())
	}
}

func TestHandleCrashNil(t *testing.T) {
	oldExit := crashExit
	called := false
	crashExit = func(int) { called = true }
	defer func() { crashExit = oldExit }()

	HandleCrash(nil)
	if called {
		t.Error("Expected nil panic value to be ignored")
	}
}
