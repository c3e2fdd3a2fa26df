package tty

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/termqueue/source"
)

// scriptReader yields runes then a final error, or blocks until closed
type scriptReader struct {
	mu     sync.Mutex
	runes  []rune
	final  error
	closed chan struct{}
}

func newScriptReader(s string, final error) *scriptReader {
	return &scriptReader{runes: []rune(s), final: final, closed: make(chan struct{})}
}

func (r *scriptReader) ReadRune() (rune, error) {
	r.mu.Lock()
	if len(r.runes) > 0 {
		ch := r.runes[0]
		r.runes = r.runes[1:]
		r.mu.Unlock()
		return ch, nil
	}
	final := r.final
	r.mu.Unlock()

	if final != nil {
		return 0, final
	}
	<-r.closed
	return 0, errors.New("read on closed tty")
}

func (r *scriptReader) Close() error {
	close(r.closed)
	return nil
}

func drain(t *testing.T, s *Source) (string, error) {
	t.Helper()
	var got []rune
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		ok, err := s.Poll(20 * time.Millisecond)
		if err != nil {
			return string(got), err
		}
		if ok {
			ch, _ := s.Read()
			got = append(got, ch)
		}
	}
	t.Fatal("Timed out draining source")
	return "", nil
}

func TestSourceEOFEndsCleanly(t *testing.T) {
	r := newScriptReader("héllo", io.EOF)
	s := newSource(r, r, 4)

	got, err := drain(t, s)
	if got != "héllo" {
		t.Errorf("Expected \"héllo\", got %q", got)
	}
	if !errors.Is(err, source.ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestSourceReadErrorIsReported(t *testing.T) {
	boom := errors.New("device gone")
	r := newScriptReader("a", boom)
	s := newSource(r, r, 4)

	got, err := drain(t, s)
	if got != "a" {
		t.Errorf("Expected \"a\", got %q", got)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped read error, got %v", err)
	}
}

func TestSourceCloseIsClean(t *testing.T) {
	r := newScriptReader("", nil)
	s := newSource(r, r, 4)

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	s.Close()
	<-s.done

	if _, err := s.Poll(10 * time.Millisecond); !errors.Is(err, source.ErrClosed) {
		t.Errorf("Expected ErrClosed after Close, got %v", err)
	}
}
