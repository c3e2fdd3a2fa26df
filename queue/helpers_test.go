package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/termqueue/status"
)

// scriptSource replays arrivals on a mock clock
// Each Poll advances the clock to the next arrival or by the full timeout, so flush
// decisions are deterministic regardless of scheduling
type scriptSource struct {
	clock    *MockClock
	start    time.Time
	arrivals []time.Duration

	mu       sync.Mutex
	next     int
	timeouts []time.Duration
}

func newScriptSource(clock *MockClock, arrivals ...time.Duration) *scriptSource {
	return &scriptSource{clock: clock, start: clock.Now(), arrivals: arrivals}
}

func (s *scriptSource) Poll(timeout time.Duration) (bool, error) {
	s.mu.Lock()
	s.timeouts = append(s.timeouts, timeout)
	next := s.next
	s.mu.Unlock()

	now := s.clock.Now()
	if next < len(s.arrivals) {
		at := s.start.Add(s.arrivals[next])
		if !at.After(now.Add(timeout)) {
			s.clock.Set(at)
			return true, nil
		}
		s.clock.Advance(timeout)
		return false, nil
	}

	// Script exhausted: keep mock time moving without spinning
	time.Sleep(time.Millisecond)
	s.clock.Advance(timeout)
	return false, nil
}

func (s *scriptSource) Read() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.next
	s.next++
	return i, nil
}

func (s *scriptSource) recordedTimeouts() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.timeouts...)
}

// pushSource is a real-time channel source
type pushSource struct {
	ch        chan int
	interrupt chan struct{}
	once      sync.Once

	mu      sync.Mutex
	failAt  int // Poll errors once this many events were read; 0 disables
	failErr error
	read    int

	held    int
	hasHeld bool
}

func newPushSource(buffer int) *pushSource {
	return &pushSource{
		ch:        make(chan int, buffer),
		interrupt: make(chan struct{}),
	}
}

func (p *pushSource) failAfter(n int, err error) {
	p.mu.Lock()
	p.failAt, p.failErr = n, err
	p.mu.Unlock()
}

func (p *pushSource) Poll(timeout time.Duration) (bool, error) {
	p.mu.Lock()
	if p.failErr != nil && p.read >= p.failAt {
		err := p.failErr
		p.mu.Unlock()
		return false, err
	}
	p.mu.Unlock()

	if p.hasHeld {
		return true, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-p.ch:
		p.held, p.hasHeld = v, true
		return true, nil
	case <-p.interrupt:
		return false, nil
	case <-timer.C:
		return false, nil
	}
}

func (p *pushSource) Read() (int, error) {
	p.hasHeld = false
	p.mu.Lock()
	p.read++
	p.mu.Unlock()
	return p.held, nil
}

func (p *pushSource) Interrupt() {
	p.once.Do(func() { close(p.interrupt) })
}

// flushRecord captures poller flushes in mock time
type flushRecord struct {
	mu    sync.Mutex
	at    []time.Time
	sizes []int
}

func (f *flushRecord) hook(at time.Time, size int) {
	f.mu.Lock()
	f.at = append(f.at, at)
	f.sizes = append(f.sizes, size)
	f.mu.Unlock()
}

func (f *flushRecord) snapshot() ([]time.Time, []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.at...), append([]int(nil), f.sizes...)
}

// startScripted builds a queue on a mock clock with a flush recorder attached
func startScripted(t *testing.T, cfg Config, arrivals ...time.Duration) (*Queue[int], *scriptSource, *flushRecord) {
	t.Helper()
	clock := NewMockClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	src := newScriptSource(clock, arrivals...)
	rec := &flushRecord{}

	q := newQueue[int](src, cfg, options{
		clock:    clock,
		registry: status.NewRegistry(),
		onCrash: func(r any) {
			t.Errorf("Unexpected producer crash: %v", r)
		},
		onFlush: rec.hook,
	})
	q.launch()
	t.Cleanup(func() { q.Stop() })
	return q, src, rec
}

// collectEvents receives until want events arrived or timeout, returning event batches in order
func collectEvents(t *testing.T, q *Queue[int], want int, timeout time.Duration) []Batch[int] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var batches []Batch[int]
	got := 0
	for got < want {
		b, err := q.RecvContext(ctx)
		if err != nil {
			t.Fatalf("Received %d of %d events before: %v", got, want, err)
		}
		if len(b) == 0 {
			t.Fatal("Received empty batch")
		}
		if b.IsTick() {
			continue
		}
		batches = append(batches, b)
		got += len(b.Events())
	}
	return batches
}

func testConfig() Config {
	return Config{
		IdlePollTimeout:    DefaultIdlePollTimeout,
		PendingPollTimeout: DefaultPendingPollTimeout,
		BatchWindow:        DefaultBatchWindow,
		TickPeriod:         time.Hour,
		FaultPolicy:        FaultDeliver,
	}
}
