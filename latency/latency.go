// Package latency summarizes how the queue's poller flushes: spacing between input
// batches and batch sizes, over a sliding window of recent flushes.
package latency

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lixenwraith/termqueue/status"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the number of recent flushes kept for the summary
const DefaultWindow = 1024

// Summary is a point-in-time view of recorded flushes
type Summary struct {
	Batches int // Total flushes observed, not limited by the window
	Events  int // Total events in those flushes

	IntervalMean   time.Duration
	IntervalStdDev time.Duration
	IntervalP50    time.Duration
	IntervalP95    time.Duration
	IntervalMax    time.Duration

	SizeMean float64
	SizeP95  float64
	SizeMax  float64
}

func (s Summary) String() string {
	return fmt.Sprintf("batches=%d events=%d interval mean=%v sd=%v p50=%v p95=%v max=%v size mean=%.1f p95=%.0f max=%.0f",
		s.Batches, s.Events,
		s.IntervalMean, s.IntervalStdDev, s.IntervalP50, s.IntervalP95, s.IntervalMax,
		s.SizeMean, s.SizeP95, s.SizeMax)
}

// Recorder collects flush observations; safe for concurrent use
// Observe matches queue.WithFlushObserver
type Recorder struct {
	mu     sync.Mutex
	window int

	last      time.Time
	intervals []float64 // Milliseconds between consecutive flushes
	sizes     []float64

	batches int
	events  int
}

// NewRecorder keeps the last window flushes (DefaultWindow when <= 0)
func NewRecorder(window int) *Recorder {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Recorder{window: window}
}

// Observe records one flush of size events at time at
func (r *Recorder) Observe(at time.Time, size int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.last.IsZero() {
		r.intervals = appendWindow(r.intervals, float64(at.Sub(r.last))/float64(time.Millisecond), r.window)
	}
	r.last = at
	r.sizes = appendWindow(r.sizes, float64(size), r.window)
	r.batches++
	r.events += size
}

func appendWindow(xs []float64, v float64, window int) []float64 {
	if len(xs) >= window {
		copy(xs, xs[1:])
		xs = xs[:len(xs)-1]
	}
	return append(xs, v)
}

// Summary computes statistics over the current window
func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	intervals := append([]float64(nil), r.intervals...)
	sizes := append([]float64(nil), r.sizes...)
	s := Summary{Batches: r.batches, Events: r.events}
	r.mu.Unlock()

	if len(intervals) > 0 {
		sort.Float64s(intervals)
		s.IntervalMean = millis(stat.Mean(intervals, nil))
		if len(intervals) > 1 {
			s.IntervalStdDev = millis(stat.StdDev(intervals, nil))
		}
		s.IntervalP50 = millis(stat.Quantile(0.5, stat.Empirical, intervals, nil))
		s.IntervalP95 = millis(stat.Quantile(0.95, stat.Empirical, intervals, nil))
		s.IntervalMax = millis(floats.Max(intervals))
	}

	if len(sizes) > 0 {
		sort.Float64s(sizes)
		s.SizeMean = stat.Mean(sizes, nil)
		s.SizeP95 = stat.Quantile(0.95, stat.Empirical, sizes, nil)
		s.SizeMax = floats.Max(sizes)
	}
	return s
}

// Publish copies the current summary into reg's float metrics under "latency."
func (r *Recorder) Publish(reg *status.Registry) {
	s := r.Summary()
	reg.Floats.Get("latency.interval_mean_ms").Set(ms(s.IntervalMean))
	reg.Floats.Get("latency.interval_p95_ms").Set(ms(s.IntervalP95))
	reg.Floats.Get("latency.interval_max_ms").Set(ms(s.IntervalMax))
	reg.Floats.Get("latency.size_mean").Set(s.SizeMean)
	reg.Floats.Get("latency.size_p95").Set(s.SizeP95)
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
