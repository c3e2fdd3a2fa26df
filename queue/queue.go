package queue

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/termqueue/core"
	"github.com/lixenwraith/termqueue/status"
)

var ErrNilSource = errors.New("nil source")

// ProducerError identifies which producer failed
type ProducerError struct {
	Producer string // "poller" or "ticker"
	Err      error
}

func (e *ProducerError) Error() string {
	return e.Producer + ": " + e.Err.Error()
}

func (e *ProducerError) Unwrap() error {
	return e.Err
}

// Option configures collaborators of a Queue
type Option func(*options)

type options struct {
	clock    Clock
	registry *status.Registry
	onCrash  func(any)
	onFlush  func(at time.Time, size int)
}

// WithClock replaces the poller's clock, used for deterministic tests
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithRegistry publishes queue counters into r
func WithRegistry(r *status.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithCrashHandler replaces core.HandleCrash for producer panics under FaultCrash
func WithCrashHandler(fn func(any)) Option {
	return func(o *options) { o.onCrash = fn }
}

// WithFlushObserver calls fn on the poller goroutine after every input batch was sent,
// with the flush time and batch size. fn must not block
func WithFlushObserver(fn func(at time.Time, size int)) Option {
	return func(o *options) { o.onFlush = fn }
}

// Queue is the consumer's handle: the receive end of the batch channel plus the stop token
// for both producers
type Queue[E any] struct {
	src     Source[E]
	cfg     Config
	clock   Clock
	onCrash func(any)
	ch      *Channel[E]

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	done     chan struct{}

	errMu sync.Mutex
	err   error

	registry      *status.Registry
	statBatches   *atomic.Int64
	statEvents    *atomic.Int64
	statTicks     *atomic.Int64
	statFaults    *atomic.Int64
	statLastBatch *atomic.Int64
	statMaxBatch  *atomic.Int64

	onFlush func(at time.Time, size int)
}

// Start builds the channel and launches the poller and ticker goroutines
// Each call yields an independent queue with its own producers; sharing one Source
// between two queues is not synchronized
func Start[E any](src Source[E], cfg Config, opts ...Option) (*Queue[E], error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{clock: SystemClock{}, onCrash: core.HandleCrash}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = status.NewRegistry()
	}

	q := newQueue(src, cfg, o)
	q.launch()

	log.Printf("[queue] started (idle poll %v, pending poll %v, batch window %v, tick %v, faults %v)",
		cfg.IdlePollTimeout, cfg.PendingPollTimeout, cfg.BatchWindow, cfg.TickPeriod, cfg.FaultPolicy)
	return q, nil
}

func newQueue[E any](src Source[E], cfg Config, o options) *Queue[E] {
	r := o.registry
	return &Queue[E]{
		src:           src,
		cfg:           cfg,
		clock:         o.clock,
		onCrash:       o.onCrash,
		onFlush:       o.onFlush,
		ch:            NewChannel[E](),
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
		registry:      r,
		statBatches:   r.Ints.Get("queue.batches"),
		statEvents:    r.Ints.Get("queue.events"),
		statTicks:     r.Ints.Get("queue.ticks"),
		statFaults:    r.Ints.Get("queue.faults"),
		statLastBatch: r.Ints.Get("queue.last_batch"),
		statMaxBatch:  r.Ints.Get("queue.max_batch"),
	}
}

func (q *Queue[E]) launch() {
	q.wg.Add(2)
	core.Go(q.pollLoop, q.onCrash)
	core.Go(q.tickLoop, q.onCrash)

	go func() {
		q.wg.Wait()
		q.ch.Close()
		close(q.done)
	}()
}

// Recv blocks for the next batch; false once stopped and drained
func (q *Queue[E]) Recv() (Batch[E], bool) {
	return q.ch.Recv()
}

// TryRecv returns the next batch if one is ready
func (q *Queue[E]) TryRecv() (Batch[E], bool) {
	return q.ch.TryRecv()
}

// RecvContext blocks for the next batch until ctx is done
// Returns ErrClosed once stopped and drained
func (q *Queue[E]) RecvContext(ctx context.Context) (Batch[E], error) {
	return q.ch.RecvContext(ctx)
}

// Len returns the number of undelivered batches
func (q *Queue[E]) Len() int {
	return q.ch.Len()
}

// Stop signals both producers, waits for them and closes the channel
// The poller flushes its pending batch first. Safe to call multiple times
// Returns the first producer fault, if any
func (q *Queue[E]) Stop() error {
	q.stopOnce.Do(func() {
		close(q.stopCh)
		if in, ok := q.src.(Interrupter); ok {
			in.Interrupt()
		}
	})
	<-q.done
	log.Printf("[queue] stopped (%d batches, %d events, %d ticks)",
		q.statBatches.Load(), q.statEvents.Load(), q.statTicks.Load())
	return q.Err()
}

// Done is closed once both producers have exited and the channel is closed
func (q *Queue[E]) Done() <-chan struct{} {
	return q.done
}

// Err returns the first producer fault
func (q *Queue[E]) Err() error {
	q.errMu.Lock()
	defer q.errMu.Unlock()
	return q.err
}

// Drop abandons the receive end without stopping the producers
// Their next send fails and is handled as a fault
func (q *Queue[E]) Drop() {
	q.ch.Drop()
}

// Registry returns the registry holding this queue's counters
func (q *Queue[E]) Registry() *status.Registry {
	return q.registry
}

func (q *Queue[E]) stopping() bool {
	select {
	case <-q.stopCh:
		return true
	default:
		return false
	}
}

// fault records a producer failure and applies the fault policy
// Under FaultCrash it panics; core.Go hands the panic to the crash handler
func (q *Queue[E]) fault(producer string, err error, deliver bool) {
	perr := &ProducerError{Producer: producer, Err: err}

	q.errMu.Lock()
	if q.err == nil {
		q.err = perr
	}
	q.errMu.Unlock()
	q.statFaults.Add(1)

	log.Printf("[queue] %s fault: %v", producer, err)

	if q.cfg.FaultPolicy == FaultCrash {
		panic(perr)
	}
	if deliver {
		if sendErr := q.ch.Send(Batch[E]{Fault[E](perr)}); sendErr != nil {
			log.Printf("[queue] %s fault not delivered: %v", producer, sendErr)
		}
	}
}
