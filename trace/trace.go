// Package trace writes received batches as JSON lines for offline inspection.
//
// Each line carries the session id, a sequence number, the receive time and the batch
// content. Events are rendered through a caller-supplied formatter since the queue
// treats them as opaque.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lixenwraith/termqueue/queue"
)

// Record is one JSON line
type Record struct {
	Session string    `json:"session"`
	Seq     uint64    `json:"seq"`
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	Events  []string  `json:"events,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Writer serializes batches to w; safe for concurrent use
type Writer[E any] struct {
	mu      sync.Mutex
	enc     *json.Encoder
	session uuid.UUID
	seq     uint64
	format  func(E) string
}

// NewWriter starts a new trace session; format defaults to fmt.Sprint
func NewWriter[E any](w io.Writer, format func(E) string) *Writer[E] {
	if format == nil {
		format = func(e E) string { return fmt.Sprint(e) }
	}
	return &Writer[E]{
		enc:     json.NewEncoder(w),
		session: uuid.New(),
		format:  format,
	}
}

// Session returns the id stamped on every record
func (w *Writer[E]) Session() uuid.UUID {
	return w.session
}

// Write appends one record for b received at at
func (w *Writer[E]) Write(at time.Time, b queue.Batch[E]) error {
	rec := Record{At: at, Kind: kindOf(b)}
	if err := b.Fault(); err != nil {
		rec.Error = err.Error()
	}
	for _, e := range b.Events() {
		rec.Events = append(rec.Events, w.format(e))
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.seq++
	rec.Session = w.session.String()
	rec.Seq = w.seq
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("trace: write record %d: %w", rec.Seq, err)
	}
	return nil
}

func kindOf[E any](b queue.Batch[E]) string {
	switch {
	case b.IsTick():
		return queue.KindTick.String()
	case b.Fault() != nil:
		return queue.KindFault.String()
	default:
		return queue.KindEvent.String()
	}
}
