// Package queue turns a blocking "poll with timeout, then read" input source into a
// debounced stream of event batches for a single-threaded consumer loop.
//
// Two producer goroutines feed one unbounded FIFO channel:
//   - Poller: polls the source with an adaptive timeout, accumulates events and
//     flushes them as one batch once the batching window has elapsed
//   - Ticker: sends a [Tick] batch every tick period so the consumer can re-render
//     without input
//
// The consumer owns the receive end (Queue.Recv and friends) and processes each batch
// in order. Queue.Stop is the single join point for both producers.
package queue
