// Package source adapts push-style input producers to the queue.Source poll/read contract.
//
// Chan is the shared building block: a reader goroutine (a library's blocking
// GetKey/ReadRune/ReadMessage loop) pushes events in, and the queue's poller waits on
// them with a timeout. Poll takes the event off the channel before returning true, so
// Read never blocks. The subpackages wire concrete input libraries onto Chan.
package source
