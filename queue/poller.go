package queue

import (
	"time"

	"github.com/lixenwraith/termqueue/status"
)

// pollLoop accumulates source events and flushes them once per batch window
//
// The flush check runs after every poll attempt, event or timeout. While a batch is
// pending the short poll timeout bounds flush latency to window + pending timeout;
// while idle the long timeout keeps the loop off the CPU.
func (q *Queue[E]) pollLoop() {
	defer q.wg.Done()

	var batch Batch[E]
	lastFlush := q.clock.Now()

	for {
		if q.stopping() {
			if len(batch) > 0 {
				if err := q.flush(batch, q.clock.Now()); err != nil {
					q.fault("poller", err, false)
				}
			}
			return
		}

		timeout := q.cfg.IdlePollTimeout
		if len(batch) > 0 {
			timeout = q.cfg.PendingPollTimeout
		}

		ev, ok, err := pollOnce(q.src, timeout)
		if err != nil {
			// Deliver what was captured before the failure
			if len(batch) > 0 && q.cfg.FaultPolicy == FaultDeliver {
				if sendErr := q.flush(batch, q.clock.Now()); sendErr != nil {
					q.fault("poller", sendErr, false)
					return
				}
			}
			q.fault("poller", err, true)
			return
		}
		if ok {
			batch = append(batch, Wrap(ev))
		}

		now := q.clock.Now()
		if len(batch) > 0 && now.Sub(lastFlush) > q.cfg.BatchWindow {
			if err := q.flush(batch, now); err != nil {
				q.fault("poller", err, false)
				return
			}
			batch = nil
			lastFlush = now
		}
	}
}

// flush hands batch to the channel and updates counters
func (q *Queue[E]) flush(batch Batch[E], now time.Time) error {
	if err := q.ch.Send(batch); err != nil {
		return err
	}

	q.statBatches.Add(1)
	q.statEvents.Add(int64(len(batch)))
	status.StoreMax(q.statMaxBatch, int64(len(batch)))
	q.statLastBatch.Store(int64(len(batch)))

	if q.onFlush != nil {
		q.onFlush(now, len(batch))
	}
	return nil
}
