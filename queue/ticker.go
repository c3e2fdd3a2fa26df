package queue

import "time"

// tickLoop sends [Tick] then waits one period, until stopped
// No coalescing: every period produces exactly one send
func (q *Queue[E]) tickLoop() {
	defer q.wg.Done()

	timer := time.NewTimer(q.cfg.TickPeriod)
	defer timer.Stop()

	for {
		if err := q.ch.Send(Batch[E]{Tick[E]()}); err != nil {
			q.fault("ticker", err, false)
			return
		}
		q.statTicks.Add(1)

		select {
		case <-q.stopCh:
			return
		case <-timer.C:
			timer.Reset(q.cfg.TickPeriod)
		}
	}
}
