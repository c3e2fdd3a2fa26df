package queue

import "time"

// Clock supplies the poller's notion of now
type Clock interface {
	Now() time.Time
}

// SystemClock reads the monotonic system clock
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
