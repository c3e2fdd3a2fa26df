package queue

import (
	"errors"
	"fmt"
	"time"
)

// Defaults tuned for an interactive terminal UI
const (
	// DefaultIdlePollTimeout bounds staleness while no input is pending
	DefaultIdlePollTimeout = 2 * time.Second
	// DefaultPendingPollTimeout is the re-check interval while a batch is accumulating
	DefaultPendingPollTimeout = 5 * time.Millisecond
	// DefaultBatchWindow is the max latency added by coalescing
	DefaultBatchWindow = 25 * time.Millisecond
	// DefaultTickPeriod is the heartbeat cadence
	DefaultTickPeriod = 2 * time.Second
)

// FaultPolicy selects how producers react to source or send failures
type FaultPolicy uint8

const (
	// FaultCrash panics in the producer goroutine, the crash handler terminates the process
	FaultCrash FaultPolicy = iota
	// FaultDeliver sends a [Fault] batch to the consumer and stops the failing producer
	FaultDeliver
)

func (p FaultPolicy) String() string {
	switch p {
	case FaultCrash:
		return "crash"
	case FaultDeliver:
		return "deliver"
	default:
		return "unknown"
	}
}

// ParseFaultPolicy maps "crash" or "deliver" to a policy
func ParseFaultPolicy(s string) (FaultPolicy, error) {
	switch s {
	case "crash", "":
		return FaultCrash, nil
	case "deliver":
		return FaultDeliver, nil
	}
	return FaultCrash, fmt.Errorf("unknown fault policy %q", s)
}

// Config holds the timing shared by both producers
type Config struct {
	IdlePollTimeout    time.Duration
	PendingPollTimeout time.Duration
	BatchWindow        time.Duration
	TickPeriod         time.Duration
	FaultPolicy        FaultPolicy
}

// DefaultConfig returns the interactive-terminal defaults
func DefaultConfig() Config {
	return Config{
		IdlePollTimeout:    DefaultIdlePollTimeout,
		PendingPollTimeout: DefaultPendingPollTimeout,
		BatchWindow:        DefaultBatchWindow,
		TickPeriod:         DefaultTickPeriod,
		FaultPolicy:        FaultCrash,
	}
}

var ErrInvalidConfig = errors.New("invalid queue config")

// Validate rejects non-positive durations and a pending timeout above the idle one
func (c Config) Validate() error {
	switch {
	case c.IdlePollTimeout <= 0:
		return fmt.Errorf("%w: idle poll timeout %v", ErrInvalidConfig, c.IdlePollTimeout)
	case c.PendingPollTimeout <= 0:
		return fmt.Errorf("%w: pending poll timeout %v", ErrInvalidConfig, c.PendingPollTimeout)
	case c.BatchWindow <= 0:
		return fmt.Errorf("%w: batch window %v", ErrInvalidConfig, c.BatchWindow)
	case c.TickPeriod <= 0:
		return fmt.Errorf("%w: tick period %v", ErrInvalidConfig, c.TickPeriod)
	case c.PendingPollTimeout > c.IdlePollTimeout:
		return fmt.Errorf("%w: pending poll timeout %v exceeds idle poll timeout %v",
			ErrInvalidConfig, c.PendingPollTimeout, c.IdlePollTimeout)
	case c.FaultPolicy > FaultDeliver:
		return fmt.Errorf("%w: fault policy %d", ErrInvalidConfig, c.FaultPolicy)
	}
	return nil
}
