package queue

import (
	"errors"
	"testing"
)

func TestBatchHelpers(t *testing.T) {
	b := Batch[string]{Wrap("a"), Wrap("b")}
	if b.IsTick() {
		t.Error("Expected event batch not to be a tick")
	}
	if got := b.Events(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Expected [a b], got %v", got)
	}

	tick := Batch[string]{Tick[string]()}
	if !tick.IsTick() || len(tick.Events()) != 0 || tick.Fault() != nil {
		t.Errorf("Expected pure tick batch, got %v", tick)
	}

	boom := errors.New("boom")
	fault := Batch[string]{Fault[string](boom)}
	if !errors.Is(fault.Fault(), boom) || fault.IsTick() {
		t.Errorf("Expected fault batch carrying boom, got %v", fault)
	}
}

func TestKindString(t *testing.T) {
	if KindTick.String() != "tick" || KindEvent.String() != "event" || KindFault.String() != "fault" {
		t.Error("Unexpected kind names")
	}
}
