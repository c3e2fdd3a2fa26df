package queue

// Kind distinguishes QueueEvent variants
type Kind uint8

const (
	KindTick  Kind = iota // Heartbeat, no payload
	KindEvent             // Wraps one opaque input event
	KindFault             // Producer failure, only with FaultDeliver
)

// String returns the variant name
func (k Kind) String() string {
	switch k {
	case KindTick:
		return "tick"
	case KindEvent:
		return "event"
	case KindFault:
		return "fault"
	default:
		return "unknown"
	}
}

// QueueEvent is a tagged value delivered inside a Batch
// Event is only meaningful for KindEvent, Err only for KindFault
type QueueEvent[E any] struct {
	Kind  Kind
	Event E
	Err   error
}

// Tick returns a heartbeat element
func Tick[E any]() QueueEvent[E] {
	return QueueEvent[E]{Kind: KindTick}
}

// Wrap returns an element carrying input event e
func Wrap[E any](e E) QueueEvent[E] {
	return QueueEvent[E]{Kind: KindEvent, Event: e}
}

// Fault returns an element carrying a producer failure
func Fault[E any](err error) QueueEvent[E] {
	return QueueEvent[E]{Kind: KindFault, Err: err}
}

func (q QueueEvent[E]) IsTick() bool  { return q.Kind == KindTick }
func (q QueueEvent[E]) IsEvent() bool { return q.Kind == KindEvent }
func (q QueueEvent[E]) IsFault() bool { return q.Kind == KindFault }

// Batch is an ordered run of elements handed to the consumer as one unit
type Batch[E any] []QueueEvent[E]

// Events returns the payloads of all Event elements in order
func (b Batch[E]) Events() []E {
	out := make([]E, 0, len(b))
	for _, qe := range b {
		if qe.Kind == KindEvent {
			out = append(out, qe.Event)
		}
	}
	return out
}

// IsTick reports whether the batch is exactly [Tick]
func (b Batch[E]) IsTick() bool {
	return len(b) == 1 && b[0].Kind == KindTick
}

// Fault returns the error of a [Fault] batch, nil otherwise
func (b Batch[E]) Fault() error {
	if len(b) == 1 && b[0].Kind == KindFault {
		return b[0].Err
	}
	return nil
}
