package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestChannelFIFO(t *testing.T) {
	c := NewChannel[int]()
	for i := 0; i < 5; i++ {
		if err := c.Send(Batch[int]{Wrap(i)}); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	if c.Len() != 5 {
		t.Errorf("Expected Len 5, got %d", c.Len())
	}
	for i := 0; i < 5; i++ {
		b, ok := c.TryRecv()
		if !ok || b[0].Event != i {
			t.Errorf("Expected batch %d, got %v (ok=%v)", i, b, ok)
		}
	}
	if _, ok := c.TryRecv(); ok {
		t.Error("Expected empty channel")
	}
}

func TestChannelRejectsEmptyBatch(t *testing.T) {
	c := NewChannel[int]()
	if err := c.Send(nil); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("Expected ErrEmptyBatch, got %v", err)
	}
	if err := c.Send(Batch[int]{}); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("Expected ErrEmptyBatch, got %v", err)
	}
}

func TestChannelConcurrentProducersKeepPerProducerOrder(t *testing.T) {
	c := NewChannel[int]()
	const perProducer = 500

	var wg sync.WaitGroup
	for p := 0; p < 2; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				c.Send(Batch[int]{Wrap(p*perProducer + i)})
			}
		}(p)
	}

	go func() {
		wg.Wait()
		c.Close()
	}()

	last := [2]int{-1, -1}
	total := 0
	for {
		b, ok := c.Recv()
		if !ok {
			break
		}
		v := b[0].Event
		p, i := v/perProducer, v%perProducer
		if i <= last[p] {
			t.Fatalf("Producer %d out of order: %d after %d", p, i, last[p])
		}
		last[p] = i
		total++
	}
	if total != 2*perProducer {
		t.Errorf("Expected %d batches, got %d", 2*perProducer, total)
	}
}

func TestChannelCloseDrainsThenEnds(t *testing.T) {
	c := NewChannel[int]()
	c.Send(Batch[int]{Tick[int]()})
	c.Close()
	c.Close()

	if err := c.Send(Batch[int]{Tick[int]()}); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed on send after close, got %v", err)
	}
	if _, ok := c.Recv(); !ok {
		t.Error("Expected queued batch to survive close")
	}
	if _, ok := c.Recv(); ok {
		t.Error("Expected Recv to end after drain")
	}
}

func TestChannelDrop(t *testing.T) {
	c := NewChannel[int]()
	c.Send(Batch[int]{Tick[int]()})
	c.Drop()

	if err := c.Send(Batch[int]{Tick[int]()}); !errors.Is(err, ErrReceiverGone) {
		t.Errorf("Expected ErrReceiverGone, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Expected pending batches discarded, got %d", c.Len())
	}
}

func TestChannelRecvContext(t *testing.T) {
	c := NewChannel[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := c.RecvContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}

	go func() {
		time.Sleep(5 * time.Millisecond)
		c.Send(Batch[int]{Wrap(9)})
	}()
	b, err := c.RecvContext(context.Background())
	if err != nil || b[0].Event != 9 {
		t.Errorf("Expected [9], got %v (err=%v)", b, err)
	}
}
