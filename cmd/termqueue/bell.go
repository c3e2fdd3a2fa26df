package main

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	bellSampleRate = beep.SampleRate(44100)
	bellDuration   = 30 * time.Millisecond
	bellBaseHz     = 440.0
	bellMaxHz      = 1760.0
)

// bell plays a short sine blip per input batch, pitched up with the batch size
type bell struct {
	mu     sync.Mutex
	active bool
}

func newBell() (*bell, error) {
	if err := speaker.Init(bellSampleRate, bellSampleRate.N(time.Second/10)); err != nil {
		return nil, err
	}
	return &bell{active: true}, nil
}

// toneFor maps batch size to a frequency: one octave per doubling, capped
func toneFor(size int) float64 {
	hz := bellBaseHz
	for n := size; n > 1 && hz < bellMaxHz; n /= 2 {
		hz *= 2
	}
	if hz > bellMaxHz {
		hz = bellMaxHz
	}
	return hz
}

func (b *bell) ring(size int) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		return
	}

	sine, err := generators.SineTone(bellSampleRate, toneFor(size))
	if err != nil {
		return
	}
	speaker.Play(beep.Take(bellSampleRate.N(bellDuration), sine))
}

func (b *bell) close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active {
		speaker.Close()
		b.active = false
	}
}
