// Package status holds lock-free counters shared between producers and the render loop.
package status

import (
	"strconv"
	"sync/atomic"
)

// Registry is the central metrics facade
// Producers cache pointers at construction and write atomics directly
type Registry struct {
	Ints   *MetricMap[atomic.Int64]
	Floats *MetricMap[AtomicFloat]
}

func NewRegistry() *Registry {
	return &Registry{
		Ints:   NewMetricMap[atomic.Int64](),
		Floats: NewMetricMap[AtomicFloat](),
	}
}

// Sample is one metric rendered for display
type Sample struct {
	Name  string
	Value string
}

// Snapshot returns all metrics, ints first, each group in key order
func (r *Registry) Snapshot() []Sample {
	out := make([]Sample, 0, r.Ints.Count()+r.Floats.Count())
	r.Ints.Range(func(k string, v *atomic.Int64) {
		out = append(out, Sample{Name: k, Value: strconv.FormatInt(v.Load(), 10)})
	})
	r.Floats.Range(func(k string, v *AtomicFloat) {
		out = append(out, Sample{Name: k, Value: strconv.FormatFloat(v.Get(), 'f', 2, 64)})
	})
	return out
}
