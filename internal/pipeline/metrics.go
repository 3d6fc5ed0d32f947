package pipeline

import (
	"sync/atomic"
)

// Metrics contains per-pipeline counters.
type Metrics struct {
	// Frame counters (using atomic for thread-safety)
	Received   atomic.Uint64
	Filtered   atomic.Uint64
	Decoded    atomic.Uint64
	Ignored    atomic.Uint64
	Dropped    atomic.Uint64
	SinkErrors atomic.Uint64
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Reset resets all counters to zero.
func (m *Metrics) Reset() {
	m.Received.Store(0)
	m.Filtered.Store(0)
	m.Decoded.Store(0)
	m.Ignored.Store(0)
	m.Dropped.Store(0)
	m.SinkErrors.Store(0)
}
