package creedmoor

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational
// metrics. Implement this interface to integrate with monitoring systems
// like Prometheus.
type MetricsCollector interface {
	// RecordPut is called after each put operation.
	RecordPut(duration time.Duration, size int64, err error)

	// RecordGet is called after each get operation. hit reports whether
	// the key was present.
	RecordGet(duration time.Duration, hit bool, err error)

	// RecordRemove is called after each remove operation.
	RecordRemove(duration time.Duration, err error)

	// RecordEviction is called after an eviction pass that removed at
	// least one victim.
	RecordEviction(victims int, freedBytes int64)

	// RecordRecovery is called once after the startup scan.
	RecordRecovery(entries, skipped int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPut(time.Duration, int64, error)  {}
func (NoopMetricsCollector) RecordGet(time.Duration, bool, error)   {}
func (NoopMetricsCollector) RecordRemove(time.Duration, error)      {}
func (NoopMetricsCollector) RecordEviction(int, int64)              {}
func (NoopMetricsCollector) RecordRecovery(int, int, time.Duration) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external
// dependencies.
type BasicMetricsCollector struct {
	PutCount       atomic.Int64
	PutErrors      atomic.Int64
	PutTotalNanos  atomic.Int64
	GetCount       atomic.Int64
	GetHits        atomic.Int64
	GetErrors      atomic.Int64
	GetTotalNanos  atomic.Int64
	RemoveCount    atomic.Int64
	RemoveErrors   atomic.Int64
	EvictionCount  atomic.Int64
	EvictedBytes   atomic.Int64
	RecoveredCount atomic.Int64
	SkippedCount   atomic.Int64
}

func (m *BasicMetricsCollector) RecordPut(d time.Duration, size int64, err error) {
	m.PutCount.Add(1)
	m.PutTotalNanos.Add(int64(d))
	if err != nil {
		m.PutErrors.Add(1)
	}
}

func (m *BasicMetricsCollector) RecordGet(d time.Duration, hit bool, err error) {
	m.GetCount.Add(1)
	m.GetTotalNanos.Add(int64(d))
	if hit {
		m.GetHits.Add(1)
	}
	if err != nil {
		m.GetErrors.Add(1)
	}
}

func (m *BasicMetricsCollector) RecordRemove(d time.Duration, err error) {
	m.RemoveCount.Add(1)
	if err != nil {
		m.RemoveErrors.Add(1)
	}
}

func (m *BasicMetricsCollector) RecordEviction(victims int, freedBytes int64) {
	m.EvictionCount.Add(int64(victims))
	m.EvictedBytes.Add(freedBytes)
}

func (m *BasicMetricsCollector) RecordRecovery(entries, skipped int, d time.Duration) {
	m.RecoveredCount.Store(int64(entries))
	m.SkippedCount.Store(int64(skipped))
}
