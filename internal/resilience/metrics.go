package resilience

import (
	"sync/atomic"
	"time"
)

// CallMetrics counts downstream call outcomes. All counters are atomic so the
// hot path never takes a lock.
type CallMetrics struct {
	total      atomic.Uint64
	successes  atomic.Uint64
	failures   atomic.Uint64
	retries    atomic.Uint64
	rejections atomic.Uint64
	degraded   atomic.Uint64

	latencyNanos atomic.Int64
	latencyCount atomic.Uint64
}

// NewCallMetrics returns zeroed metrics.
func NewCallMetrics() *CallMetrics {
	return &CallMetrics{}
}

// Start marks the beginning of a logical downstream operation.
func (m *CallMetrics) Start() time.Time {
	m.total.Add(1)
	return time.Now()
}

// RecordSuccess records a successful operation begun at start.
func (m *CallMetrics) RecordSuccess(start time.Time) {
	m.successes.Add(1)
	m.observeLatency(start)
}

// RecordFailure records a failed operation begun at start.
func (m *CallMetrics) RecordFailure(start time.Time) {
	m.failures.Add(1)
	m.observeLatency(start)
}

// RecordRetry counts one retried attempt.
func (m *CallMetrics) RecordRetry() {
	m.retries.Add(1)
}

// RecordRejection counts a call rejected by the open circuit breaker.
func (m *CallMetrics) RecordRejection() {
	m.rejections.Add(1)
}

// RecordDegraded counts a read served from a stale cache entry.
func (m *CallMetrics) RecordDegraded() {
	m.degraded.Add(1)
}

func (m *CallMetrics) observeLatency(start time.Time) {
	m.latencyNanos.Add(int64(time.Since(start)))
	m.latencyCount.Add(1)
}

// CallSnapshot is a point-in-time view of the counters.
type CallSnapshot struct {
	Total           uint64  `json:"total"`
	Successes       uint64  `json:"successes"`
	Failures        uint64  `json:"failures"`
	Retries         uint64  `json:"retries"`
	Rejections      uint64  `json:"rejections"`
	DegradedServes  uint64  `json:"degraded_serves"`
	SuccessRate     float64 `json:"success_rate"`
	AvgLatencyMilli float64 `json:"avg_latency_ms"`
}

// Snapshot returns the current counters.
func (m *CallMetrics) Snapshot() CallSnapshot {
	snap := CallSnapshot{
		Total:          m.total.Load(),
		Successes:      m.successes.Load(),
		Failures:       m.failures.Load(),
		Retries:        m.retries.Load(),
		Rejections:     m.rejections.Load(),
		DegradedServes: m.degraded.Load(),
	}
	if done := snap.Successes + snap.Failures; done > 0 {
		snap.SuccessRate = float64(snap.Successes) / float64(done)
	}
	if count := m.latencyCount.Load(); count > 0 {
		snap.AvgLatencyMilli = float64(m.latencyNanos.Load()) / float64(count) / float64(time.Millisecond)
	}
	return snap
}
