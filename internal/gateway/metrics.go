package gateway

import "sync/atomic"

// Metrics tracks assistant-level counters using atomic operations for
// lock-free concurrency.
type Metrics struct {
	utterances atomic.Int64
	proposals  atomic.Int64
	executions atomic.Int64
	failures   atomic.Int64
	errors     atomic.Int64
}

// RecordUtterance records an inbound operator request.
func (m *Metrics) RecordUtterance() {
	m.utterances.Add(1)
}

// RecordProposal records a script proposal surfaced for confirmation.
func (m *Metrics) RecordProposal() {
	m.proposals.Add(1)
}

// RecordExecution records a confirmed proposal's run.
func (m *Metrics) RecordExecution(success bool) {
	m.executions.Add(1)
	if !success {
		m.failures.Add(1)
	}
}

// RecordError records a processing error.
func (m *Metrics) RecordError() {
	m.errors.Add(1)
}

// Snapshot returns a consistent point-in-time view of the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Utterances: m.utterances.Load(),
		Proposals:  m.proposals.Load(),
		Executions: m.executions.Load(),
		Failures:   m.failures.Load(),
		Errors:     m.errors.Load(),
	}
}

// MetricsSnapshot is a serializable point-in-time metrics view.
type MetricsSnapshot struct {
	Utterances int64 `json:"utterances"`
	Proposals  int64 `json:"proposals"`
	Executions int64 `json:"executions"`
	Failures   int64 `json:"failures"`
	Errors     int64 `json:"errors"`
}
