package registry

import (
	"math"
	"sync/atomic"

	"github.com/zero-day-ai/pera/schema"
)

// Descriptor is a tool's static catalog entry: identity, the task types it
// can satisfy, and its input schema, which the Execution Engine validates a
// task's Params against before dispatch.
type Descriptor struct {
	Name        string     `json:"name"`
	Version     string     `json:"version"`
	Description string     `json:"description"`
	TaskTypes   []string   `json:"task_types"`
	Tags        []string   `json:"tags"`
	InputSchema schema.JSON `json:"input_schema,omitempty"`
}

// Metrics tracks a tool's observed performance, read and written
// concurrently by the execution engine as tasks complete.
type Metrics struct {
	successCount   int64
	failureCount   int64
	totalDurationMS int64
}

// RecordSuccess registers a successful invocation with its duration.
func (m *Metrics) RecordSuccess(durationMS int64) {
	atomic.AddInt64(&m.successCount, 1)
	atomic.AddInt64(&m.totalDurationMS, durationMS)
}

// RecordFailure registers a failed invocation with its duration.
func (m *Metrics) RecordFailure(durationMS int64) {
	atomic.AddInt64(&m.failureCount, 1)
	atomic.AddInt64(&m.totalDurationMS, durationMS)
}

// Snapshot returns the current counters without mutating them.
func (m *Metrics) Snapshot() (successes, failures int64, totalDurationMS int64) {
	return atomic.LoadInt64(&m.successCount), atomic.LoadInt64(&m.failureCount), atomic.LoadInt64(&m.totalDurationMS)
}

// SuccessRate returns successes/(successes+failures), or 0.5 with no
// observations yet (an uninformative prior, not a penalty).
func (m *Metrics) SuccessRate() float64 {
	s, f, _ := m.Snapshot()
	total := s + f
	if total == 0 {
		return 0.5
	}
	return float64(s) / float64(total)
}

// FitnessScore combines observed success rate and experience into a single
// ranking score in [0.2, 0.9]:
//
//   - a 0.5 base,
//   - plus up to ±0.3 as the success rate moves away from 0.5,
//   - plus a 0.1 experience bonus once a tool has accrued at least 10
//     successful invocations, since a tool proven at scale is preferred
//     over one with a thin, possibly lucky sample.
func (m *Metrics) FitnessScore() float64 {
	s, _, _ := m.Snapshot()
	score := 0.5 + 0.6*(m.SuccessRate()-0.5)
	if s >= 10 {
		score += 0.1
	}
	return math.Max(0, math.Min(1, score))
}
