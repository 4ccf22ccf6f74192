package queue

import (
	"fmt"
	"time"
)

// WorkItem represents a single unit of work submitted to a tool's queue: one
// Execution Engine Task shipped to a remote worker instead of run in-process.
type WorkItem struct {
	// JobID is a UUID that correlates all work items in a batch.
	JobID string `json:"job_id"`

	// Index is the position of this item in the batch (0-based).
	Index int `json:"index"`

	// Total is the total number of items in the batch.
	Total int `json:"total"`

	// Tool is the name of the tool to execute.
	Tool string `json:"tool"`

	// ParamsJSON is the task's Params, serialized as JSON.
	ParamsJSON string `json:"params_json"`

	// TraceID is the distributed tracing trace ID for observability.
	TraceID string `json:"trace_id"`

	// SpanID is the distributed tracing span ID for observability.
	SpanID string `json:"span_id"`

	// SubmittedAt is the Unix timestamp in milliseconds when work was submitted.
	SubmittedAt int64 `json:"submitted_at"`
}

// Result represents the outcome of executing a WorkItem. It is published to
// a job-specific pub/sub channel for the Execution Engine to collect.
type Result struct {
	// JobID correlates this result with the original work item.
	JobID string `json:"job_id"`

	// Index is the position of this result in the batch.
	Index int `json:"index"`

	// OutputJSON is the task output, serialized as JSON. Empty if Error is set.
	OutputJSON string `json:"output_json,omitempty"`

	// Error is the error message if execution failed. Empty on success.
	Error string `json:"error,omitempty"`

	// WorkerID is the unique identifier of the worker that processed this item.
	WorkerID string `json:"worker_id"`

	// StartedAt is the Unix timestamp in milliseconds when execution started.
	StartedAt int64 `json:"started_at"`

	// CompletedAt is the Unix timestamp in milliseconds when execution completed.
	CompletedAt int64 `json:"completed_at"`
}

// ToolMeta contains metadata about a registered tool, mirroring the fields
// of a registry.Descriptor that matter for remote discovery and routing.
// It is stored as a Redis hash.
type ToolMeta struct {
	// Name is the unique tool identifier.
	Name string `json:"name"`

	// Version is the semantic version of the tool implementation.
	Version string `json:"version"`

	// Description is a human-readable description of the tool's purpose.
	Description string `json:"description"`

	// TaskTypes are the task types this tool can satisfy.
	TaskTypes []string `json:"task_types"`

	// Schema is the tool's JSON input schema, serialized as JSON.
	Schema string `json:"schema"`

	// Tags are keywords for categorizing the tool (e.g. "network", "file").
	Tags []string `json:"tags"`

	// WorkerCount is the number of active workers for this tool. Updated by
	// IncrementWorkerCount/DecrementWorkerCount.
	WorkerCount int `json:"worker_count"`
}

// IsValid checks if the WorkItem has all required fields populated correctly.
func (w *WorkItem) IsValid() error {
	if w.JobID == "" {
		return fmt.Errorf("job_id is required")
	}
	if w.Index < 0 {
		return fmt.Errorf("index must be non-negative, got %d", w.Index)
	}
	if w.Total <= 0 {
		return fmt.Errorf("total must be positive, got %d", w.Total)
	}
	if w.Index >= w.Total {
		return fmt.Errorf("index %d is out of bounds for total %d", w.Index, w.Total)
	}
	if w.Tool == "" {
		return fmt.Errorf("tool name is required")
	}
	if w.ParamsJSON == "" {
		return fmt.Errorf("params_json is required")
	}
	if w.SubmittedAt <= 0 {
		return fmt.Errorf("submitted_at must be positive, got %d", w.SubmittedAt)
	}
	return nil
}

// Age returns the duration since this work item was submitted. Useful for
// detecting stale work items and computing queue wait time.
func (w *WorkItem) Age() time.Duration {
	if w.SubmittedAt <= 0 {
		return 0
	}
	now := time.Now().UnixMilli()
	return time.Duration(now-w.SubmittedAt) * time.Millisecond
}

// HasError returns true if the result represents a failed execution.
func (r *Result) HasError() bool {
	return r.Error != ""
}

// Duration returns the wall-clock time the worker spent processing this item.
func (r *Result) Duration() time.Duration {
	if r.StartedAt <= 0 || r.CompletedAt <= 0 {
		return 0
	}
	return time.Duration(r.CompletedAt-r.StartedAt) * time.Millisecond
}

// IsValid checks if the Result has all required fields populated correctly.
func (r *Result) IsValid() error {
	if r.JobID == "" {
		return fmt.Errorf("job_id is required")
	}
	if r.Index < 0 {
		return fmt.Errorf("index must be non-negative, got %d", r.Index)
	}
	if r.WorkerID == "" {
		return fmt.Errorf("worker_id is required")
	}
	if r.StartedAt <= 0 {
		return fmt.Errorf("started_at must be positive, got %d", r.StartedAt)
	}
	if r.CompletedAt <= 0 {
		return fmt.Errorf("completed_at must be positive, got %d", r.CompletedAt)
	}
	if r.CompletedAt < r.StartedAt {
		return fmt.Errorf("completed_at (%d) cannot be before started_at (%d)", r.CompletedAt, r.StartedAt)
	}
	if !r.HasError() && r.OutputJSON == "" {
		return fmt.Errorf("output_json is required when error is empty")
	}
	return nil
}

// IsValid checks if the ToolMeta has all required fields populated correctly.
func (t *ToolMeta) IsValid() error {
	if t.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if t.Version == "" {
		return fmt.Errorf("version is required")
	}
	if len(t.TaskTypes) == 0 {
		return fmt.Errorf("at least one task type is required")
	}
	if t.WorkerCount < 0 {
		return fmt.Errorf("worker_count must be non-negative, got %d", t.WorkerCount)
	}
	return nil
}

// SupportsTaskType checks if this tool accepts the given task type.
func (t *ToolMeta) SupportsTaskType(taskType string) bool {
	for _, tt := range t.TaskTypes {
		if tt == taskType {
			return true
		}
	}
	return false
}

// HasTag checks if the tool has the specified tag.
func (t *ToolMeta) HasTag(tag string) bool {
	for _, candidate := range t.Tags {
		if candidate == tag {
			return true
		}
	}
	return false
}
