package bus

import (
	"encoding/json"
	"time"
)

// EventEnvelope is the wire format every message on the bus carries,
// mirroring the teacher's queue.WorkItem/queue.Result JSON-over-Redis
// convention: a typed payload plus routing and tracing metadata.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Topic         string          `json:"topic"`
	CorrelationID string          `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload"`
	Timestamp     time.Time       `json:"timestamp"`
	Attempt       int             `json:"attempt"`
}

// GoalRequest is the payload published to request a new PERA session.
type GoalRequest struct {
	Goal        string         `json:"goal"`
	Constraints map[string]any `json:"constraints,omitempty"`
}

// PlanResponse is the payload published once a goal has been planned.
type PlanResponse struct {
	SessionID string   `json:"session_id"`
	PlanID    string   `json:"plan_id"`
	TaskIDs   []string `json:"task_ids"`
}

// TaskRequest is the payload published to dispatch a single task to a
// remote tool worker.
type TaskRequest struct {
	SessionID string         `json:"session_id"`
	TaskID    string         `json:"task_id"`
	ToolName  string         `json:"tool_name"`
	Params    map[string]any `json:"params"`
}

// TaskResponse is the payload published back once a task worker finishes.
type TaskResponse struct {
	SessionID  string `json:"session_id"`
	TaskID     string `json:"task_id"`
	Success    bool   `json:"success"`
	Output     any    `json:"output,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}
