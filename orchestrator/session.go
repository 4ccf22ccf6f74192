package orchestrator

import (
	"time"
)

// Phase is a session's position in the PERA cycle.
type Phase string

const (
	PhaseInit              Phase = "init"
	PhasePlanning          Phase = "planning"
	PhaseExecuting         Phase = "executing"
	PhaseRecording         Phase = "recording"
	PhaseLearningScheduled Phase = "learning_scheduled"
	PhaseDone              Phase = "done"
	PhaseError             Phase = "error"
)

// IsTerminal reports whether phase ends a session's lifecycle.
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseDone, PhaseError:
		return true
	default:
		return false
	}
}

// Constraints limits a session's resource consumption, generalized from the
// teacher's MissionConstraints (duration/token/cost/finding caps) to a
// goal-orchestration session (duration/task/retry caps).
type Constraints struct {
	// MaxDuration is the wall-clock budget for the whole PERA cycle. Submit
	// sets the session deadline to MaxDuration padded by
	// config.PlanningConfig.PlanSlack. Zero means no limit.
	MaxDuration time.Duration

	// MaxTasks caps the number of tasks a plan may dispatch. Zero means
	// no limit.
	MaxTasks int

	// MaxReplans caps how many times the Orchestrator will ask the
	// Planner to replan this session before giving up.
	MaxReplans int
}

// Info is the metadata returned when creating or querying a session,
// generalized from the teacher's MissionInfo.
type Info struct {
	ID        string    `json:"id"`
	Goal      string    `json:"goal"`
	Phase     Phase     `json:"phase"`
	CreatedAt time.Time `json:"created_at"`
	Tags      []string  `json:"tags,omitempty"`
}

// Result is the final outcome of a completed session, generalized from the
// teacher's MissionResult.
type Result struct {
	SessionID   string         `json:"session_id"`
	Phase       Phase          `json:"phase"`
	Output      map[string]any `json:"output,omitempty"`
	Metrics     Metrics        `json:"metrics"`
	Error       string         `json:"error,omitempty"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Metrics aggregates execution statistics for a session, generalized from
// the teacher's MissionMetrics.
type Metrics struct {
	Duration       time.Duration `json:"duration"`
	TasksDispatched int          `json:"tasks_dispatched"`
	TasksSucceeded  int          `json:"tasks_succeeded"`
	TasksFailed     int          `json:"tasks_failed"`
	ReplanCount     int          `json:"replan_count"`
}

// session is the Orchestrator's internal mutable state for one in-flight
// goal cycle.
type session struct {
	info        Info
	constraints Constraints
	cancel      func()
	tasks       []EpisodeTaskOutcome
	replans     int
}

// EpisodeTaskOutcome is the Orchestrator's compact record of one dispatched
// task, folded into the Episode appended to the Episodic Log at the
// recording phase.
type EpisodeTaskOutcome struct {
	ID         string
	ToolName   string
	Success    bool
	DurationMS int64
	RetryCount int
	ErrorKind  string
}
