package memory

import "time"

// Skill is a reusable procedure the Learning Loop has abstracted from one or
// more successful episodes. The Planner consults the Knowledge Store for
// skills matching a new goal before falling back to LLM-based planning.
type Skill struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	GoalPattern string         `json:"goal_pattern"`
	Steps       []SkillStep    `json:"steps"`
	Version     int            `json:"version"`
	Confidence  float64        `json:"confidence"`
	UsageCount  int            `json:"usage_count"`
	SuccessRate float64        `json:"success_rate"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	LastUsedAt  time.Time      `json:"last_used_at"`
}

// SkillStep is a single templated task within a Skill's procedure. Params
// may contain placeholder tokens ("{{goal.target}}") the Planner resolves
// against the new goal's parameters during skill-based adaptation.
type SkillStep struct {
	ToolName     string         `json:"tool_name"`
	Params       map[string]any `json:"params"`
	DependsOn    []int          `json:"depends_on"`
	OptionalStep bool           `json:"optional_step"`
}

// Preference is a tunable orchestration parameter the Learning Loop adjusts
// based on observed outcomes — e.g. which strategy to favor for a goal
// category, or how much plan slack to allow.
type Preference struct {
	Key         string    `json:"key"`
	Value       any       `json:"value"`
	Confidence  float64   `json:"confidence"`
	SampleSize  int        `json:"sample_size"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EpisodeStatus is the terminal disposition of a recorded episode.
type EpisodeStatus string

const (
	EpisodeSucceeded EpisodeStatus = "succeeded"
	EpisodeFailed    EpisodeStatus = "failed"
	EpisodePartial   EpisodeStatus = "partial"
	EpisodeCancelled EpisodeStatus = "cancelled"
)

// EpisodeTask is a compact record of one executed task within an episode.
// It deliberately mirrors only the fields the Learning Loop needs, rather
// than importing the exec package's richer Result type, to keep memory a
// leaf package with no dependency on exec/planning.
type EpisodeTask struct {
	ID         string         `json:"id"`
	ToolName   string         `json:"tool_name"`
	Success    bool           `json:"success"`
	DurationMS int64          `json:"duration_ms"`
	RetryCount int            `json:"retry_count"`
	ErrorKind  string         `json:"error_kind,omitempty"`
	Metrics    map[string]any `json:"metrics,omitempty"`
}

// Episode is the durable, append-only record of one completed PERA cycle.
// Its checksum binds Goal, StartedAt, EndedAt, and SystemVersion so that
// tampering or truncation can be detected on read.
type Episode struct {
	ID            string         `json:"id"`
	SessionID     string         `json:"session_id"`
	Goal          string         `json:"goal"`
	Status        EpisodeStatus  `json:"status"`
	Tasks         []EpisodeTask  `json:"tasks"`
	StartedAt     time.Time      `json:"started_at"`
	EndedAt       time.Time      `json:"ended_at"`
	SystemVersion string         `json:"system_version"`
	Checksum      string         `json:"checksum"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// SuccessFraction returns the fraction of tasks recorded with Success=true,
// or 0 when the episode has no tasks.
func (e *Episode) SuccessFraction() float64 {
	if len(e.Tasks) == 0 {
		return 0
	}
	succeeded := 0
	for _, t := range e.Tasks {
		if t.Success {
			succeeded++
		}
	}
	return float64(succeeded) / float64(len(e.Tasks))
}

// Duration returns EndedAt.Sub(StartedAt).
func (e *Episode) Duration() time.Duration {
	return e.EndedAt.Sub(e.StartedAt)
}
