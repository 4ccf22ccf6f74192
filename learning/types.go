package learning

import "time"

// ToolComparison is the statistical comparison of two tools, grounded on
// analisis_rendimiento.py's _comparar_herramientas: success rate, mean
// duration of successful runs, and a Welch's t-test on those durations.
type ToolComparison struct {
	TaskType           string  `json:"task_type"`
	ToolA              string  `json:"tool_a"`
	ToolB              string  `json:"tool_b"`
	SuccessRateA       float64 `json:"success_rate_a"`
	SuccessRateB       float64 `json:"success_rate_b"`
	MeanDurationMSA    float64 `json:"mean_duration_ms_a"`
	MeanDurationMSB    float64 `json:"mean_duration_ms_b"`
	TStatistic         float64 `json:"t_statistic"`
	PValue             float64 `json:"p_value"`
	SignificantAt95    bool    `json:"significant_at_95"`
	RecommendedTool    string  `json:"recommended_tool"`
}

// ToolScore is a tool's composite fitness for a task type: 0.6*successRate
// plus 0.4*(1/(meanDurationSeconds+0.1)), matching
// _seleccionar_mejor_herramienta.
type ToolScore struct {
	ToolName string  `json:"tool_name"`
	Score    float64 `json:"score"`
}

// Pattern is a cluster of structurally similar successful tool sequences,
// grounded on deteccion_patrones.py's DBSCAN-based clustering.
type Pattern struct {
	Signature  []string `json:"signature"` // ordered tool names common to the cluster
	Support    int      `json:"support"`   // number of episodes in the cluster
	Confidence float64  `json:"confidence"`
}

// Factor is a success/failure driver identified by the correlation between
// a tool's use and episode success, grounded on identificacion_factores.py.
type Factor struct {
	Name        string  `json:"name"`
	Importance  float64 `json:"importance"` // absolute tool-use/success correlation
	Direction   string  `json:"direction"`  // "positive" or "negative"
}

// CandidateSkill is a procedure abstracted from one or more episodes,
// awaiting quality scoring before integration, grounded on abstraccion.py
// / generalizacion.py.
type CandidateSkill struct {
	Name          string
	GoalPattern   string
	ToolSequence  []string
	SourceCount   int // number of episodes this was abstracted from
}

// QualityMetrics scores a CandidateSkill's generalization quality,
// grounded on evaluacion_calidad.py's weighted composite (weights
// 0.3/0.25/0.2/0.15/0.1, accept threshold from config).
type QualityMetrics struct {
	Coverage           float64 `json:"coverage"`
	Consistency        float64 `json:"consistency"`
	Generality         float64 `json:"generality"`
	PredictiveUtility  float64 `json:"predictive_utility"`
	Precision          float64 `json:"precision"`
	OverallScore       float64 `json:"overall_score"`
	MeetsThreshold     bool    `json:"meets_threshold"`
}

// IntegrationOutcome records how a CandidateSkill was folded into the
// Knowledge Store, grounded on integracion_habilidades.py.
type IntegrationOutcome struct {
	Action       string `json:"action"` // "created", "replaced", "rejected", "kept_both"
	SkillID      string `json:"skill_id,omitempty"`
	ReplacedID   string `json:"replaced_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// PreferenceUpdate records a changed tool preference for a task type,
// grounded on actualizacion_preferencias.py.
type PreferenceUpdate struct {
	TaskType        string  `json:"task_type"`
	PreviousTool    string  `json:"previous_tool"`
	NewTool         string  `json:"new_tool"`
	ExpectedImprovement float64 `json:"expected_improvement"`
	Confidence      float64 `json:"confidence"`
	AppliedAt       time.Time `json:"applied_at"`
}

// ImpactReport compares the observed success rate and mean duration of
// episodes that used a PreferenceUpdate's new tool before and after the
// update was applied, grounded on
// monitor_impacto.py's before/after window comparison.
type ImpactReport struct {
	TaskType            string  `json:"task_type"`
	Tool                string  `json:"tool"`
	EpisodesBefore      int     `json:"episodes_before"`
	EpisodesAfter       int     `json:"episodes_after"`
	SuccessRateBefore   float64 `json:"success_rate_before"`
	SuccessRateAfter    float64 `json:"success_rate_after"`
	MeanDurationMSBefore float64 `json:"mean_duration_ms_before"`
	MeanDurationMSAfter  float64 `json:"mean_duration_ms_after"`
	Positive            bool    `json:"positive"`
}

// CycleReport is the output of one learning cycle, folding together every
// analysis plus what was actually integrated.
type CycleReport struct {
	StartedAt      time.Time            `json:"started_at"`
	EndedAt        time.Time            `json:"ended_at"`
	EpisodesSeen   int                  `json:"episodes_seen"`
	Comparisons    []ToolComparison     `json:"comparisons,omitempty"`
	Patterns       []Pattern            `json:"patterns,omitempty"`
	Factors        []Factor             `json:"factors,omitempty"`
	Integrations   []IntegrationOutcome `json:"integrations,omitempty"`
	Preferences    []PreferenceUpdate   `json:"preferences,omitempty"`
	Impacts        []ImpactReport       `json:"impacts,omitempty"`
	AnalysisErrors []string             `json:"analysis_errors,omitempty"`
}
