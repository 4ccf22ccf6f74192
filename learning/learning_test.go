package learning

import (
	"context"
	"testing"
	"time"

	"github.com/zero-day-ai/pera/config"
	"github.com/zero-day-ai/pera/memory"
)

func newEpisode(t *testing.T, sessionID, goal string, tasks []memory.EpisodeTask, startedAt time.Time) *memory.Episode {
	t.Helper()
	ep := &memory.Episode{
		ID:            "episode_" + sessionID,
		SessionID:     sessionID,
		Goal:          goal,
		Status:        memory.EpisodeSucceeded,
		Tasks:         tasks,
		StartedAt:     startedAt,
		EndedAt:       startedAt.Add(time.Second),
		SystemVersion: "test",
	}
	ep.Checksum = memory.ComputeChecksum(ep)
	return ep
}

func TestAnalyzeToolPerformance_NoSignificanceBelowSampleSize(t *testing.T) {
	var episodes []*memory.Episode
	for i := 0; i < 3; i++ {
		episodes = append(episodes, newEpisode(t, "s", "g", []memory.EpisodeTask{
			{ToolName: "a", Success: true, DurationMS: 100},
			{ToolName: "b", Success: true, DurationMS: 200},
		}, time.Now()))
	}
	cmps := analyzeToolPerformance(episodes, 10)
	if len(cmps) != 0 {
		t.Fatalf("expected no comparisons below sample threshold, got %d", len(cmps))
	}
}

func TestAnalyzeToolPerformance_DetectsFasterTool(t *testing.T) {
	var episodes []*memory.Episode
	for i := 0; i < 15; i++ {
		episodes = append(episodes, newEpisode(t, "s", "g", []memory.EpisodeTask{
			{ToolName: "fast", Success: true, DurationMS: 50},
			{ToolName: "slow", Success: true, DurationMS: 5000},
		}, time.Now()))
	}
	cmps := analyzeToolPerformance(episodes, 10)
	if len(cmps) != 1 {
		t.Fatalf("expected 1 comparison, got %d", len(cmps))
	}
	if !cmps[0].SignificantAt95 {
		t.Fatalf("expected a hugely different duration to be significant")
	}
	if cmps[0].RecommendedTool != "fast" {
		t.Fatalf("expected 'fast' recommended, got %s", cmps[0].RecommendedTool)
	}
}

func TestDetectPatterns_FindsRecurringSequence(t *testing.T) {
	var episodes []*memory.Episode
	for i := 0; i < 5; i++ {
		episodes = append(episodes, newEpisode(t, "s", "g", []memory.EpisodeTask{
			{ToolName: "fetch", Success: true},
			{ToolName: "summarize", Success: true},
		}, time.Now()))
	}
	patterns := detectPatterns(episodes, 0.5, 0.5, 3)
	if len(patterns) == 0 {
		t.Fatalf("expected at least one pattern detected")
	}
	if patterns[0].Support < 3 {
		t.Fatalf("expected top pattern support >= 3, got %d", patterns[0].Support)
	}
}

func TestIdentifyFactors_RanksToolsByCorrelationWithSuccess(t *testing.T) {
	var episodes []*memory.Episode
	for i := 0; i < 10; i++ {
		episodes = append(episodes, newEpisode(t, "s", "g", []memory.EpisodeTask{
			{ToolName: "good_tool", Success: true},
		}, time.Now()))
	}
	for i := 0; i < 10; i++ {
		episodes = append(episodes, newEpisode(t, "s", "g", []memory.EpisodeTask{
			{ToolName: "bad_tool", Success: false},
		}, time.Now()))
	}
	factors := identifyFactors(episodes)
	if len(factors) != 2 {
		t.Fatalf("expected 2 factors, got %d", len(factors))
	}
	if factors[0].Importance <= 0 {
		t.Fatalf("expected top factor to have nonzero importance")
	}
}

func TestScoreQuality_AcceptsHighCoverageCandidate(t *testing.T) {
	candidate := CandidateSkill{Name: "x", ToolSequence: []string{"a", "b"}, SourceCount: 10}
	q := scoreQuality(candidate, 3, 0.6)
	if !q.MeetsThreshold {
		t.Fatalf("expected candidate with high coverage to meet threshold, got %+v", q)
	}
}

func TestScoreQuality_RejectsLowCoverageCandidate(t *testing.T) {
	candidate := CandidateSkill{Name: "x", ToolSequence: []string{"a"}, SourceCount: 1}
	q := scoreQuality(candidate, 10, 0.6)
	if q.MeetsThreshold {
		t.Fatalf("expected low-coverage single-step candidate to be rejected, got %+v", q)
	}
}

func TestIntegrateSkill_RejectsBelowThreshold(t *testing.T) {
	ks := memory.NewKnowledgeStore(memory.NewHashEmbedder(), 0.2)
	outcome, err := integrateSkill(context.Background(), ks, CandidateSkill{Name: "x"}, QualityMetrics{MeetsThreshold: false})
	if err != nil {
		t.Fatalf("integrateSkill: %v", err)
	}
	if outcome.Action != "rejected" {
		t.Fatalf("got action %s, want rejected", outcome.Action)
	}
}

func TestIntegrateSkill_CreatesNewSkill(t *testing.T) {
	ks := memory.NewKnowledgeStore(memory.NewHashEmbedder(), 0.2)
	candidate := CandidateSkill{Name: "fetch and summarize", ToolSequence: []string{"fetch", "summarize"}, SourceCount: 5}
	outcome, err := integrateSkill(context.Background(), ks, candidate, QualityMetrics{OverallScore: 0.8, MeetsThreshold: true})
	if err != nil {
		t.Fatalf("integrateSkill: %v", err)
	}
	if outcome.Action != "created" {
		t.Fatalf("got action %s, want created", outcome.Action)
	}

	skill, err := ks.GetSkill(context.Background(), outcome.SkillID)
	if err != nil {
		t.Fatalf("GetSkill: %v", err)
	}
	if len(skill.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(skill.Steps))
	}
}

func TestIntegrateSkill_ReplacesSimilarExisting(t *testing.T) {
	ks := memory.NewKnowledgeStore(memory.NewHashEmbedder(), 0.2)
	candidate := CandidateSkill{Name: "fetch and summarize", ToolSequence: []string{"fetch", "summarize"}, SourceCount: 5}
	first, err := integrateSkill(context.Background(), ks, candidate, QualityMetrics{OverallScore: 0.7, MeetsThreshold: true})
	if err != nil {
		t.Fatalf("first integrateSkill: %v", err)
	}

	second, err := integrateSkill(context.Background(), ks, candidate, QualityMetrics{OverallScore: 0.9, MeetsThreshold: true})
	if err != nil {
		t.Fatalf("second integrateSkill: %v", err)
	}
	if second.Action != "replaced" {
		t.Fatalf("got action %s, want replaced", second.Action)
	}
	if second.ReplacedID != first.SkillID {
		t.Fatalf("expected replaced ID %s, got %s", first.SkillID, second.ReplacedID)
	}
}

func TestLearner_RunCycle_SkipsBelowMinimumEpisodes(t *testing.T) {
	mem, err := memory.NewStore(config.MemoryConfig{Backend: config.BackendMemory, WorkingTTL: time.Minute, SweepInterval: time.Minute}, nil, memory.NewHashEmbedder())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	learner := NewLearner(config.LearningConfig{MinEpisodesPerGroup: 3, CycleInterval: time.Hour}, mem, nil)
	defer learner.Close()

	report, err := learner.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(report.Integrations) != 0 {
		t.Fatalf("expected no integrations with zero episodes, got %+v", report.Integrations)
	}
}

func TestLearner_RunCycle_IntegratesPatternIntoKnowledgeStore(t *testing.T) {
	mem, err := memory.NewStore(config.MemoryConfig{Backend: config.BackendMemory, WorkingTTL: time.Minute, SweepInterval: time.Minute}, nil, memory.NewHashEmbedder())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for i := 0; i < 5; i++ {
		ep := newEpisode(t, "session-"+string(rune('a'+i)), "goal", []memory.EpisodeTask{
			{ToolName: "fetch", Success: true},
			{ToolName: "summarize", Success: true},
		}, time.Now())
		if err := mem.Episodic().Append(context.Background(), ep); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	cfg := config.LearningConfig{
		WindowHours:          24,
		MinEpisodesPerGroup:  3,
		QualityThreshold:     0.5,
		ImprovementThreshold: 0.1,
		SuccessFraction:      0.5,
		DBSCANEps:            0.5,
		DBSCANMinSamples:     3,
		CycleInterval:        time.Hour,
	}
	learner := NewLearner(cfg, mem, nil)
	defer learner.Close()

	report, err := learner.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(report.Integrations) == 0 {
		t.Fatalf("expected at least one skill integration from a recurring 5-episode pattern")
	}

	skills, err := mem.Knowledge().ListSkills(context.Background())
	if err != nil {
		t.Fatalf("ListSkills: %v", err)
	}
	if len(skills) == 0 {
		t.Fatalf("expected at least one skill stored")
	}
}
