package learning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zero-day-ai/pera/memory"
)

// similarNameThreshold matches _son_habilidades_similares's 0.7 name
// similarity cutoff.
const similarNameThreshold = 0.7

// integrateSkill folds a quality-accepted CandidateSkill into the
// Knowledge Store: search for a near-duplicate by name similarity, and
// replace it (bumping its version) if one is found whose Confidence is
// below the candidate's overall quality score; otherwise insert a new
// skill ("kept_both" when a near-duplicate exists, "created" when none
// does). Grounded on integracion_habilidades.py's
// GestorIntegracionHabilidades.
func integrateSkill(ctx context.Context, ks memory.KnowledgeStore, candidate CandidateSkill, quality QualityMetrics) (IntegrationOutcome, error) {
	if !quality.MeetsThreshold {
		return IntegrationOutcome{Action: "rejected", Reason: "quality_insufficient"}, nil
	}

	existing, err := findSimilarSkill(ctx, ks, candidate)
	if err != nil {
		return IntegrationOutcome{}, fmt.Errorf("learning: search similar skills: %w", err)
	}

	steps := make([]memory.SkillStep, len(candidate.ToolSequence))
	for i, tool := range candidate.ToolSequence {
		deps := []int{}
		if i > 0 {
			deps = []int{i - 1}
		}
		steps[i] = memory.SkillStep{ToolName: tool, DependsOn: deps}
	}

	now := time.Now()
	if existing != nil && quality.OverallScore > existing.Confidence {
		replacement := &memory.Skill{
			ID:          existing.ID,
			Name:        candidate.Name,
			Description: fmt.Sprintf("abstracted from %d episodes", candidate.SourceCount),
			GoalPattern: candidate.GoalPattern,
			Steps:       steps,
			Version:     existing.Version + 1,
			Confidence:  quality.OverallScore,
			CreatedAt:   existing.CreatedAt,
			UpdatedAt:   now,
		}
		if err := ks.PutSkill(ctx, replacement); err != nil {
			return IntegrationOutcome{}, fmt.Errorf("learning: replace skill: %w", err)
		}
		return IntegrationOutcome{Action: "replaced", SkillID: replacement.ID, ReplacedID: existing.ID}, nil
	}

	skill := &memory.Skill{
		ID:          "skill_" + uuid.New().String(),
		Name:        candidate.Name,
		Description: fmt.Sprintf("abstracted from %d episodes", candidate.SourceCount),
		GoalPattern: candidate.GoalPattern,
		Steps:       steps,
		Version:     1,
		Confidence:  quality.OverallScore,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := ks.PutSkill(ctx, skill); err != nil {
		return IntegrationOutcome{}, fmt.Errorf("learning: insert skill: %w", err)
	}
	action := "created"
	if existing != nil {
		action = "kept_both"
	}
	return IntegrationOutcome{Action: action, SkillID: skill.ID}, nil
}

func findSimilarSkill(ctx context.Context, ks memory.KnowledgeStore, candidate CandidateSkill) (*memory.Skill, error) {
	all, err := ks.ListSkills(ctx)
	if err != nil {
		return nil, err
	}
	for _, sk := range all {
		if nameSimilarity(candidate.Name, sk.Name) > similarNameThreshold {
			return sk, nil
		}
	}
	return nil, nil
}

// nameSimilarity is a token-overlap (Jaccard) similarity over lowercased
// whitespace-split words, standing in for the original's semantic-name
// comparison in the absence of a text-embedding model at this layer.
func nameSimilarity(a, b string) float64 {
	return jaccard(strings.Fields(strings.ToLower(a)), strings.Fields(strings.ToLower(b)))
}
