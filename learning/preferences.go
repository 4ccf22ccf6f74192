package learning

import (
	"context"
	"fmt"
	"time"

	"github.com/zero-day-ai/pera/memory"
)

// applyPreferenceUpdates turns significant tool comparisons into
// Preference writes, when the expected improvement clears
// improvementThreshold, grounded on actualizacion_preferencias.py's
// ActualizadorPreferencias.aplicar_optimizaciones.
func applyPreferenceUpdates(ctx context.Context, ks memory.KnowledgeStore, comparisons []ToolComparison, improvementThreshold float64) ([]PreferenceUpdate, error) {
	var updates []PreferenceUpdate
	for _, cmp := range comparisons {
		if !cmp.SignificantAt95 || cmp.RecommendedTool == "" {
			continue
		}

		key := preferenceKey(cmp.TaskType, cmp.ToolA, cmp.ToolB)
		current, err := ks.GetPreference(ctx, key)
		if err != nil && err != memory.ErrNotFound {
			return nil, fmt.Errorf("learning: get preference %s: %w", key, err)
		}
		previousTool := ""
		if current != nil {
			if s, ok := current.Value.(string); ok {
				previousTool = s
			}
		}
		if previousTool == cmp.RecommendedTool {
			continue
		}

		improvement := expectedImprovement(cmp)
		if improvement < improvementThreshold {
			continue
		}

		pref := &memory.Preference{
			Key:        key,
			Value:      cmp.RecommendedTool,
			Confidence: confidenceFromPValue(cmp.PValue),
			SampleSize: 1,
			UpdatedAt:  time.Now(),
		}
		if err := ks.PutPreference(ctx, pref); err != nil {
			return nil, fmt.Errorf("learning: put preference %s: %w", key, err)
		}

		updates = append(updates, PreferenceUpdate{
			TaskType:            cmp.TaskType,
			PreviousTool:        previousTool,
			NewTool:             cmp.RecommendedTool,
			ExpectedImprovement: improvement,
			Confidence:          pref.Confidence,
			AppliedAt:           pref.UpdatedAt,
		})
	}
	return updates, nil
}

func preferenceKey(taskType, toolA, toolB string) string {
	return "tool_preference:" + taskType + ":" + toolA + ":" + toolB
}

// expectedImprovement approximates the success-rate gain from switching to
// the recommended tool, matching _calcular_mejora_esperada's simplified
// placeholder (half the recommended tool's observed success rate).
func expectedImprovement(cmp ToolComparison) float64 {
	rate := cmp.SuccessRateA
	if cmp.RecommendedTool == cmp.ToolB {
		rate = cmp.SuccessRateB
	}
	return rate * 0.5
}

func confidenceFromPValue(p float64) float64 {
	c := 1 - p
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return c
}
