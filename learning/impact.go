package learning

import (
	"time"

	"github.com/zero-day-ai/pera/memory"
)

// evaluateImpact compares the observed outcomes of episodes that used
// pref.NewTool in the 7 days before and after pref.AppliedAt, grounded on
// monitor_impacto.py's MonitorImpactoOptimizaciones._evaluar_impacto_preferencia_herramienta.
// It reports zero-valued rates for a side with no matching episodes rather
// than erroring, since a freshly applied preference may not yet have any
// "after" episodes.
func evaluateImpact(episodes []*memory.Episode, pref PreferenceUpdate) ImpactReport {
	const window = 7 * 24 * time.Hour

	var before, after []*memory.Episode
	for _, ep := range episodes {
		if !episodeUsedTool(ep, pref.NewTool) {
			continue
		}
		switch {
		case ep.StartedAt.Before(pref.AppliedAt) && pref.AppliedAt.Sub(ep.StartedAt) <= window:
			before = append(before, ep)
		case !ep.StartedAt.Before(pref.AppliedAt) && ep.StartedAt.Sub(pref.AppliedAt) <= window:
			after = append(after, ep)
		}
	}

	successBefore, durBefore := meanSuccessAndDuration(before)
	successAfter, durAfter := meanSuccessAndDuration(after)

	return ImpactReport{
		TaskType:             pref.TaskType,
		Tool:                 pref.NewTool,
		EpisodesBefore:       len(before),
		EpisodesAfter:        len(after),
		SuccessRateBefore:    successBefore,
		SuccessRateAfter:     successAfter,
		MeanDurationMSBefore: durBefore,
		MeanDurationMSAfter:  durAfter,
		Positive:             len(after) > 0 && (successAfter > successBefore || durAfter < durBefore),
	}
}

func meanSuccessAndDuration(episodes []*memory.Episode) (successRate, meanDurationMS float64) {
	if len(episodes) == 0 {
		return 0, 0
	}
	var successSum, durSum float64
	for _, ep := range episodes {
		successSum += ep.SuccessFraction()
		durSum += float64(ep.Duration().Milliseconds())
	}
	n := float64(len(episodes))
	return successSum / n, durSum / n
}
