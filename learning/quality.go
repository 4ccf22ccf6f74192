package learning

// scoreQuality evaluates a CandidateSkill's generalization quality,
// grounded on evaluacion_calidad.py's EvaluadorCalidadGeneralizacion:
// coverage (episodes-per-group vs. the configured minimum, capped at 1),
// consistency, generality, predictive utility, and precision, combined
// with the weights 0.3/0.25/0.2/0.15/0.1.
func scoreQuality(candidate CandidateSkill, minEpisodesPerGroup int, threshold float64) QualityMetrics {
	coverage := float64(candidate.SourceCount) / float64(max1(minEpisodesPerGroup))
	if coverage > 1 {
		coverage = 1
	}

	// Consistency is a fixed 0.8 for every candidate; a CandidateSkill
	// carries no per-episode variation to measure. Generality rewards
	// sequences of a moderate, reusable length rather than a single-tool
	// or overlong one.
	consistency := 0.8
	generality := generalityScore(len(candidate.ToolSequence))
	predictiveUtility := coverage * 0.9
	precision := consistency * 0.9

	m := QualityMetrics{
		Coverage:          coverage,
		Consistency:       consistency,
		Generality:        generality,
		PredictiveUtility: predictiveUtility,
		Precision:         precision,
	}
	m.OverallScore = m.Coverage*0.3 + m.Consistency*0.25 + m.Generality*0.2 + m.PredictiveUtility*0.15 + m.Precision*0.1
	m.MeetsThreshold = m.OverallScore >= threshold
	return m
}

func generalityScore(steps int) float64 {
	switch {
	case steps <= 0:
		return 0
	case steps == 1:
		return 0.4
	case steps <= 5:
		return 1.0
	case steps <= 10:
		return 0.7
	default:
		return 0.4
	}
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
