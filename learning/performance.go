package learning

import (
	"sort"

	"github.com/zero-day-ai/pera/memory"
)

// analyzeToolPerformance compares every pair of tools across episodes
// (the compact EpisodeTask record carries no task-type label, so tools are
// not grouped by task and TaskType is left empty), grounded on
// analisis_rendimiento.py's AnalizadorRendimiento. It returns
// one ToolComparison per pair of tools with at least minSamplesForTest
// observations each.
func analyzeToolPerformance(episodes []*memory.Episode, minSamplesForTest int) []ToolComparison {
	type sample struct {
		success  bool
		duration float64
	}
	byTool := make(map[string][]sample)
	for _, ep := range episodes {
		for _, t := range ep.Tasks {
			byTool[t.ToolName] = append(byTool[t.ToolName], sample{success: t.Success, duration: float64(t.DurationMS)})
		}
	}

	tools := make([]string, 0, len(byTool))
	for name := range byTool {
		tools = append(tools, name)
	}
	sort.Slice(tools, func(i, j int) bool { return len(byTool[tools[i]]) > len(byTool[tools[j]]) })

	var comparisons []ToolComparison
	for i := 0; i < len(tools); i++ {
		for j := i + 1; j < len(tools); j++ {
			a, b := tools[i], tools[j]
			sa, sb := byTool[a], byTool[b]
			if len(sa) < minSamplesForTest || len(sb) < minSamplesForTest {
				continue
			}

			durA := successfulDurations(sa)
			durB := successfulDurations(sb)
			t, p := welchTTest(durA, durB)

			cmp := ToolComparison{
				ToolA:           a,
				ToolB:           b,
				SuccessRateA:    successRate(sa),
				SuccessRateB:    successRate(sb),
				MeanDurationMSA: mean(durA),
				MeanDurationMSB: mean(durB),
				TStatistic:      t,
				PValue:          p,
				SignificantAt95: p < 0.05,
			}
			if cmp.SignificantAt95 {
				cmp.RecommendedTool = recommendTool(a, b, cmp)
			}
			comparisons = append(comparisons, cmp)
		}
	}
	return comparisons
}

func successfulDurations(samples []struct {
	success  bool
	duration float64
}) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.success && s.duration > 0 {
			out = append(out, s.duration)
		}
	}
	return out
}

func successRate(samples []struct {
	success  bool
	duration float64
}) float64 {
	if len(samples) == 0 {
		return 0
	}
	n := 0
	for _, s := range samples {
		if s.success {
			n++
		}
	}
	return float64(n) / float64(len(samples))
}

// recommendTool picks the tool with the higher composite score (0.6
// success rate + 0.4 speed), matching _seleccionar_mejor_herramienta.
func recommendTool(a, b string, cmp ToolComparison) string {
	scoreA := cmp.SuccessRateA*0.6 + (1/(cmp.MeanDurationMSA/1000+0.1))*0.4
	scoreB := cmp.SuccessRateB*0.6 + (1/(cmp.MeanDurationMSB/1000+0.1))*0.4
	if scoreA >= scoreB {
		return a
	}
	return b
}

// scoreTools returns every tool's composite fitness score across episodes,
// regardless of whether it has a comparison partner.
func scoreTools(episodes []*memory.Episode) []ToolScore {
	type agg struct {
		success int
		total   int
		durSum  float64
		durN    int
	}
	byTool := make(map[string]*agg)
	for _, ep := range episodes {
		for _, t := range ep.Tasks {
			a, ok := byTool[t.ToolName]
			if !ok {
				a = &agg{}
				byTool[t.ToolName] = a
			}
			a.total++
			if t.Success {
				a.success++
				if t.DurationMS > 0 {
					a.durSum += float64(t.DurationMS)
					a.durN++
				}
			}
		}
	}

	scores := make([]ToolScore, 0, len(byTool))
	for name, a := range byTool {
		successRate := 0.0
		if a.total > 0 {
			successRate = float64(a.success) / float64(a.total)
		}
		avgDurSec := 0.0
		if a.durN > 0 {
			avgDurSec = (a.durSum / float64(a.durN)) / 1000
		}
		score := successRate*0.6 + (1/(avgDurSec+0.1))*0.4
		scores = append(scores, ToolScore{ToolName: name, Score: score})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores
}
