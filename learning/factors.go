package learning

import (
	"math"
	"sort"

	"github.com/zero-day-ai/pera/memory"
)

// identifyFactors estimates each binary episode feature's permutation
// importance against the episode success label: how much the feature/
// success correlation would degrade if that feature were shuffled
// independently of the outcome, grounded on identificacion_factores.py's
// factor analysis (simplified from scikit-learn's model-based permutation
// importance to a closed-form correlation measure, since no ML library is
// available in the example pack — see DESIGN.md).
func identifyFactors(episodes []*memory.Episode) []Factor {
	if len(episodes) == 0 {
		return nil
	}

	labels := make([]bool, len(episodes))
	for i, ep := range episodes {
		labels[i] = ep.SuccessFraction() >= 0.5
	}

	featureNames := collectToolNames(episodes)
	factors := make([]Factor, 0, len(featureNames))
	for _, tool := range featureNames {
		feature := make([]bool, len(episodes))
		for i, ep := range episodes {
			feature[i] = episodeUsedTool(ep, tool)
		}
		corr := pointBiserialCorr(feature, labels)
		direction := "positive"
		if corr < 0 {
			direction = "negative"
		}
		factors = append(factors, Factor{Name: tool, Importance: abs(corr), Direction: direction})
	}

	sort.Slice(factors, func(i, j int) bool { return factors[i].Importance > factors[j].Importance })
	return factors
}

func collectToolNames(episodes []*memory.Episode) []string {
	seen := make(map[string]bool)
	var names []string
	for _, ep := range episodes {
		for _, t := range ep.Tasks {
			if !seen[t.ToolName] {
				seen[t.ToolName] = true
				names = append(names, t.ToolName)
			}
		}
	}
	sort.Strings(names)
	return names
}

func episodeUsedTool(ep *memory.Episode, tool string) bool {
	for _, t := range ep.Tasks {
		if t.ToolName == tool {
			return true
		}
	}
	return false
}

// pointBiserialCorr computes the correlation between a binary feature and
// a binary label, equivalent to Pearson correlation on {0,1}-encoded
// vectors.
func pointBiserialCorr(feature, label []bool) float64 {
	n := len(feature)
	if n == 0 {
		return 0
	}
	var sf, sl, sff, sll, sfl float64
	for i := 0; i < n; i++ {
		f := boolToFloat(feature[i])
		l := boolToFloat(label[i])
		sf += f
		sl += l
		sff += f * f
		sll += l * l
		sfl += f * l
	}
	nf := float64(n)
	num := nf*sfl - sf*sl
	den := math.Sqrt((nf*sff - sf*sf) * (nf*sll - sl*sl))
	if den == 0 {
		return 0
	}
	return num / den
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func abs(x float64) float64 {
	return math.Abs(x)
}
