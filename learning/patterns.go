package learning

import (
	"sort"
	"strings"

	"github.com/zero-day-ai/pera/memory"
)

// detectPatterns clusters the tool sequences of successful episodes using
// a density-based (DBSCAN-style) pass: two sequences are neighbors when
// their Jaccard-over-tool-set similarity is at least eps, a sequence seeds
// or extends a cluster only when it and its neighbors number at least
// minSamples, and neighbors of such a core sequence join its cluster,
// grounded on deteccion_patrones.py's DetectorPatrones.
func detectPatterns(episodes []*memory.Episode, successThreshold, eps float64, minSamples int) []Pattern {
	var sequences [][]string
	for _, ep := range episodes {
		if ep.SuccessFraction() < successThreshold {
			continue
		}
		seq := make([]string, 0, len(ep.Tasks))
		for _, t := range ep.Tasks {
			if t.Success {
				seq = append(seq, t.ToolName)
			}
		}
		if len(seq) > 0 {
			sequences = append(sequences, seq)
		}
	}
	if len(sequences) == 0 {
		return nil
	}

	clusters := dbscanSequences(sequences, eps, minSamples)

	patterns := make([]Pattern, 0, len(clusters))
	for _, members := range clusters {
		patterns = append(patterns, Pattern{
			Signature:  commonSignature(members),
			Support:    len(members),
			Confidence: float64(len(members)) / float64(len(sequences)),
		})
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].Support > patterns[j].Support })
	return patterns
}

// dbscanSequences is a minimal DBSCAN over a Jaccard-similarity
// neighborhood graph: no external ball-tree or numerics dependency is
// needed since the "points" are just small string sets.
func dbscanSequences(sequences [][]string, eps float64, minSamples int) [][][]string {
	n := len(sequences)
	visited := make([]bool, n)
	clustered := make([]bool, n)
	var clusters [][][]string

	neighbors := func(i int) []int {
		var out []int
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			if jaccard(sequences[i], sequences[j]) >= eps {
				out = append(out, j)
			}
		}
		return out
	}

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true
		nbrs := neighbors(i)
		if len(nbrs)+1 < minSamples {
			continue // noise point
		}

		cluster := []int{i}
		queue := append([]int{}, nbrs...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]
			if !visited[j] {
				visited[j] = true
				jNbrs := neighbors(j)
				if len(jNbrs)+1 >= minSamples {
					queue = append(queue, jNbrs...)
				}
			}
			alreadyIn := false
			for _, m := range cluster {
				if m == j {
					alreadyIn = true
					break
				}
			}
			if !alreadyIn {
				cluster = append(cluster, j)
			}
		}

		members := make([][]string, 0, len(cluster))
		for _, idx := range cluster {
			clustered[idx] = true
			members = append(members, sequences[idx])
		}
		clusters = append(clusters, members)
	}
	_ = clustered
	return clusters
}

func jaccard(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	inter, union := 0, len(setA)
	for k := range setB {
		if setA[k] {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func toSet(xs []string) map[string]bool {
	m := make(map[string]bool, len(xs))
	for _, x := range xs {
		m[x] = true
	}
	return m
}

// commonSignature returns the tool sequence shared by the largest number
// of cluster members, used to label the pattern.
func commonSignature(members [][]string) []string {
	counts := make(map[string]int)
	for _, seq := range members {
		counts[strings.Join(seq, "->")]++
	}
	best, bestCount := "", 0
	for sig, c := range counts {
		if c > bestCount {
			best, bestCount = sig, c
		}
	}
	if best == "" {
		return nil
	}
	return strings.Split(best, "->")
}
