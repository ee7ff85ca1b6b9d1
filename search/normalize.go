package search

import "github.com/poiesic/corpus/core"

// NormalizeScores rescales raw scores to the range [0, 1] using min-max
// normalization. An empty input yields an empty map. When all scores are
// identical, every entry maps to 1.0.
func NormalizeScores(scores map[core.ID]float64) map[core.ID]float64 {
	normalized := make(map[core.ID]float64, len(scores))
	if len(scores) == 0 {
		return normalized
	}

	var min, max float64
	first := true
	for _, score := range scores {
		if first {
			min, max = score, score
			first = false
			continue
		}
		if score < min {
			min = score
		}
		if score > max {
			max = score
		}
	}

	if min == max {
		for id := range scores {
			normalized[id] = 1.0
		}
		return normalized
	}

	span := max - min
	for id, score := range scores {
		normalized[id] = (score - min) / span
	}
	return normalized
}
