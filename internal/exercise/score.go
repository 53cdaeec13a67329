package exercise

const (
	baseFormScore     = 85
	consistencyBonus  = 15
	consistencyWindow = 10

	// FallbackFormScore is reported when no trained classifier is loaded.
	FallbackFormScore = 70
)

// FormScore scores the recent label history. held is the number of labels in
// the smoothing window and recent its newest entries. Once more than ten
// labels are held, the share of distinct labels among the last ten adds up to
// fifteen points to the base of 85. The result is clamped to [0, 100].
func FormScore(held int, recent []string) int {
	score := baseFormScore

	if held > consistencyWindow {
		if len(recent) > consistencyWindow {
			recent = recent[len(recent)-consistencyWindow:]
		}
		seen := make(map[string]struct{}, len(recent))
		for _, l := range recent {
			seen[l] = struct{}{}
		}
		// floor(distinct/10 * 15) in integer arithmetic.
		score += len(seen) * consistencyBonus / consistencyWindow
	}

	return clamp(score, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
