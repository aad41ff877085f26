// Package fuzzy provides the string similarity heuristic shared by
// suggestion generation and typo-tolerant search.
package fuzzy

// Similarity scores two strings in [0, 1] using the Jaccard index of
// their character sets. Deliberately coarse: character overlap, not edit
// distance, so transpositions and repeats are invisible to it. Good
// enough to rank near-miss identifiers, nothing more.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	setA := charSet(a)
	setB := charSet(b)

	union := len(setB)
	intersection := 0
	for ch := range setA {
		if setB[ch] {
			intersection++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// ClosestMatch returns the corpus entry most similar to s, provided its
// score is at least cutoff. ok is false when nothing clears the cutoff.
func ClosestMatch(s string, corpus []string, cutoff float64) (match string, ok bool) {
	best := ""
	bestScore := 0.0
	for _, candidate := range corpus {
		score := Similarity(s, candidate)
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	if bestScore < cutoff || best == "" {
		return "", false
	}
	return best, true
}

func charSet(s string) map[rune]bool {
	set := make(map[rune]bool, len(s))
	for _, ch := range s {
		set[ch] = true
	}
	return set
}
