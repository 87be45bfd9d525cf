package identity

// Similarity scores two normalized strings on a 0..1 scale using Levenshtein
// edit distance, where 1 means identical. Inputs are expected to already be
// normalized via shared.NormalizeText.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}

	dist := levenshtein(ra, rb)
	maxLen := max(len(ra), len(rb))

	return 1.0 - float64(dist)/float64(maxLen)
}

// levenshtein computes edit distance with a two-row matrix.
func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i

		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}
