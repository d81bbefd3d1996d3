package resolve

import "strings"

// Similarity returns the normalized edit-similarity of two strings in
// [0,1]: 1 - levenshtein(a,b)/max(len(a),len(b)), computed on case-folded,
// whitespace-trimmed runes. Equal strings score 1; an empty string against
// a non-empty one scores 0.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		return 1
	}

	ra := []rune(a)
	rb := []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}

	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// levenshtein computes edit distance with a two-row dynamic program.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

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

			curr[j] = prev[j] + 1                // deletion
			if v := curr[j-1] + 1; v < curr[j] { // insertion
				curr[j] = v
			}
			if v := prev[j-1] + cost; v < curr[j] { // substitution
				curr[j] = v
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
