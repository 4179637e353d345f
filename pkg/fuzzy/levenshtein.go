// Package fuzzy provides the string matching primitives behind "did you
// mean" suggestions and workspace symbol search: a plain Levenshtein edit
// distance and a positional fuzzy score. Both are pure functions over string
// slices, independent of any LSP type.
package fuzzy

// Levenshtein computes the classic edit distance between a and b with unit
// cost for insertion, deletion, and substitution (no transposition term).
// It allocates two rows of len(b)+1 ints and nothing else.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}
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
			curr[j] = minOf(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minOf(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
