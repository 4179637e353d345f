package fuzzy

import "strings"

// Score ranks candidate against query for workspace symbol search. Higher
// wins. The ladder, most to least specific:
//
//	exact match            100
//	prefix match            90
//	substring match         80
//	word-boundary initials  70
//	positional fuzzy        10 + 5·run per matched character, +20 at a
//	                        word boundary (position 0 or after '_')
//
// A candidate that does not contain every query character in order scores 0.
// Matching is case-insensitive.
func Score(query, candidate string) int {
	if query == "" || candidate == "" {
		return 0
	}
	q := strings.ToLower(query)
	c := strings.ToLower(candidate)

	switch {
	case q == c:
		return 100
	case strings.HasPrefix(c, q):
		return 90
	case strings.Contains(c, q):
		return 80
	case strings.HasPrefix(initials(c), q):
		return 70
	}
	return positionalScore(q, c)
}

// initials extracts the first letter of each '_'-delimited segment.
func initials(s string) string {
	var b strings.Builder
	atBoundary := true
	for i := 0; i < len(s); i++ {
		if s[i] == '_' {
			atBoundary = true
			continue
		}
		if atBoundary {
			b.WriteByte(s[i])
			atBoundary = false
		}
	}
	return b.String()
}

func positionalScore(q, c string) int {
	score := 0
	run := 0
	qi := 0
	prevMatched := -2
	for ci := 0; ci < len(c) && qi < len(q); ci++ {
		if c[ci] != q[qi] {
			continue
		}
		if ci == prevMatched+1 {
			run++
		} else {
			run = 1
		}
		score += 10 + 5*run
		if ci == 0 || c[ci-1] == '_' {
			score += 20
		}
		prevMatched = ci
		qi++
	}
	if qi < len(q) {
		// not every query character matched in order
		return 0
	}
	return score
}
