package similarity

import (
	"strings"
	"unicode"
)

// TitleScore reports how alike two document titles are, from 0 to 1.
// Titles are normalized first, so case and separator differences alone
// score 1. The result is the better of the Levenshtein ratio and the
// Jaro-Winkler score, which weights a shared prefix more heavily.
func TitleScore(a, b string) float64 {
	a = normalizeTitle(a)
	b = normalizeTitle(b)
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	return max(levenshteinSimilarity(a, b), jaroWinkler(a, b))
}

// normalizeTitle lowercases the title, turns runs of separators into a
// single space and drops any other punctuation.
func normalizeTitle(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevSpace = false
		case r == '-' || r == '_' || r == ' ' || r == '.':
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// levenshteinSimilarity returns an edit-distance ratio from 0 to 1.
func levenshteinSimilarity(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshteinDistance(ra, rb))/float64(max(len(ra), len(rb)))
}

// levenshteinDistance counts the single-rune edits needed to turn one
// string into the other, keeping two rolling rows.
func levenshteinDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	if len(a) < len(b) {
		a, b = b, a
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// jaroSimilarity scores rune matches found within a sliding window,
// with a penalty for matches that arrive out of order.
func jaroSimilarity(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	window := max(0, max(len(a), len(b))/2-1)
	matchedA := make([]bool, len(a))
	matchedB := make([]bool, len(b))

	matches := 0
	for i := 0; i < len(a); i++ {
		lo := max(0, i-window)
		hi := min(len(b), i+window+1)
		for j := lo; j < hi; j++ {
			if matchedB[j] || a[i] != b[j] {
				continue
			}
			matchedA[i] = true
			matchedB[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := 0; i < len(a); i++ {
		if !matchedA[i] {
			continue
		}
		for !matchedB[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}

	return (float64(matches)/float64(len(a)) +
		float64(matches)/float64(len(b)) +
		float64(matches-transpositions/2)/float64(matches)) / 3.0
}

// jaroWinkler boosts the Jaro score for strings sharing a prefix of up
// to four runes.
func jaroWinkler(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	jaro := jaroSimilarity(ra, rb)

	prefix := 0
	limit := min(4, len(ra), len(rb))
	for i := 0; i < limit; i++ {
		if ra[i] != rb[i] {
			break
		}
		prefix++
	}

	const scaling = 0.1
	return jaro + float64(prefix)*scaling*(1.0-jaro)
}
