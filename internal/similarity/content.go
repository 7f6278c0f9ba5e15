// Package similarity provides text similarity scores for document
// content and titles.
package similarity

import "strings"

// Score reports how much content two markdown bodies share, from 0 to
// 1. The comparison is line-based: the result is the better of the
// longest-common-subsequence ratio, which credits shared lines in
// order, and the Jaccard index over the distinct trimmed lines, which
// credits shared lines wherever they moved.
func Score(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	linesA := strings.Split(a, "\n")
	linesB := strings.Split(b, "\n")

	ordered := float64(lcsLength(linesA, linesB)) / float64(max(len(linesA), len(linesB)))
	unordered := jaccard(lineSet(linesA), lineSet(linesB))
	return max(ordered, unordered)
}

// lcsLength returns the length of the longest common subsequence of
// the two line slices, keeping two rolling rows.
func lcsLength(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// lineSet collects the distinct non-blank lines, trimmed of
// surrounding whitespace.
func lineSet(lines []string) map[string]struct{} {
	set := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		set[line] = struct{}{}
	}
	return set
}

// jaccard returns the intersection-over-union of two sets. Two empty
// sets count as identical.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	intersection := 0
	for item := range a {
		if _, ok := b[item]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
