package matcher

import (
	"sort"
	"strings"
)

// SortTokens splits text on whitespace, sorts the tokens and rejoins them
// with single spaces.
func SortTokens(text string) string {
	tokens := strings.Fields(text)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// IndelDistance is the edit distance between a and b, measured in runes,
// where a substitution costs two (one deletion plus one insertion).
func IndelDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+2)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

// Ratio returns the similarity of a and b on a 0-100 scale:
// round(100 * (total - distance) / total) with total the combined rune
// length. Rounding is half-up in integer arithmetic. Either side empty
// scores 0.
func Ratio(a, b string) int {
	total := len([]rune(a)) + len([]rune(b))
	if a == "" || b == "" {
		return 0
	}
	same := total - IndelDistance(a, b)
	return (200*same + total) / (2 * total)
}

// TokenSortRatio scores a against b ignoring word order.
func TokenSortRatio(a, b string) int {
	return Ratio(SortTokens(a), SortTokens(b))
}
