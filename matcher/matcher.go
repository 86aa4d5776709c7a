package matcher

// DefaultCutoff is the minimum score a stored question needs to be reused.
const DefaultCutoff = 70

// Match identifies the winning candidate.
type Match struct {
	Index int // position in the caller's candidate slice
	Score int // 0-100
}

// Score compares two raw questions after normalizing both.
func Score(query, candidate string) int {
	return TokenSortRatio(Normalize(query), Normalize(candidate))
}

// BestMatch returns the highest scoring candidate for query. The query and
// every candidate go through the same normalization. Ties resolve to the
// lowest index. The match is accepted when its score is at least cutoff;
// otherwise ok is false.
func BestMatch(query string, candidates []string, cutoff int) (Match, bool) {
	if len(candidates) == 0 {
		return Match{}, false
	}

	sortedQuery := SortTokens(Normalize(query))
	best := Match{Index: -1, Score: -1}
	for i, candidate := range candidates {
		score := Ratio(sortedQuery, SortTokens(Normalize(candidate)))
		if score > best.Score {
			best = Match{Index: i, Score: score}
		}
	}

	if best.Score < cutoff {
		return Match{}, false
	}
	return best, true
}
