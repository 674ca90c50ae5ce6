// Package ranker orders matched documents by relevance.
package ranker

import (
	"sort"
)

type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Rank sorts scores by descending score, breaking ties by ascending DocID so
// equal relevance always comes back in the same order. Documents with a
// non-positive or NaN score are not matches and are dropped. limit <= 0 keeps every
// match.
func Rank(scores map[string]float64, limit int) []ScoredDoc {
	result := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		if !(score > 0) {
			continue
		}
		result = append(result, ScoredDoc{
			DocID: docID,
			Score: score,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].DocID < result[j].DocID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
