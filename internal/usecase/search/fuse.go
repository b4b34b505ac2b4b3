package search

import (
	"sort"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

// Score-fusion policy. The weights and threshold are fixed constants, not
// per-call knobs: semantic similarity dominates, lexical rank contributes.
const (
	// TextRankWeight is the lexical score weight in the combined score.
	TextRankWeight = 0.3
	// SimilarityWeight is the semantic score weight in the combined score.
	SimilarityWeight = 0.7
	// SimilarityThreshold is the minimum cosine similarity for a task to
	// qualify as a candidate on semantic relevance alone.
	SimilarityThreshold = 0.7
	// DefaultLimit is the result count when the caller does not specify one.
	DefaultLimit = 5
	// candidateLimit caps how many hits each index contributes to fusion.
	candidateLimit = 50
)

// Fuse computes the combined score of one candidate.
func Fuse(textRank, similarity float64) float64 {
	return TextRankWeight*textRank + SimilarityWeight*similarity
}

// sortByScore orders results by combined score descending. Ties break on
// most recent creation time, then on higher id, so the order is total and
// deterministic.
func sortByScore(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CombinedScore != results[j].CombinedScore {
			return results[i].CombinedScore > results[j].CombinedScore
		}
		if !results[i].Task.CreatedAt.Equal(results[j].Task.CreatedAt) {
			return results[i].Task.CreatedAt.After(results[j].Task.CreatedAt)
		}
		return results[i].Task.ID > results[j].Task.ID
	})
}
