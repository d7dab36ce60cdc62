package similarity

import (
	"sort"

	"github.com/kailas-cloud/bookmatch/internal/domain"
)

// Rank drops candidates scoring at or below threshold and returns at most
// topK results in descending score order. The sort is stable, so candidates
// with equal scores keep their arrival order.
func Rank(results []domain.SimilarityResult, threshold float64, topK int) []domain.SimilarityResult {
	kept := make([]domain.SimilarityResult, 0, len(results))
	for _, r := range results {
		if r.Score > threshold {
			kept = append(kept, r)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})

	if len(kept) > topK {
		kept = kept[:topK]
	}
	return kept
}
