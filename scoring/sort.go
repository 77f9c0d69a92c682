package scoring

import (
	"cmp"
	"slices"
	"strings"

	"github.com/poiesic/aisearch/core"
)

// SortResults orders results by final score descending, then document id ascending.
func SortResults(results []core.ScoredResult) {
	slices.SortStableFunc(results, func(a, b core.ScoredResult) int {
		return byScoreThenID(a.FinalScore, b.FinalScore, a.DocumentID, b.DocumentID)
	})
}

// SortSimilar orders similar documents the same way as SortResults.
func SortSimilar(results []core.SimilarResult) {
	slices.SortStableFunc(results, func(a, b core.SimilarResult) int {
		return byScoreThenID(a.Score, b.Score, a.DocumentID, b.DocumentID)
	})
}

// SortPassages orders passages by score descending, then document id and chunk index.
func SortPassages(passages []core.PassageMatch) {
	slices.SortStableFunc(passages, func(a, b core.PassageMatch) int {
		if c := byScoreThenID(a.Score, b.Score, a.DocumentID, b.DocumentID); c != 0 {
			return c
		}
		return cmp.Compare(a.ChunkIndex, b.ChunkIndex)
	})
}

// SortHits orders raw index hits with the same tie-break. Backends use it so
// equal scores come back in a deterministic order.
func SortHits(hits []core.Hit) {
	slices.SortStableFunc(hits, func(a, b core.Hit) int {
		if c := byScoreThenID(a.Score, b.Score, a.DocumentID, b.DocumentID); c != 0 {
			return c
		}
		if a.Passage != nil && b.Passage != nil {
			return cmp.Compare(a.Passage.ChunkIndex, b.Passage.ChunkIndex)
		}
		return 0
	})
}

func byScoreThenID(sa, sb float32, ida, idb string) int {
	if c := cmp.Compare(sb, sa); c != 0 {
		return c
	}
	return strings.Compare(ida, idb)
}
