// Package ranking re-scores vector matches with keyword overlap and applies
// the retrieval policy around the document index.
package ranking

import (
	"math"
	"sort"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/domain/commonModels"
)

// keyword contribution saturates at this many occurrences per keyword
const keywordSaturation = 5.0

func HybridScore(semantic float64, keyword float64) float64 {
	return semantic*config.SemanticWeight + math.Min(keyword/keywordSaturation, 1)*config.KeywordWeight
}

// Rank scores every match against query and sorts by hybrid score, best
// first. Ties keep their index order.
func Rank(matches []commonModels.RetrievalMatch, query string) []commonModels.ScoredMatch {
	keywords := Keywords(query)
	scored := make([]commonModels.ScoredMatch, len(matches))
	for i, m := range matches {
		kw := KeywordScore(m.Text, keywords)
		scored[i] = commonModels.ScoredMatch{
			RetrievalMatch: m,
			KeywordScore:   kw,
			HybridScore:    HybridScore(m.SemanticScore, kw),
		}
	}
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].HybridScore > scored[b].HybridScore
	})
	return scored
}
