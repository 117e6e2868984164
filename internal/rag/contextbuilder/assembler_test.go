package contextbuilder

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sm(file string, idx int, score float64, text string) commonModels.ScoredMatch {
	return commonModels.ScoredMatch{
		RetrievalMatch: commonModels.RetrievalMatch{
			Text: text,
			Metadata: map[string]any{
				commonModels.MetaFileName:   file,
				commonModels.MetaChunkIndex: int64(idx),
				commonModels.MetaDocumentId: "doc-" + file,
			},
		},
		HybridScore: score,
	}
}

func TestAssemble_FormatsBlocksInRankOrder(t *testing.T) {
	ctx, sources := Assemble([]commonModels.ScoredMatch{
		sm("a.pdf", 0, 0.9, "  first chunk  "),
		sm("b.pdf", 3, 0.5, "second chunk"),
	}, 4000)

	assert.Equal(t, "[Source: a.pdf | chunk 0]\nfirst chunk\n\n[Source: b.pdf | chunk 3]\nsecond chunk\n", ctx)
	require.Len(t, sources, 2)
	assert.Equal(t, commonModels.Source{DocumentId: "doc-a.pdf", FileName: "a.pdf", ChunkIndex: 0, Score: 0.9}, sources[0])
	assert.Equal(t, 3, sources[1].ChunkIndex)
}

func TestAssemble_StopsAtFirstOverflow(t *testing.T) {
	matches := []commonModels.ScoredMatch{
		sm("a.pdf", 0, 0.9, strings.Repeat("a", 900)),
		sm("b.pdf", 1, 0.8, strings.Repeat("b", 900)),
		sm("c.pdf", 2, 0.7, "tiny"),
	}

	ctx, sources := Assemble(matches, 1200)

	assert.LessOrEqual(t, len(ctx), 1200)
	require.Len(t, sources, 1, "a lower-ranked block must not be squeezed in after an overflow")
	assert.Equal(t, "a.pdf", sources[0].FileName)
	assert.NotContains(t, ctx, "tiny")
}

func TestAssemble_BudgetAlwaysHolds(t *testing.T) {
	var matches []commonModels.ScoredMatch
	for i := 0; i < 30; i++ {
		matches = append(matches, sm("f.txt", i, 1-float64(i)/100, strings.Repeat("word ", 50+i*7)))
	}

	for _, budget := range []int{0, 50, 400, 1000, 4000} {
		ctx, sources := Assemble(matches, budget)
		assert.LessOrEqual(t, len(ctx), budget)
		assert.Equal(t, len(sources), strings.Count(ctx, "[Source: "))
	}
}

func TestAssemble_BudgetCountsCharactersNotBytes(t *testing.T) {
	// 800 CJK runes are 2400 bytes; two such blocks fit a 2000-character budget
	matches := []commonModels.ScoredMatch{
		sm("a.txt", 0, 0.9, strings.Repeat("休", 800)),
		sm("b.txt", 1, 0.8, strings.Repeat("暇", 800)),
		sm("c.txt", 2, 0.7, strings.Repeat("日", 800)),
	}

	ctx, sources := Assemble(matches, 2000)

	require.Len(t, sources, 2)
	assert.Greater(t, len(ctx), 2000)
	assert.LessOrEqual(t, utf8.RuneCountInString(ctx), 2000)
}

func TestAssemble_TruncatesLongTextAndSkipsEmpty(t *testing.T) {
	ctx, sources := Assemble([]commonModels.ScoredMatch{
		sm("empty.pdf", 0, 0.9, "   "),
		sm("long.pdf", 1, 0.8, strings.Repeat("z", 2500)),
	}, 4000)

	require.Len(t, sources, 1)
	assert.Equal(t, "long.pdf", sources[0].FileName)
	assert.Equal(t, 1000, strings.Count(ctx, "z"))
}
