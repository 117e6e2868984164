// Package contextbuilder turns ranked matches into the prompt context.
package contextbuilder

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/domain/commonModels"
)

const blockSeparator = "\n"

// Assemble appends matches in the given order until the next block would
// push the context past maxChars, then stops. Sources list only the
// included matches. maxChars counts characters (runes), not bytes.
func Assemble(matches []commonModels.ScoredMatch, maxChars int) (string, []commonModels.Source) {
	var b strings.Builder
	used := 0
	sources := make([]commonModels.Source, 0, len(matches))

	for _, m := range matches {
		text := strings.TrimSpace(m.Text)
		if text == "" {
			continue
		}
		text = commonModels.Truncate(text, config.VectorMetadataTextSize)

		fileName := commonModels.MetaString(m.Metadata, commonModels.MetaFileName)
		chunkIndex := commonModels.MetaInt(m.Metadata, commonModels.MetaChunkIndex)
		block := fmt.Sprintf("[Source: %s | chunk %d]\n%s\n", fileName, chunkIndex, text)

		added := utf8.RuneCountInString(block)
		if b.Len() > 0 {
			added += utf8.RuneCountInString(blockSeparator)
		}
		if used+added > maxChars {
			break
		}
		if b.Len() > 0 {
			b.WriteString(blockSeparator)
		}
		b.WriteString(block)
		used += added

		sources = append(sources, commonModels.Source{
			DocumentId: commonModels.MetaString(m.Metadata, commonModels.MetaDocumentId),
			FileName:   fileName,
			ChunkIndex: chunkIndex,
			Score:      m.HybridScore,
		})
	}
	return b.String(), sources
}
