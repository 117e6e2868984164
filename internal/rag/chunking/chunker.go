// Package chunking splits extracted document text into overlapping,
// sentence-aligned chunks.
package chunking

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/akolanti/DocAssist/internal/domain/commonModels"
)

const (
	DefaultChunkSize        = 600
	DefaultOverlapSentences = 2

	// sentences at or below this many characters are noise
	minSentenceChars = 10
	// chunks at or below this many characters are dropped
	minChunkChars = 30
)

type FileInfo struct {
	Name      string
	Type      string
	Size      int64
	PageCount int
}

type Options struct {
	ChunkSize        int
	OverlapSentences int
}

type Engine struct {
	chunkSize int
	overlap   int
	now       func() time.Time
}

func New(opts Options) *Engine {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.OverlapSentences < 0 {
		opts.OverlapSentences = 0
	}
	return &Engine{
		chunkSize: opts.ChunkSize,
		overlap:   opts.OverlapSentences,
		now:       time.Now,
	}
}

// Chunk returns the chunks of text in order. An empty result means the text
// had no extractable content.
func (e *Engine) Chunk(text string, file FileInfo) []commonModels.Chunk {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var texts []string
	var buffer []string
	bufferLen := 0

	closeBuffer := func() {
		chunk := strings.TrimSpace(strings.Join(buffer, " "))
		if utf8.RuneCountInString(chunk) > minChunkChars {
			texts = append(texts, chunk)
		}
	}

	for _, sentence := range sentences {
		sentenceLen := utf8.RuneCountInString(sentence) + 1
		if bufferLen+sentenceLen > e.chunkSize && len(buffer) > 0 {
			closeBuffer()

			seed := tail(buffer, e.overlap)
			buffer = append(seed, sentence)
			bufferLen = joinedLen(buffer)
			continue
		}
		buffer = append(buffer, sentence)
		bufferLen += sentenceLen
	}
	if len(buffer) > 0 {
		closeBuffer()
	}

	uploadedAt := e.now().UTC()
	chunks := make([]commonModels.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = commonModels.Chunk{
			Text: t,
			Metadata: commonModels.ChunkMetadata{
				FileName:    file.Name,
				FileType:    file.Type,
				FileSize:    file.Size,
				ChunkIndex:  i,
				TotalChunks: len(texts),
				PageCount:   file.PageCount,
				ChunkId:     commonModels.ChunkID(file.Name, i, uploadedAt),
				UploadedAt:  uploadedAt,
			},
		}
	}
	return chunks
}

// SplitSentences cuts text after '.', '!' or '?' when followed by
// whitespace and drops sentences of 10 characters or fewer.
func SplitSentences(text string) []string {
	var out []string
	keep := func(s string) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > minSentenceChars {
			out = append(out, s)
		}
	}

	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		keep(string(runes[start : i+1]))
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(runes) {
		keep(string(runes[start:]))
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func tail(sentences []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if n > len(sentences) {
		n = len(sentences)
	}
	out := make([]string, n)
	copy(out, sentences[len(sentences)-n:])
	return out
}

func joinedLen(sentences []string) int {
	total := 0
	for _, s := range sentences {
		total += utf8.RuneCountInString(s) + 1
	}
	return total
}
