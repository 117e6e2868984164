package embedding

import "context"

// Provider maps text to vectors of a fixed dimension. EmbedMany preserves
// input order and returns one vector per text.
type Provider interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Batches splits texts into consecutive slices of at most size entries.
func Batches(texts []string, size int) [][]string {
	if size <= 0 || len(texts) <= size {
		if len(texts) == 0 {
			return nil
		}
		return [][]string{texts}
	}
	out := make([][]string, 0, (len(texts)+size-1)/size)
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		out = append(out, texts[start:end])
	}
	return out
}
