package embedding

import (
	"context"
	"errors"
	"fmt"
)

var ErrEmbeddingDimensionMismatch = errors.New("embedding dimension mismatch")

// DimensionMismatchError reports the first offending vector. Index is -1 for
// single embeddings and when the batch size itself is wrong.
type DimensionMismatchError struct {
	Index int
	Got   int
	Want  int
}

func (e *DimensionMismatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: got %d, want %d", ErrEmbeddingDimensionMismatch, e.Got, e.Want)
	}
	return fmt.Sprintf("%s at index %d: got %d, want %d", ErrEmbeddingDimensionMismatch, e.Index, e.Got, e.Want)
}

func (e *DimensionMismatchError) Unwrap() error {
	return ErrEmbeddingDimensionMismatch
}

type checked struct {
	inner     Provider
	dimension int
}

// NewChecked wraps p so that every returned vector has exactly dimension
// entries. Violations are returned as errors, never truncated or padded.
func NewChecked(p Provider, dimension int) Provider {
	return &checked{inner: p, dimension: dimension}
}

func (c *checked) Dimension() int {
	return c.dimension
}

func (c *checked) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vec, err := c.inner.EmbedOne(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) != c.dimension {
		return nil, &DimensionMismatchError{Index: -1, Got: len(vec), Want: c.dimension}
	}
	return vec, nil
}

func (c *checked) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := c.inner.EmbedMany(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedding batch returned %d vectors for %d texts: %w", len(vecs), len(texts), ErrEmbeddingDimensionMismatch)
	}
	for i, v := range vecs {
		if len(v) != c.dimension {
			return nil, &DimensionMismatchError{Index: i, Got: len(v), Want: c.dimension}
		}
	}
	return vecs, nil
}
