package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	one  []float32
	many [][]float32
	err  error
}

func (s *stubProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	return s.one, s.err
}

func (s *stubProvider) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	return s.many, s.err
}

func (s *stubProvider) Dimension() int { return 3 }

func TestChecked_PassesMatchingVectors(t *testing.T) {
	p := NewChecked(&stubProvider{
		one:  []float32{1, 2, 3},
		many: [][]float32{{1, 2, 3}, {4, 5, 6}},
	}, 3)

	vec, err := p.EmbedOne(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)

	vecs, err := p.EmbedMany(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, 3, p.Dimension())
}

func TestChecked_RejectsWrongSingle(t *testing.T) {
	p := NewChecked(&stubProvider{one: []float32{1, 2}}, 3)

	_, err := p.EmbedOne(context.Background(), "q")

	require.ErrorIs(t, err, ErrEmbeddingDimensionMismatch)
	var dimErr *DimensionMismatchError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 2, dimErr.Got)
	assert.Equal(t, 3, dimErr.Want)
}

func TestChecked_RejectsWrongVectorInBatch(t *testing.T) {
	p := NewChecked(&stubProvider{many: [][]float32{{1, 2, 3}, {1, 2, 3, 4}}}, 3)

	_, err := p.EmbedMany(context.Background(), []string{"a", "b"})

	var dimErr *DimensionMismatchError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 1, dimErr.Index)
}

func TestChecked_RejectsShortBatch(t *testing.T) {
	p := NewChecked(&stubProvider{many: [][]float32{{1, 2, 3}}}, 3)

	_, err := p.EmbedMany(context.Background(), []string{"a", "b"})

	assert.ErrorIs(t, err, ErrEmbeddingDimensionMismatch)
}

func TestChecked_PropagatesProviderError(t *testing.T) {
	boom := errors.New("boom")
	p := NewChecked(&stubProvider{err: boom}, 3)

	_, err := p.EmbedOne(context.Background(), "q")

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrEmbeddingDimensionMismatch)
}

func TestBatches(t *testing.T) {
	texts := []string{"a", "b", "c", "d", "e"}

	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, Batches(texts, 2))
	assert.Equal(t, [][]string{texts}, Batches(texts, 10))
	assert.Nil(t, Batches(nil, 2))
}
