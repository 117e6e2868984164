package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/customHttpClient"
	"github.com/akolanti/DocAssist/internal/rag/embedding"
	"github.com/akolanti/DocAssist/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Client struct {
	api       openai.Client
	model     string
	dimension int
	batchSize int
	logger    *logger_i.Logger
}

var _ embedding.Provider = (*Client)(nil)

func New(settings config.EmbeddingSettings) (*Client, error) {
	if settings.APIKey == "" {
		return nil, errors.New("openai embedding: missing api key")
	}
	api := openai.NewClient(
		option.WithAPIKey(settings.APIKey),
		option.WithHTTPClient(customHttpClient.New(settings.Timeout)),
	)

	logger := logger_i.NewLogger("openai_embedding")
	logger.Info("OpenAI Embedding client created", "model", settings.Model, "dimension", settings.Dimension)

	return &Client{
		api:       api,
		model:     settings.Model,
		dimension: settings.Dimension,
		batchSize: settings.BatchSize,
		logger:    logger,
	}, nil
}

func (c *Client) Dimension() int {
	return c.dimension
}

func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *Client) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, batch := range embedding.Batches(texts, c.batchSize) {
		vecs, err := c.embed(ctx, batch)
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (c *Client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	log := c.logger.FromContext(ctx)

	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: openai.Int(int64(c.dimension)),
	})
	if err != nil {
		log.Error("Error getting Embeddings from OpenAI", "error", err)
		return nil, fmt.Errorf("openai embedding: %w", err)
	}
	return toVectors(resp.Data, len(texts))
}

// toVectors orders the response by its index field and narrows to float32.
func toVectors(data []openai.Embedding, want int) ([][]float32, error) {
	if len(data) != want {
		return nil, fmt.Errorf("openai embedding: expected %d embeddings, got %d", want, len(data))
	}
	out := make([][]float32, want)
	for _, d := range data {
		if d.Index < 0 || int(d.Index) >= want {
			return nil, fmt.Errorf("openai embedding: invalid index %d", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}
