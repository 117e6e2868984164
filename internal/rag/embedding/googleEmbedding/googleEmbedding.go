package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/customHttpClient"
	"github.com/akolanti/DocAssist/internal/rag/embedding"
	"github.com/akolanti/DocAssist/pkg/logger_i"
	"google.golang.org/genai"
)

const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

type Client struct {
	genAi     *genai.Client
	model     string
	dimension int32
	batchSize int
	timeout   time.Duration
	logger    *logger_i.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

var _ embedding.Provider = (*Client)(nil)

func New(ctx context.Context, settings config.EmbeddingSettings) (*Client, error) {
	if settings.APIKey == "" {
		return nil, errors.New("google embedding: missing api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     settings.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: customHttpClient.New(0),
	})
	if err != nil {
		return nil, fmt.Errorf("google embedding: %w", err)
	}

	logger := logger_i.NewLogger("google_embedding")
	logger.Info("Google Embedding client created", "model", settings.Model, "dimension", settings.Dimension)

	return &Client{
		genAi:     c,
		model:     settings.Model,
		dimension: int32(settings.Dimension),
		batchSize: settings.BatchSize,
		timeout:   settings.Timeout,
		logger:    logger,
		sleep:     sleepContext,
	}, nil
}

func (c *Client) Dimension() int {
	return int(c.dimension)
}

func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	log := c.logger.FromContext(ctx)

	res, err := c.doCall(ctx, genai.Text(text), taskQuery)
	if err != nil {
		log.Error("Error getting Embedding from Google", "error", err)
		return nil, err
	}
	if len(res.Embeddings) == 0 || res.Embeddings[0] == nil {
		return nil, errors.New("google embedding: empty response")
	}
	return res.Embeddings[0].Values, nil
}

func (c *Client) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	log := c.logger.FromContext(ctx)
	results := make([][]float32, 0, len(texts))

	for i, batch := range embedding.Batches(texts, c.batchSize) {
		res, err := c.callWithRetry(ctx, getContent(batch), log)
		if err != nil {
			log.Error("Error getting Embeddings from Google", "batch", i, "error", err)
			return nil, err
		}
		for _, e := range res.Embeddings {
			if e == nil {
				results = append(results, nil)
				continue
			}
			results = append(results, e.Values)
		}
	}
	log.Debug("embedded batch", "texts", len(texts), "vectors", len(results))
	return results, nil
}

func (c *Client) doCall(ctx context.Context, content []*genai.Content, task string) (*genai.EmbedContentResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{
		OutputDimensionality: &c.dimension,
		TaskType:             task,
	})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
