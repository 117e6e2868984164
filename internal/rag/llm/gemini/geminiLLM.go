package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/customHttpClient"
	"github.com/akolanti/DocAssist/internal/rag/llm"
	"github.com/akolanti/DocAssist/pkg/logger_i"
	"google.golang.org/genai"
)

const retryInfoType = "type.googleapis.com/google.rpc.RetryInfo"

type Client struct {
	genAi     *genai.Client
	modelName string
	timeout   time.Duration
	logger    *logger_i.Logger
}

var _ llm.Provider = (*Client)(nil)

func New(ctx context.Context, settings config.LLMSettings) (*Client, error) {
	if settings.APIKey == "" {
		return nil, errors.New("gemini: missing api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     settings.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: customHttpClient.New(0),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	logger := logger_i.NewLogger("llm_gemini")
	logger.Info("Gemini client created", "model", settings.Model)
	return &Client{genAi: c, modelName: settings.Model, timeout: settings.Timeout, logger: logger}, nil
}

func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	log := c.logger.FromContext(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
		},
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: int32(req.MaxTokens),
	}

	result, err := c.genAi.Models.GenerateContent(ctx, c.modelName, genai.Text(req.Prompt), contentConfig)
	if err != nil {
		log.Error("Gemini generate failed", "error", err)
		return "", classify(err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", &llm.GenerationError{Kind: llm.ServerError, Err: errors.New("gemini returned an empty answer")}
	}
	return text, nil
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llm.FromStatus(apiErr.Code, retryDelay(apiErr.Details), err)
	}
	return llm.Classify(err)
}

// retryDelay reads google.rpc.RetryInfo from the error details, e.g.
// {"@type": ".../google.rpc.RetryInfo", "retryDelay": "17s"}.
func retryDelay(details []map[string]any) time.Duration {
	for _, d := range details {
		if t, _ := d["@type"].(string); t != retryInfoType {
			continue
		}
		raw, _ := d["retryDelay"].(string)
		if delay, err := time.ParseDuration(raw); err == nil && delay > 0 {
			return delay
		}
	}
	return 0
}
