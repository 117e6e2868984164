package openaiLLM

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
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Client struct {
	api    openai.Client
	model  string
	logger *logger_i.Logger
}

var _ llm.Provider = (*Client)(nil)

func New(settings config.LLMSettings) (*Client, error) {
	if settings.APIKey == "" {
		return nil, errors.New("openai: missing api key")
	}
	api := openai.NewClient(
		option.WithAPIKey(settings.APIKey),
		option.WithHTTPClient(customHttpClient.New(settings.Timeout)),
		// retries are handled by llm.WithRetry
		option.WithMaxRetries(0),
	)

	logger := logger_i.NewLogger("llm_openai")
	logger.Info("OpenAI client created", "model", settings.Model)
	return &Client{api: api, model: settings.Model, logger: logger}, nil
}

func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	log := c.logger.FromContext(ctx)

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemInstruction),
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(float64(req.Temperature)),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
	})
	if err != nil {
		log.Error("OpenAI completion failed", "error", err)
		return "", classify(err, time.Now())
	}
	if len(resp.Choices) == 0 {
		return "", &llm.GenerationError{Kind: llm.ServerError, Err: errors.New("openai returned no choices")}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &llm.GenerationError{Kind: llm.ServerError, Err: fmt.Errorf("openai returned an empty answer (finish reason %q)", resp.Choices[0].FinishReason)}
	}
	return text, nil
}

func classify(err error, now time.Time) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		var retryAfter time.Duration
		if apiErr.Response != nil {
			retryAfter = llm.ParseRetryAfter(apiErr.Response.Header.Get("Retry-After"), now)
		}
		return llm.FromStatus(apiErr.StatusCode, retryAfter, err)
	}
	return llm.Classify(err)
}
