package googleEmbedding

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/akolanti/DocAssist/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const rateLimitWait = 5 * time.Second

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))

	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

func doRetry(err error, log *logger_i.Logger) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		log.Warn("Rate limit hit! ", "error", err)
		return true
	}
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		log.Warn("Rate limit hit! ", "error", err)
		return true
	}
	return false
}

// callWithRetry retries a rate-limited batch once after a short wait.
func (c *Client) callWithRetry(ctx context.Context, content []*genai.Content, log *logger_i.Logger) (*genai.EmbedContentResponse, error) {
	res, err := c.doCall(ctx, content, taskDocument)
	if err == nil {
		return res, nil
	}
	if !doRetry(err, log) {
		return nil, err
	}

	log.Debug("Retrying in 5 seconds")
	if sleepErr := c.sleep(ctx, rateLimitWait); sleepErr != nil {
		return nil, sleepErr
	}
	return c.doCall(ctx, content, taskDocument)
}
