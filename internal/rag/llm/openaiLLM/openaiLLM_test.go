package openaiLLM

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/akolanti/DocAssist/internal/rag/llm"
	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_UsesStatusAndRetryAfter(t *testing.T) {
	resp := &http.Response{StatusCode: 429, Header: http.Header{}}
	resp.Header.Set("Retry-After", "12")
	apiErr := &openai.Error{StatusCode: 429, Response: resp}

	var genErr *llm.GenerationError
	require.True(t, errors.As(classify(apiErr, time.Now()), &genErr))
	assert.Equal(t, llm.RateLimited, genErr.Kind)
	assert.Equal(t, 12*time.Second, genErr.RetryAfter)
}

func TestClassify_ClientError(t *testing.T) {
	apiErr := &openai.Error{StatusCode: 401}

	var genErr *llm.GenerationError
	require.True(t, errors.As(classify(apiErr, time.Now()), &genErr))
	assert.Equal(t, llm.ClientError, genErr.Kind)
	assert.False(t, genErr.Retryable())
}

func TestClassify_Timeout(t *testing.T) {
	var genErr *llm.GenerationError
	require.True(t, errors.As(classify(context.DeadlineExceeded, time.Now()), &genErr))
	assert.Equal(t, llm.NetworkError, genErr.Kind)
}
