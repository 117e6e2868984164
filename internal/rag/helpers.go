package rag

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/internal/domain/jobModel"
	"github.com/akolanti/DocAssist/internal/metrics"
	"github.com/akolanti/DocAssist/internal/rag/access"
	"github.com/akolanti/DocAssist/internal/rag/ingest"
	"github.com/akolanti/DocAssist/internal/rag/llm"
	"github.com/akolanti/DocAssist/internal/rag/ranking"
	"github.com/akolanti/DocAssist/pkg/logger_i"
)

type askStep string

const (
	stepRetrieve askStep = "RETRIEVE"
	stepRank     askStep = "RANK"
	stepFilter   askStep = "FILTER"
	stepAssemble askStep = "ASSEMBLE"
	stepGenerate askStep = "GENERATE"
	stepPersist  askStep = "PERSIST"
	stepDone     askStep = "DONE"
	stepFailed   askStep = "FAILED"
)

const greetingAnswer = "Hello! I can answer questions about the documents you have uploaded. What would you like to know?"

var greetingPrefixes = []string{"good morning", "good afternoon", "good evening", "greetings", "hello", "hey", "hi"}

// isGreeting matches a greeting word at the start, followed by the end of
// the text or a non-letter, so "hiring" is not a greeting.
func isGreeting(question string) bool {
	q := strings.ToLower(strings.TrimSpace(question))
	for _, p := range greetingPrefixes {
		if !strings.HasPrefix(q, p) {
			continue
		}
		rest := q[len(p):]
		if rest == "" {
			return true
		}
		r, _ := utf8.DecodeRuneInString(rest)
		if !unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// FallbackPicker chooses the answer shown when generation fails.
type FallbackPicker func() string

var fallbackMessages = []string{
	"I'm currently experiencing high demand and may take a moment to respond. Based on your documents, I found relevant information, but I'm temporarily unable to process it fully. Please try again in a few moments.",
	"The AI service is temporarily busy. I've found relevant information in your documents, but I need a moment to process your question. Please try again shortly.",
	"I'm processing a lot of requests right now. I found relevant content in your documents, but I'll need you to try again in a moment for a complete answer.",
	"Due to high traffic, I'm experiencing a slight delay. I've located relevant information in your documents - please try your question again in a few seconds.",
	"I'm temporarily at capacity. I found relevant information in your uploaded documents, but I need a brief moment before I can provide a full response. Please try again shortly.",
	"The service is currently handling many requests. I've identified relevant content in your documents - please wait a moment and try again for a detailed answer.",
	"I'm experiencing temporary high demand. I found information related to your question in your documents, but I need a moment to process it. Please try again soon.",
	"Due to current service load, I'm temporarily unable to provide a full response. I've found relevant information in your documents - please try again in a few moments.",
}

func FallbackMessages() []string {
	return append([]string(nil), fallbackMessages...)
}

func RandomFallback() string {
	return fallbackMessages[rand.IntN(len(fallbackMessages))]
}

func logStep(log *logger_i.Logger, step askStep) {
	log.Debug("AskQuestion", "step", step)
}

func (s *service) jobError(job jobModel.Job, err error, message string, canRetry bool) jobModel.Job {
	s.logger.Error(message, "jobId", job.Id, "error", err)

	code, text := http.StatusInternalServerError, "Internal Server Error"
	if isUserFacingIngestError(err) {
		code, text, canRetry = http.StatusUnprocessableEntity, err.Error(), false
	}
	job.Error = jobModel.JobError{
		Code:    code,
		Message: text,
		Retry:   canRetry,
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	job.EndTime = time.Now()
	return job
}

func isUserFacingIngestError(err error) bool {
	for _, target := range []error{ingest.ErrMissingFilename, ingest.ErrEmptyFile, ingest.ErrFileTooLarge, ingest.ErrUnsupportedType, ingest.ErrNoText, errNoChunks} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *service) executeEmbeddingStep(ctx context.Context, log *logger_i.Logger, question string) ([]float32, error) {
	logStep(log, stepRetrieve)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	return s.embedder.EmbedOne(ctx, question)
}

func (s *service) executeRetrieveStep(ctx context.Context, log *logger_i.Logger, vector []float32, req AskRequest) (ranking.Result, error) {
	logStep(log, stepRank)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return s.retriever.Retrieve(ctx, vector, req.Question, req.UserId, req.SessionId, req.TopK)
}

func (s *service) executeFilterStep(ctx context.Context, log *logger_i.Logger, userId string, matches []commonModels.ScoredMatch) ([]commonModels.ScoredMatch, access.EnabledSet, error) {
	logStep(log, stepFilter)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("access_filter", time.Since(start)) }()

	raw, err := s.registry.ListEnabledDocumentIDs(ctx, userId)
	if err != nil {
		return nil, access.EnabledSet{}, err
	}
	enabled := access.NewEnabledSet(raw)
	return s.policy.Filter(ctx, matches, enabled), enabled, nil
}

func (s *service) executeLLMStep(ctx context.Context, log *logger_i.Logger, question string, contextText string) (string, error) {
	logStep(log, stepGenerate)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.generator.Generate(ctx, llm.Request{
		SystemInstruction: s.systemInstruction,
		Prompt:            llm.BuildPrompt(contextText, question),
		Temperature:       s.temperature,
		MaxTokens:         s.maxTokens,
	})
}

func noContextReason(candidates int, enabled access.EnabledSet) NoContextReason {
	switch {
	case candidates == 0:
		return NoDocumentsIndexed
	case enabled.Len() == 0:
		return NoEnabledDocuments
	default:
		return NoRelevantDocuments
	}
}
