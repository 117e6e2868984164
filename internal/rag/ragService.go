package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/domain/chatModel"
	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/internal/domain/jobModel"
	"github.com/akolanti/DocAssist/internal/metrics"
	"github.com/akolanti/DocAssist/internal/rag/access"
	"github.com/akolanti/DocAssist/internal/rag/chunking"
	"github.com/akolanti/DocAssist/internal/rag/contextbuilder"
	"github.com/akolanti/DocAssist/internal/rag/embedding"
	"github.com/akolanti/DocAssist/internal/rag/ingest"
	"github.com/akolanti/DocAssist/internal/rag/llm"
	"github.com/akolanti/DocAssist/internal/rag/ranking"
	"github.com/akolanti/DocAssist/internal/rag/vectorDB"
	"github.com/akolanti/DocAssist/pkg/logger_i"
)

/*
ARCHITECTURE NOTE: OPAQUE INTERFACE PATTERN
---------------------------------------------------------

Service is the public contract the handlers, the worker and the MCP server
call. service is the private struct holding the clients (embedder, the two
vector indexes, generator, stores). Nothing outside this package reaches the
clients directly, and every client arrives through Dependencies so tests can
hand in fakes.
*/

type Service interface {
	AskQuestion(ctx context.Context, req AskRequest) (AskResult, error)
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
	StoreDocumentChunks(ctx context.Context, chunks []commonModels.Chunk, userId string, sessionId string, documentId commonModels.DocumentID) (int, error)
	DeleteDocumentVectors(ctx context.Context, filter commonModels.Filter) error
	DeleteDocument(ctx context.Context, userId string, id commonModels.DocumentID) (commonModels.Document, error)
	SearchSimilarMessages(ctx context.Context, userId string, sessionId string, query string, limit int) ([]chatModel.ChatMessage, error)
	DeleteSession(ctx context.Context, userId string, sessionId string) error
}

// Dependencies are the clients built in main. Fallback may be nil.
type Dependencies struct {
	Embedder       embedding.Provider
	DocumentIndex  vectorDB.Index
	ChatIndex      vectorDB.Index
	Generator      llm.Provider
	Transcripts    chatModel.TranscriptStore
	Registry       commonModels.DocumentRegistry
	Fallback       FallbackPicker
	Now            func() time.Time
	IndexChatAsync bool
}

var errNoChunks = errors.New("no extractable content")

type service struct {
	embedder    embedding.Provider
	documents   vectorDB.Index
	chats       vectorDB.Index
	generator   llm.Provider
	transcripts chatModel.TranscriptStore
	registry    commonModels.DocumentRegistry
	retriever   *ranking.Retriever
	policy      *access.Policy
	chunker     *chunking.Engine
	fallback    FallbackPicker
	now         func() time.Time

	defaultTopK       int
	maxTopK           int
	maxContextChars   int
	systemInstruction string
	temperature       float32
	maxTokens         int
	embedBatchSize    int
	indexChatAsync    bool

	logger *logger_i.Logger
}

func NewService(deps Dependencies, settings *config.Settings) Service {
	fallback := deps.Fallback
	if fallback == nil {
		fallback = RandomFallback
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	batch := settings.Embedding.BatchSize
	if batch <= 0 {
		batch = config.EmbeddingBatchSize
	}

	return &service{
		embedder:    embedding.NewChecked(deps.Embedder, settings.Embedding.Dimension),
		documents:   deps.DocumentIndex,
		chats:       deps.ChatIndex,
		generator:   deps.Generator,
		transcripts: deps.Transcripts,
		registry:    deps.Registry,
		retriever:   ranking.NewRetriever(deps.DocumentIndex, settings.Retrieval.MinHybridScore),
		policy:      access.NewPolicy(settings.Access.AllowLegacyUnscoped),
		chunker: chunking.New(chunking.Options{
			ChunkSize:        settings.Chunking.ChunkSize,
			OverlapSentences: settings.Chunking.OverlapSentences,
		}),
		fallback:          fallback,
		now:               now,
		defaultTopK:       settings.Retrieval.DefaultTopK,
		maxTopK:           settings.Retrieval.MaxTopK,
		maxContextChars:   settings.Retrieval.MaxContextChars,
		systemInstruction: config.ModelContext,
		temperature:       settings.LLM.Temperature,
		maxTokens:         settings.LLM.MaxTokens,
		embedBatchSize:    batch,
		indexChatAsync:    deps.IndexChatAsync,
		logger:            logger_i.NewLogger("rag_service"),
	}
}

func (s *service) AskQuestion(ctx context.Context, req AskRequest) (AskResult, error) {
	log := s.logger.FromContext(ctx).With("userId", req.UserId, "sessionId", req.SessionId)

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" || strings.TrimSpace(req.SessionId) == "" || strings.TrimSpace(req.UserId) == "" {
		metrics.RecordAnswerOutcome("invalid")
		return AskResult{}, fmt.Errorf("%w: userId, sessionId and question are required", ErrValidation)
	}
	if err := chatModel.ValidateSessionID(req.SessionId); err != nil {
		metrics.RecordAnswerOutcome("invalid")
		return AskResult{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	req.TopK = s.clampTopK(req.TopK)

	if isGreeting(req.Question) {
		log.Debug("greeting short-circuit")
		s.persistExchange(ctx, log, req, greetingAnswer)
		metrics.RecordAnswerOutcome("greeting")
		return AskResult{Success: true, Answer: greetingAnswer, Sources: []commonModels.Source{}, Greeting: true}, nil
	}

	vector, err := s.executeEmbeddingStep(ctx, log, req.Question)
	if err != nil {
		return s.failed(log, &RetrievalError{Op: "embedding", Err: err})
	}

	retrieved, err := s.executeRetrieveStep(ctx, log, vector, req)
	if err != nil {
		rErr := &RetrievalError{Op: "vector search", Err: err}
		if rErr.Unreachable() {
			log.Error("vector index unreachable", "error", err)
		}
		return s.failed(log, rErr)
	}

	allowed, enabled, err := s.executeFilterStep(ctx, log, req.UserId, retrieved.Matches)
	if err != nil {
		return s.failed(log, &RetrievalError{Op: "document access", Err: err})
	}
	if len(allowed) == 0 {
		reason := noContextReason(retrieved.Candidates, enabled)
		log.Info("no usable context", "reason", reason, "candidates", retrieved.Candidates, "enabledDocuments", enabled.Len())
		metrics.RecordAnswerOutcome(string(reason))
		return AskResult{Success: false, Error: reason.Message(), NoContext: reason}, nil
	}
	if len(allowed) > req.TopK {
		allowed = allowed[:req.TopK]
	}

	logStep(log, stepAssemble)
	contextText, sources := contextbuilder.Assemble(allowed, s.maxContextChars)

	result := AskResult{Success: true, Sources: sources}
	answer, err := s.executeLLMStep(ctx, log, req.Question, contextText)
	if err != nil {
		log.Error("generation failed, using fallback answer", "error", err)
		answer = s.fallback()
		result.Fallback = true
		metrics.RecordAnswerOutcome("fallback")
	} else {
		metrics.RecordAnswerOutcome("answered")
	}
	result.Answer = answer

	s.persistExchange(ctx, log, req, answer)
	logStep(log, stepDone)
	return result, nil
}

func (s *service) failed(log *logger_i.Logger, err error) (AskResult, error) {
	logStep(log, stepFailed)
	log.Error("ask failed", "error", err)
	metrics.RecordAnswerOutcome("retrieval_error")
	return AskResult{}, err
}

func (s *service) clampTopK(topK int) int {
	if topK <= 0 {
		topK = s.defaultTopK
	}
	if s.maxTopK > 0 && topK > s.maxTopK {
		topK = s.maxTopK
	}
	return topK
}

// persistExchange appends the question and the answer as one unit. It runs on
// a context detached from the request so an answer produced after the ask
// deadline is still recorded. Failures are logged only.
func (s *service) persistExchange(ctx context.Context, log *logger_i.Logger, req AskRequest, answer string) {
	logStep(log, stepPersist)
	detached := context.WithoutCancel(ctx)
	pctx, cancel := context.WithTimeout(detached, config.PersistTimeout)
	defer cancel()

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("transcript_persist", time.Since(start)) }()

	asked := s.now().UTC()
	answered := s.now().UTC()
	if !answered.After(asked) {
		answered = asked.Add(time.Nanosecond)
	}
	msgs := []chatModel.ChatMessage{
		{UserId: req.UserId, SessionId: req.SessionId, Role: chatModel.RoleUser, Message: req.Question, Timestamp: asked},
		{UserId: req.UserId, SessionId: req.SessionId, Role: chatModel.RoleAssistant, Message: answer, Timestamp: answered},
	}
	if err := s.transcripts.AppendMessages(pctx, req.UserId, req.SessionId, msgs...); err != nil {
		log.Error("failed to persist chat exchange", "error", err)
		return
	}

	if s.chats == nil {
		return
	}
	if s.indexChatAsync {
		go s.indexChatMessages(detached, log, msgs)
		return
	}
	s.indexChatMessages(detached, log, msgs)
}

// indexChatMessages makes the exchange searchable. Best effort.
func (s *service) indexChatMessages(ctx context.Context, log *logger_i.Logger, msgs []chatModel.ChatMessage) {
	ctx, cancel := context.WithTimeout(ctx, config.EmbeddingCallTimeout)
	defer cancel()

	texts := make([]string, len(msgs))
	for i, m := range msgs {
		texts[i] = m.Message
	}
	vectors, err := s.embedder.EmbedMany(ctx, texts)
	if err != nil {
		log.Warn("failed to embed chat messages", "error", err)
		return
	}
	records := make([]commonModels.VectorRecord, len(msgs))
	for i, m := range msgs {
		records[i] = vectorDB.ChatMessageRecord(m, vectors[i])
	}
	if err := s.chats.Upsert(ctx, records); err != nil {
		log.Warn("failed to index chat messages", "error", err)
	}
}

// StoreDocumentChunks embeds every chunk first and writes nothing unless all
// vectors came back with the index dimension.
func (s *service) StoreDocumentChunks(ctx context.Context, chunks []commonModels.Chunk, userId string, sessionId string, documentId commonModels.DocumentID) (int, error) {
	log := s.logger.FromContext(ctx).With("documentId", documentId)
	if len(chunks) == 0 {
		return 0, nil
	}

	start := time.Now()
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedMany(ctx, texts)
	metrics.CaptureExecutionMetrics("embedding_batch", time.Since(start))
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	records := make([]commonModels.VectorRecord, len(chunks))
	for i, c := range chunks {
		records[i] = vectorDB.DocumentChunkRecord(c, vectors[i], userId, sessionId, documentId.String())
	}

	start = time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_upsert", time.Since(start)) }()
	stored := 0
	for i := 0; i < len(records); i += s.embedBatchSize {
		end := min(i+s.embedBatchSize, len(records))
		if err := s.documents.Upsert(ctx, records[i:end]); err != nil {
			return stored, fmt.Errorf("upsert chunks: %w", err)
		}
		stored = end
	}
	log.Info("stored document chunks", "count", stored)
	metrics.AddIngestedChunks(stored)
	return stored, nil
}

// DeleteDocumentVectors removes vectors matching filter. The filter must be
// scoped to a user and a document.
func (s *service) DeleteDocumentVectors(ctx context.Context, filter commonModels.Filter) error {
	log := s.logger.FromContext(ctx)
	if filter[commonModels.MetaUserId] == "" || (filter[commonModels.MetaDocumentId] == "" && filter[commonModels.MetaFileName] == "") {
		return fmt.Errorf("%w: delete needs userId and documentId or fileName", ErrValidation)
	}
	if err := s.documents.Delete(ctx, filter); err != nil {
		log.Error("failed to delete document vectors", "filter", filter, "error", err)
		return err
	}
	return nil
}

func (s *service) DeleteDocument(ctx context.Context, userId string, id commonModels.DocumentID) (commonModels.Document, error) {
	doc, err := s.registry.DeleteDocument(ctx, userId, id)
	if err != nil {
		return commonModels.Document{}, err
	}
	// the registry row is gone, stale vectors are dropped by the access filter
	_ = s.DeleteDocumentVectors(ctx, commonModels.Filter{
		commonModels.MetaUserId:     userId,
		commonModels.MetaDocumentId: id.String(),
	})
	return doc, nil
}

func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("Document_ingestion", time.Since(start)) }()
	log := s.logger.FromContext(ctx).With("jobId", job.Id)

	path := job.JobPayload.IngestURL
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("failed to remove upload", "path", path, "error", err)
		}
	}()

	job.CurrentStep = jobModel.IngestExtracting
	extracted, err := ingest.Extract(ctx, path, job.JobPayload.IngestFileName)
	if err != nil {
		return s.jobError(job, err, "INGEST_EXTRACTION_FAILURE", false)
	}

	job.CurrentStep = jobModel.IngestChunking
	chunks := s.chunker.Chunk(extracted.Text, extracted.File)
	if len(chunks) == 0 {
		return s.jobError(job, errNoChunks, "INGEST_CHUNKING_FAILURE", false)
	}

	doc := commonModels.Document{
		Id:        commonModels.NewDocumentID(),
		UserId:    job.UserId,
		Title:     extracted.File.Name,
		FileName:  extracted.File.Name,
		FileType:  extracted.File.Type,
		Status:    "ready",
		IsEnabled: true,
		CreatedAt: s.now().UTC(),
	}
	if err := s.registry.CreateDocument(ctx, doc); err != nil {
		return s.jobError(job, err, "INGEST_REGISTRY_FAILURE", true)
	}
	for i := range chunks {
		chunks[i].Metadata.DocumentId = doc.Id.String()
	}

	job.CurrentStep = jobModel.IngestEmbedding
	stored, err := s.StoreDocumentChunks(ctx, chunks, job.UserId, job.SessionId, doc.Id)
	if err != nil {
		if stored > 0 {
			_ = s.DeleteDocumentVectors(ctx, commonModels.Filter{
				commonModels.MetaUserId:     job.UserId,
				commonModels.MetaDocumentId: doc.Id.String(),
			})
		}
		if _, delErr := s.registry.DeleteDocument(ctx, job.UserId, doc.Id); delErr != nil {
			log.Error("failed to roll back document registration", "documentId", doc.Id, "error", delErr)
		}
		return s.jobError(job, err, "INGEST_STORE_FAILURE", !errors.Is(err, embedding.ErrEmbeddingDimensionMismatch))
	}

	job.JobPayload.DocumentId = doc.Id.String()
	job.JobPayload.ChunkCount = stored
	job.Status = jobModel.JobStatusComplete
	job.CurrentStep = jobModel.Complete
	job.EndTime = time.Now()
	log.Info("document ingested", "documentId", doc.Id, "chunks", stored, "pages", extracted.File.PageCount)
	return job
}

func (s *service) SearchSimilarMessages(ctx context.Context, userId string, sessionId string, query string, limit int) ([]chatModel.ChatMessage, error) {
	query = strings.TrimSpace(query)
	if userId == "" || query == "" {
		return nil, fmt.Errorf("%w: userId and query are required", ErrValidation)
	}
	if sessionId != "" {
		if err := chatModel.ValidateSessionID(sessionId); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	if s.chats == nil {
		return []chatModel.ChatMessage{}, nil
	}
	limit = s.clampTopK(limit)

	active := map[string]bool{}
	sessions, err := s.transcripts.ListSessions(ctx, userId)
	if err != nil {
		return nil, err
	}
	for _, sess := range sessions {
		active[sess.SessionId] = sess.IsActive()
	}
	if sessionId != "" && !active[sessionId] {
		return nil, chatModel.ErrSessionNotFound
	}

	vector, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, &RetrievalError{Op: "embedding", Err: err}
	}
	filter := commonModels.Filter{commonModels.MetaUserId: userId}
	if sessionId != "" {
		filter[commonModels.MetaSessionId] = sessionId
	}
	matches, err := s.chats.Query(ctx, vector, limit, filter)
	if err != nil {
		return nil, &RetrievalError{Op: "chat search", Err: err}
	}

	out := make([]chatModel.ChatMessage, 0, len(matches))
	for _, m := range matches {
		msg := vectorDB.ChatMessageFromMatch(m)
		if !active[msg.SessionId] {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *service) DeleteSession(ctx context.Context, userId string, sessionId string) error {
	if err := chatModel.ValidateSessionID(sessionId); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := s.transcripts.SoftDeleteSession(ctx, userId, sessionId); err != nil {
		return err
	}
	if s.chats == nil {
		return nil
	}
	err := s.chats.Delete(ctx, commonModels.Filter{
		commonModels.MetaUserId:    userId,
		commonModels.MetaSessionId: sessionId,
	})
	if err != nil {
		s.logger.FromContext(ctx).Warn("failed to delete chat vectors", "sessionId", sessionId, "error", err)
	}
	return nil
}
