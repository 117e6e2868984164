package rag_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/domain/chatModel"
	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/internal/domain/jobModel"
	"github.com/akolanti/DocAssist/internal/rag"
	"github.com/akolanti/DocAssist/internal/rag/embedding"
	"github.com/akolanti/DocAssist/internal/rag/llm"
	"github.com/akolanti/DocAssist/internal/rag/vectorDB"
)

const (
	enabledDoc  = commonModels.DocumentID("7a1f1c2e-1d2b-4c3d-9e8f-0a1b2c3d4e5f")
	disabledDoc = commonModels.DocumentID("0b9c8d7e-6f5a-4b3c-8d2e-1f0a9b8c7d6e")
	fixedAnswer = "fallback-answer"
)

type fixture struct {
	embedder    *MockEmbedder
	documents   *MockIndex
	chats       *MockIndex
	llm         *MockLLM
	transcripts *MockTranscripts
	registry    *MockRegistry
}

func newFixture() *fixture {
	return &fixture{
		embedder:    &MockEmbedder{},
		documents:   &MockIndex{IndexName: "documents"},
		chats:       &MockIndex{IndexName: "chat_messages"},
		llm:         &MockLLM{},
		transcripts: &MockTranscripts{},
		registry: NewMockRegistry(
			commonModels.Document{Id: enabledDoc, UserId: "user-1", FileName: "handbook.pdf", IsEnabled: true},
			commonModels.Document{Id: disabledDoc, UserId: "user-1", FileName: "old.pdf", IsEnabled: false},
		),
	}
}

func (f *fixture) service(generator llm.Provider) rag.Service {
	if generator == nil {
		generator = f.llm
	}
	settings := config.Default()
	settings.Embedding.Dimension = testDimension
	return rag.NewService(rag.Dependencies{
		Embedder:      f.embedder,
		DocumentIndex: f.documents,
		ChatIndex:     f.chats,
		Generator:     generator,
		Transcripts:   f.transcripts,
		Registry:      f.registry,
		Fallback:      func() string { return fixedAnswer },
		Now:           func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) },
	}, settings)
}

func match(id string, doc commonModels.DocumentID, text string, score float64) commonModels.RetrievalMatch {
	md := map[string]any{
		commonModels.MetaFileName:   "handbook.pdf",
		commonModels.MetaChunkIndex: int64(0),
		commonModels.MetaText:       text,
	}
	if doc != "" {
		md[commonModels.MetaDocumentId] = doc.String()
	}
	return commonModels.RetrievalMatch{Id: id, SemanticScore: score, Text: text, Metadata: md}
}

func returns(matches ...commonModels.RetrievalMatch) func(context.Context, []float32, int, commonModels.Filter) ([]commonModels.RetrievalMatch, error) {
	return func(ctx context.Context, v []float32, topK int, f commonModels.Filter) ([]commonModels.RetrievalMatch, error) {
		return matches, nil
	}
}

func ask(question string) rag.AskRequest {
	return rag.AskRequest{UserId: "user-1", SessionId: "session-1", Question: question}
}

func testContext() context.Context {
	return context.WithValue(context.Background(), config.TRACE_ID_KEY, "trace-test")
}

func TestAskQuestion_Scenarios(t *testing.T) {
	tests := []struct {
		name          string
		question      string
		setup         func(f *fixture)
		wantSuccess   bool
		wantAnswer    string
		wantNoContext rag.NoContextReason
		wantLLMCalls  int
		wantPersisted bool
	}{
		{
			name:     "Success_Full_Flow",
			question: "What is the vacation policy?",
			setup: func(f *fixture) {
				f.documents.OnQuery = returns(match("v1", enabledDoc, "The vacation policy grants twenty days per year.", 0.8))
				f.llm.OnGenerate = func(ctx context.Context, req llm.Request) (string, error) {
					return "Twenty days.", nil
				}
			},
			wantSuccess:   true,
			wantAnswer:    "Twenty days.",
			wantLLMCalls:  1,
			wantPersisted: true,
		},
		{
			name:          "Greeting_Short_Circuit",
			question:      "Hello there!",
			setup:         func(f *fixture) {},
			wantSuccess:   true,
			wantLLMCalls:  0,
			wantPersisted: true,
		},
		{
			name:     "No_Documents_Indexed",
			question: "What is the vacation policy?",
			setup: func(f *fixture) {
				f.documents.OnQuery = returns()
			},
			wantNoContext: rag.NoDocumentsIndexed,
		},
		{
			name:     "No_Enabled_Documents",
			question: "What is the vacation policy?",
			setup: func(f *fixture) {
				f.registry.Docs = map[commonModels.DocumentID]commonModels.Document{}
				f.documents.OnQuery = returns(match("v1", enabledDoc, "The vacation policy grants twenty days per year.", 0.8))
			},
			wantNoContext: rag.NoEnabledDocuments,
		},
		{
			name:     "Only_Disabled_Documents_Match",
			question: "What is the vacation policy?",
			setup: func(f *fixture) {
				f.documents.OnQuery = returns(match("v1", disabledDoc, "The vacation policy grants twenty days per year.", 0.8))
			},
			wantNoContext: rag.NoRelevantDocuments,
		},
		{
			name:     "Generator_Failure_Uses_Fallback",
			question: "What is the vacation policy?",
			setup: func(f *fixture) {
				f.documents.OnQuery = returns(match("v1", enabledDoc, "The vacation policy grants twenty days per year.", 0.8))
				f.llm.OnGenerate = func(ctx context.Context, req llm.Request) (string, error) {
					return "", &llm.GenerationError{Kind: llm.ClientError, StatusCode: 400, Err: errors.New("bad request")}
				}
			},
			wantSuccess:   true,
			wantAnswer:    fixedAnswer,
			wantLLMCalls:  1,
			wantPersisted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)

			res, err := f.service(nil).AskQuestion(testContext(), ask(tt.question))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Success != tt.wantSuccess {
				t.Errorf("success = %v; want %v", res.Success, tt.wantSuccess)
			}
			if tt.wantAnswer != "" && res.Answer != tt.wantAnswer {
				t.Errorf("answer = %q; want %q", res.Answer, tt.wantAnswer)
			}
			if res.NoContext != tt.wantNoContext {
				t.Errorf("noContext = %q; want %q", res.NoContext, tt.wantNoContext)
			}
			if tt.wantNoContext != "" && res.Error != tt.wantNoContext.Message() {
				t.Errorf("error message = %q; want %q", res.Error, tt.wantNoContext.Message())
			}
			if f.llm.Calls != tt.wantLLMCalls {
				t.Errorf("llm calls = %d; want %d", f.llm.Calls, tt.wantLLMCalls)
			}
			if got := len(f.transcripts.Appends) == 1; got != tt.wantPersisted {
				t.Errorf("persisted = %v; want %v (appends %d)", got, tt.wantPersisted, len(f.transcripts.Appends))
			}
		})
	}
}

func TestAskQuestion_PersistsPairInOrder(t *testing.T) {
	f := newFixture()
	f.documents.OnQuery = returns(match("v1", enabledDoc, "The vacation policy grants twenty days per year.", 0.8))

	res, err := f.service(nil).AskQuestion(testContext(), ask("What is the vacation policy?"))
	if err != nil {
		t.Fatal(err)
	}

	if len(f.transcripts.Appends) != 1 || len(f.transcripts.Appends[0]) != 2 {
		t.Fatalf("expected one append of two messages, got %v", f.transcripts.Appends)
	}
	pair := f.transcripts.Appends[0]
	if pair[0].Role != chatModel.RoleUser || pair[0].Message != "What is the vacation policy?" {
		t.Errorf("first message = %+v", pair[0])
	}
	if pair[1].Role != chatModel.RoleAssistant || pair[1].Message != res.Answer {
		t.Errorf("second message = %+v", pair[1])
	}
	if !pair[1].Timestamp.After(pair[0].Timestamp) {
		t.Error("answer should be stamped after the question")
	}
	if len(f.chats.Upserted) != 2 {
		t.Errorf("expected both messages indexed, got %d", len(f.chats.Upserted))
	}
	if len(res.Sources) != 1 || res.Sources[0].DocumentId != enabledDoc.String() {
		t.Errorf("unexpected sources %+v", res.Sources)
	}
	if !strings.Contains(f.llm.LastPrompt, "[Source: handbook.pdf | chunk 0]") {
		t.Errorf("prompt missing context block: %q", f.llm.LastPrompt)
	}
}

func TestAskQuestion_RetryExhaustionPersistsFallback(t *testing.T) {
	f := newFixture()
	f.documents.OnQuery = returns(match("v1", enabledDoc, "The vacation policy grants twenty days per year.", 0.8))
	f.llm.OnGenerate = func(ctx context.Context, req llm.Request) (string, error) {
		return "", &llm.GenerationError{Kind: llm.RateLimited, StatusCode: 429, Err: errors.New("quota")}
	}
	var sleeps []time.Duration
	generator := llm.WithRetry(f.llm, llm.RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Sleep: func(ctx context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		},
	})

	res, err := f.service(generator).AskQuestion(testContext(), ask("What is the vacation policy?"))
	if err != nil {
		t.Fatal(err)
	}

	if !res.Success || !res.Fallback || res.Answer != fixedAnswer {
		t.Errorf("expected fallback answer, got %+v", res)
	}
	if f.llm.Calls != 3 {
		t.Errorf("llm calls = %d; want 3", f.llm.Calls)
	}
	if len(sleeps) != 2 {
		t.Errorf("sleeps = %v; want 2", sleeps)
	}
	if len(f.transcripts.Appends) != 1 || f.transcripts.Appends[0][1].Message != fixedAnswer {
		t.Errorf("fallback not persisted: %+v", f.transcripts.Appends)
	}
}

func TestAskQuestion_AskDeadlineStillPersistsFallback(t *testing.T) {
	f := newFixture()
	f.documents.OnQuery = returns(match("v1", enabledDoc, "The vacation policy grants twenty days per year.", 0.8))
	f.llm.OnGenerate = func(ctx context.Context, req llm.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	// behaves like a network store: an expired context fails the write
	f.transcripts.OnAppend = func(ctx context.Context, userId string, sessionId string, msgs ...chatModel.ChatMessage) error {
		return ctx.Err()
	}
	generator := llm.WithRetry(f.llm, llm.DefaultRetryPolicy(3))

	ctx, cancel := context.WithTimeout(testContext(), 50*time.Millisecond)
	defer cancel()
	res, err := f.service(generator).AskQuestion(ctx, ask("What is the vacation policy?"))
	if err != nil {
		t.Fatal(err)
	}

	if ctx.Err() == nil {
		t.Fatal("ask context should have expired during generation")
	}
	if !res.Fallback || res.Answer != fixedAnswer {
		t.Errorf("expected fallback answer, got %+v", res)
	}
	if len(f.transcripts.Appends) != 1 || len(f.transcripts.Appends[0]) != 2 {
		t.Fatalf("exchange not persisted after the ask deadline: %+v", f.transcripts.Appends)
	}
	if got := f.transcripts.Appends[0][1].Message; got != fixedAnswer {
		t.Errorf("persisted answer = %q; want %q", got, fixedAnswer)
	}
}

func TestAskQuestion_Validation(t *testing.T) {
	f := newFixture()
	svc := f.service(nil)

	for _, req := range []rag.AskRequest{
		{UserId: "user-1", SessionId: "session-1", Question: "   "},
		{UserId: "user-1", Question: "What is the vacation policy?"},
		{UserId: "user-1", SessionId: "x:secret", Question: "What is the vacation policy?"},
		{UserId: "user-1", SessionId: strings.Repeat("s", 129), Question: "What is the vacation policy?"},
	} {
		if _, err := svc.AskQuestion(testContext(), req); !errors.Is(err, rag.ErrValidation) {
			t.Errorf("expected ErrValidation for %+v, got %v", req, err)
		}
	}
	if len(f.transcripts.Appends) != 0 || f.embedder.EmbedOneCalls() != 0 {
		t.Error("invalid requests must not reach the pipeline")
	}
}

func TestAskQuestion_RetrievalFailure(t *testing.T) {
	f := newFixture()
	f.documents.OnQuery = func(ctx context.Context, v []float32, topK int, filter commonModels.Filter) ([]commonModels.RetrievalMatch, error) {
		return nil, fmt.Errorf("dial: %w", vectorDB.ErrUnavailable)
	}

	_, err := f.service(nil).AskQuestion(testContext(), ask("What is the vacation policy?"))

	var rErr *rag.RetrievalError
	if !errors.As(err, &rErr) {
		t.Fatalf("expected RetrievalError, got %v", err)
	}
	if !rErr.Unreachable() {
		t.Error("expected unreachable index")
	}
	if len(f.transcripts.Appends) != 0 || f.llm.Calls != 0 {
		t.Error("nothing should be generated or persisted")
	}
}

func TestAskQuestion_PersistFailureStillAnswers(t *testing.T) {
	f := newFixture()
	f.documents.OnQuery = returns(match("v1", enabledDoc, "The vacation policy grants twenty days per year.", 0.8))
	f.transcripts.OnAppend = func(ctx context.Context, userId string, sessionId string, msgs ...chatModel.ChatMessage) error {
		return errors.New("redis down")
	}

	res, err := f.service(nil).AskQuestion(testContext(), ask("What is the vacation policy?"))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Answer != "mocked llm response" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestAskQuestion_TruncatesAfterAccessFilter(t *testing.T) {
	f := newFixture()
	var matches []commonModels.RetrievalMatch
	for i := range 6 {
		doc := disabledDoc
		if i%2 == 1 {
			doc = enabledDoc
		}
		matches = append(matches, match(fmt.Sprintf("v%d", i), doc, fmt.Sprintf("Vacation policy paragraph number %d with enough text.", i), 0.9-float64(i)*0.05))
	}
	f.documents.OnQuery = returns(matches...)

	req := ask("What is the vacation policy?")
	req.TopK = 2
	res, err := f.service(nil).AskQuestion(testContext(), req)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Sources) != 2 {
		t.Fatalf("sources = %d; want 2", len(res.Sources))
	}
	for _, s := range res.Sources {
		if s.DocumentId != enabledDoc.String() {
			t.Errorf("disabled document leaked into sources: %+v", s)
		}
	}
}

func TestAskQuestion_SessionScopeBeforeUserScope(t *testing.T) {
	f := newFixture()
	f.documents.OnQuery = func(ctx context.Context, v []float32, topK int, filter commonModels.Filter) ([]commonModels.RetrievalMatch, error) {
		if _, scoped := filter[commonModels.MetaSessionId]; scoped {
			return nil, nil
		}
		return []commonModels.RetrievalMatch{match("v1", enabledDoc, "The vacation policy grants twenty days per year.", 0.8)}, nil
	}

	res, err := f.service(nil).AskQuestion(testContext(), ask("What is the vacation policy?"))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("expected answer, got %+v", res)
	}
	if len(f.documents.Queries) != 2 {
		t.Errorf("queries = %d; want 2", len(f.documents.Queries))
	}
	if f.documents.Queries[0][commonModels.MetaSessionId] != "session-1" {
		t.Errorf("first query should be session scoped: %v", f.documents.Queries[0])
	}
}

func chunk(text string, idx int) commonModels.Chunk {
	return commonModels.Chunk{Text: text, Metadata: commonModels.ChunkMetadata{FileName: "notes.txt", ChunkIndex: idx, TotalChunks: 2}}
}

func TestStoreDocumentChunks_DimensionMismatchWritesNothing(t *testing.T) {
	f := newFixture()
	f.embedder.OnEmbedMany = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{0.1, 0.2, 0.3}, {0.1, 0.2}}, nil
	}

	n, err := f.service(nil).StoreDocumentChunks(testContext(), []commonModels.Chunk{chunk("first chunk text", 0), chunk("second chunk text", 1)}, "user-1", "session-1", enabledDoc)

	if !errors.Is(err, embedding.ErrEmbeddingDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
	if n != 0 || len(f.documents.Upserted) != 0 {
		t.Errorf("nothing should be upserted, got %d records", len(f.documents.Upserted))
	}
}

func TestStoreDocumentChunks_StampsScope(t *testing.T) {
	f := newFixture()

	n, err := f.service(nil).StoreDocumentChunks(testContext(), []commonModels.Chunk{chunk("first chunk text", 0), chunk("second chunk text", 1)}, "user-1", "session-1", enabledDoc)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || len(f.documents.Upserted) != 2 {
		t.Fatalf("stored %d, upserted %d; want 2", n, len(f.documents.Upserted))
	}
	for _, r := range f.documents.Upserted {
		if r.Metadata[commonModels.MetaDocumentId] != enabledDoc.String() || r.Metadata[commonModels.MetaUserId] != "user-1" {
			t.Errorf("record missing scope: %+v", r.Metadata)
		}
	}
}

func writeUpload(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload-1.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func ingestJob(path string) jobModel.Job {
	return jobModel.Job{
		Id:        "job-1",
		UserId:    "user-2",
		SessionId: "session-9",
		JobType:   jobModel.JobTypeIngest,
		Status:    jobModel.JobStatusRunning,
		JobPayload: jobModel.JobPayload{
			IngestFileName: "notes.txt",
			IngestURL:      path,
		},
	}
}

const uploadText = "The quarterly report covers revenue growth in detail.\nExpenses were reduced during the second half of the year."

func TestIngestDocument_Success(t *testing.T) {
	f := newFixture()
	path := writeUpload(t, uploadText)

	job := f.service(nil).IngestDocument(testContext(), ingestJob(path))

	if job.Status != jobModel.JobStatusComplete {
		t.Fatalf("status = %s; error %+v", job.Status, job.Error)
	}
	if job.JobPayload.ChunkCount != 1 || job.JobPayload.DocumentId == "" {
		t.Errorf("unexpected payload %+v", job.JobPayload)
	}
	id, err := commonModels.ParseDocumentID(job.JobPayload.DocumentId)
	if err != nil {
		t.Fatal(err)
	}
	doc, ok := f.registry.Docs[id]
	if !ok || !doc.IsEnabled || doc.UserId != "user-2" {
		t.Errorf("document not registered as enabled: %+v", doc)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("upload should be removed after ingestion")
	}
}

func TestIngestDocument_StoreFailureRollsBack(t *testing.T) {
	f := newFixture()
	f.documents.OnUpsert = func(ctx context.Context, records []commonModels.VectorRecord) error {
		return errors.New("qdrant down")
	}

	job := f.service(nil).IngestDocument(testContext(), ingestJob(writeUpload(t, uploadText)))

	if job.Status != jobModel.JobStatusError {
		t.Fatalf("status = %s; want error", job.Status)
	}
	for _, d := range f.registry.Docs {
		if d.UserId == "user-2" {
			t.Errorf("registry row should be rolled back, found %+v", d)
		}
	}
}

func TestIngestDocument_NoText(t *testing.T) {
	f := newFixture()

	job := f.service(nil).IngestDocument(testContext(), ingestJob(writeUpload(t, "  \n\t ")))

	if job.Status != jobModel.JobStatusError || job.Error.Code != 422 || job.Error.Retry {
		t.Errorf("unexpected job error %+v", job.Error)
	}
}

func TestDeleteDocument_RemovesVectors(t *testing.T) {
	f := newFixture()

	if _, err := f.service(nil).DeleteDocument(testContext(), "user-1", enabledDoc); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.registry.Docs[enabledDoc]; ok {
		t.Error("registry row not deleted")
	}
	if len(f.documents.Deleted) != 1 || f.documents.Deleted[0][commonModels.MetaDocumentId] != enabledDoc.String() {
		t.Errorf("unexpected vector deletes %v", f.documents.Deleted)
	}
}

func TestSearchSimilarMessages_SkipsDeletedSessions(t *testing.T) {
	f := newFixture()
	f.transcripts.Sessions = []chatModel.ChatSession{
		{UserId: "user-1", SessionId: "live", State: chatModel.SessionActive},
		{UserId: "user-1", SessionId: "gone", State: chatModel.SessionDeleted},
	}
	chatMatch := func(session string, text string) commonModels.RetrievalMatch {
		return commonModels.RetrievalMatch{Id: session, SemanticScore: 0.9, Text: text, Metadata: map[string]any{
			commonModels.MetaUserId:    "user-1",
			commonModels.MetaSessionId: session,
			commonModels.MetaRole:      "user",
		}}
	}
	f.chats.OnQuery = returns(chatMatch("live", "vacation days"), chatMatch("gone", "vacation policy"))
	svc := f.service(nil)

	got, err := svc.SearchSimilarMessages(testContext(), "user-1", "", "vacation", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].SessionId != "live" {
		t.Errorf("unexpected messages %+v", got)
	}

	if _, err := svc.SearchSimilarMessages(testContext(), "user-1", "gone", "vacation", 5); !errors.Is(err, chatModel.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDeleteSession_SoftDeletesAndDropsVectors(t *testing.T) {
	f := newFixture()
	f.transcripts.Sessions = []chatModel.ChatSession{{UserId: "user-1", SessionId: "s1", State: chatModel.SessionActive}}

	if err := f.service(nil).DeleteSession(testContext(), "user-1", "s1"); err != nil {
		t.Fatal(err)
	}
	if f.transcripts.Sessions[0].IsActive() {
		t.Error("session should be soft-deleted")
	}
	if len(f.chats.Deleted) != 1 {
		t.Errorf("chat vectors not deleted: %v", f.chats.Deleted)
	}

	if err := f.service(nil).DeleteSession(testContext(), "user-1", "s1:messages"); !errors.Is(err, rag.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
