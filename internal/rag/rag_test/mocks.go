package rag_test

import (
	"context"
	"sync"

	"github.com/akolanti/DocAssist/internal/domain/chatModel"
	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/internal/rag/llm"
)

const testDimension = 3

// MockEmbedder implements embedding.Provider
type MockEmbedder struct {
	OnEmbedOne  func(ctx context.Context, text string) ([]float32, error)
	OnEmbedMany func(ctx context.Context, texts []string) ([][]float32, error)

	mu       sync.Mutex
	oneCalls int
}

func (m *MockEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.oneCalls++
	m.mu.Unlock()
	if m.OnEmbedOne != nil {
		return m.OnEmbedOne(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *MockEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if m.OnEmbedMany != nil {
		return m.OnEmbedMany(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (m *MockEmbedder) Dimension() int { return testDimension }

func (m *MockEmbedder) EmbedOneCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.oneCalls
}

// MockIndex implements vectorDB.Index
type MockIndex struct {
	IndexName string
	OnQuery   func(ctx context.Context, vector []float32, topK int, filter commonModels.Filter) ([]commonModels.RetrievalMatch, error)
	OnUpsert  func(ctx context.Context, records []commonModels.VectorRecord) error
	OnDelete  func(ctx context.Context, filter commonModels.Filter) error

	mu       sync.Mutex
	Upserted []commonModels.VectorRecord
	Deleted  []commonModels.Filter
	Queries  []commonModels.Filter
}

func (m *MockIndex) Name() string { return m.IndexName }

func (m *MockIndex) Upsert(ctx context.Context, records []commonModels.VectorRecord) error {
	if m.OnUpsert != nil {
		if err := m.OnUpsert(ctx, records); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Upserted = append(m.Upserted, records...)
	m.mu.Unlock()
	return nil
}

func (m *MockIndex) Query(ctx context.Context, vector []float32, topK int, filter commonModels.Filter) ([]commonModels.RetrievalMatch, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, filter)
	m.mu.Unlock()
	if m.OnQuery != nil {
		return m.OnQuery(ctx, vector, topK, filter)
	}
	return nil, nil
}

func (m *MockIndex) Delete(ctx context.Context, filter commonModels.Filter) error {
	m.mu.Lock()
	m.Deleted = append(m.Deleted, filter)
	m.mu.Unlock()
	if m.OnDelete != nil {
		return m.OnDelete(ctx, filter)
	}
	return nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, req llm.Request) (string, error)
	Calls      int
	LastPrompt string
}

func (m *MockLLM) Generate(ctx context.Context, req llm.Request) (string, error) {
	m.Calls++
	m.LastPrompt = req.Prompt
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, req)
	}
	return "mocked llm response", nil
}

// MockTranscripts implements chatModel.TranscriptStore
type MockTranscripts struct {
	OnAppend func(ctx context.Context, userId string, sessionId string, msgs ...chatModel.ChatMessage) error

	Appends  [][]chatModel.ChatMessage
	Sessions []chatModel.ChatSession
	Deleted  []string
}

func (m *MockTranscripts) AppendMessages(ctx context.Context, userId string, sessionId string, msgs ...chatModel.ChatMessage) error {
	if m.OnAppend != nil {
		if err := m.OnAppend(ctx, userId, sessionId, msgs...); err != nil {
			return err
		}
	}
	m.Appends = append(m.Appends, msgs)
	return nil
}

func (m *MockTranscripts) GetSession(ctx context.Context, userId string, sessionId string) (chatModel.ChatSession, error) {
	for _, s := range m.Sessions {
		if s.UserId == userId && s.SessionId == sessionId {
			return s, nil
		}
	}
	return chatModel.ChatSession{}, chatModel.ErrSessionNotFound
}

func (m *MockTranscripts) ListSessions(ctx context.Context, userId string) ([]chatModel.ChatSession, error) {
	var out []chatModel.ChatSession
	for _, s := range m.Sessions {
		if s.UserId == userId && s.IsActive() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockTranscripts) SoftDeleteSession(ctx context.Context, userId string, sessionId string) error {
	for i, s := range m.Sessions {
		if s.UserId == userId && s.SessionId == sessionId {
			m.Sessions[i].State = chatModel.SessionDeleted
			m.Deleted = append(m.Deleted, sessionId)
			return nil
		}
	}
	return chatModel.ErrSessionNotFound
}

func (m *MockTranscripts) AllSessions(ctx context.Context, limit int) ([]chatModel.ChatSession, error) {
	return m.Sessions, nil
}

// MockRegistry implements commonModels.DocumentRegistry
type MockRegistry struct {
	Docs        map[commonModels.DocumentID]commonModels.Document
	OnListError error
}

func NewMockRegistry(docs ...commonModels.Document) *MockRegistry {
	r := &MockRegistry{Docs: map[commonModels.DocumentID]commonModels.Document{}}
	for _, d := range docs {
		r.Docs[d.Id] = d
	}
	return r
}

func (m *MockRegistry) CreateDocument(ctx context.Context, doc commonModels.Document) error {
	m.Docs[doc.Id] = doc
	return nil
}

func (m *MockRegistry) GetDocument(ctx context.Context, userId string, id commonModels.DocumentID) (commonModels.Document, error) {
	d, ok := m.Docs[id]
	if !ok || d.UserId != userId {
		return commonModels.Document{}, commonModels.ErrDocumentNotFound
	}
	return d, nil
}

func (m *MockRegistry) ListDocuments(ctx context.Context, userId string) ([]commonModels.Document, error) {
	var out []commonModels.Document
	for _, d := range m.Docs {
		if d.UserId == userId {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MockRegistry) ListEnabledDocumentIDs(ctx context.Context, userId string) ([]string, error) {
	if m.OnListError != nil {
		return nil, m.OnListError
	}
	var out []string
	for _, d := range m.Docs {
		if d.UserId == userId && d.IsEnabled {
			out = append(out, d.Id.String())
		}
	}
	return out, nil
}

func (m *MockRegistry) SetEnabled(ctx context.Context, userId string, id commonModels.DocumentID, enabled bool) error {
	d, err := m.GetDocument(ctx, userId, id)
	if err != nil {
		return err
	}
	d.IsEnabled = enabled
	m.Docs[id] = d
	return nil
}

func (m *MockRegistry) DeleteDocument(ctx context.Context, userId string, id commonModels.DocumentID) (commonModels.Document, error) {
	d, err := m.GetDocument(ctx, userId, id)
	if err != nil {
		return commonModels.Document{}, err
	}
	delete(m.Docs, id)
	return d, nil
}
