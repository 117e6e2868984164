package mcpserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/internal/rag"
	"github.com/akolanti/DocAssist/internal/rag/vectorDB"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type askerFunc func(ctx context.Context, req rag.AskRequest) (rag.AskResult, error)

func (f askerFunc) AskQuestion(ctx context.Context, req rag.AskRequest) (rag.AskResult, error) {
	return f(ctx, req)
}

type listerFunc func(ctx context.Context, userId string) ([]commonModels.Document, error)

func (f listerFunc) ListDocuments(ctx context.Context, userId string) ([]commonModels.Document, error) {
	return f(ctx, userId)
}

func TestAskTool_UsesConfiguredUser(t *testing.T) {
	var got rag.AskRequest
	s := New(askerFunc(func(ctx context.Context, req rag.AskRequest) (rag.AskResult, error) {
		got = req
		return rag.AskResult{
			Success: true,
			Answer:  "Twenty days.",
			Sources: []commonModels.Source{{DocumentId: "d1", FileName: "handbook.pdf", ChunkIndex: 2, Score: 0.8}},
		}, nil
	}), nil, "local-user", "test")

	_, out, err := s.askTool(context.Background(), nil, AskInput{Question: "How much leave?", SessionId: "s1", TopK: 3})

	require.NoError(t, err)
	assert.Equal(t, rag.AskRequest{UserId: "local-user", SessionId: "s1", Question: "How much leave?", TopK: 3}, got)
	assert.True(t, out.Success)
	assert.Equal(t, "Twenty days.", out.Answer)
	require.Len(t, out.Sources, 1)
	assert.Equal(t, "handbook.pdf", out.Sources[0].FileName)
}

func TestAskTool_NoContextIsNotAnError(t *testing.T) {
	s := New(askerFunc(func(ctx context.Context, req rag.AskRequest) (rag.AskResult, error) {
		return rag.AskResult{Error: rag.NoDocumentsIndexed.Message(), NoContext: rag.NoDocumentsIndexed}, nil
	}), nil, "u", "test")

	_, out, err := s.askTool(context.Background(), nil, AskInput{Question: "q", SessionId: "s"})

	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "no_documents_indexed", out.Reason)
}

func TestAskTool_Unreachable(t *testing.T) {
	s := New(askerFunc(func(ctx context.Context, req rag.AskRequest) (rag.AskResult, error) {
		return rag.AskResult{}, &rag.RetrievalError{Op: "query", Err: vectorDB.ErrUnavailable}
	}), nil, "u", "test")

	_, _, err := s.askTool(context.Background(), nil, AskInput{Question: "q", SessionId: "s"})

	require.Error(t, err)
	assert.ErrorIs(t, err, vectorDB.ErrUnavailable)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestListDocumentsTool(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(nil, listerFunc(func(ctx context.Context, userId string) ([]commonModels.Document, error) {
		if userId != "u" {
			return nil, errors.New("wrong user")
		}
		return []commonModels.Document{
			{Id: "d1", FileName: "a.pdf", FileType: "pdf", IsEnabled: true, CreatedAt: created},
			{Id: "d2", FileName: "b.txt", FileType: "txt", IsEnabled: false, CreatedAt: created},
		}, nil
	}), "u", "test")

	_, all, err := s.listDocumentsTool(context.Background(), nil, ListDocumentsInput{})
	require.NoError(t, err)
	assert.Len(t, all.Documents, 2)
	assert.Equal(t, "2026-01-02T03:04:05Z", all.Documents[0].CreatedAt)

	_, enabled, err := s.listDocumentsTool(context.Background(), nil, ListDocumentsInput{EnabledOnly: true})
	require.NoError(t, err)
	require.Len(t, enabled.Documents, 1)
	assert.Equal(t, "d1", enabled.Documents[0].DocumentId)
}

func TestMCP_RegistersTools(t *testing.T) {
	s := New(nil, nil, "u", "test")
	assert.NotNil(t, s.MCP())
}
