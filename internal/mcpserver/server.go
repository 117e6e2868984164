// Package mcpserver exposes question answering and the document list as MCP
// tools over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/internal/rag"
	"github.com/akolanti/DocAssist/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type Asker interface {
	AskQuestion(ctx context.Context, req rag.AskRequest) (rag.AskResult, error)
}

type DocumentLister interface {
	ListDocuments(ctx context.Context, userId string) ([]commonModels.Document, error)
}

// Server answers as a single user; stdio clients are local.
type Server struct {
	asker   Asker
	docs    DocumentLister
	userId  string
	version string
	logger  *logger_i.Logger
}

func New(asker Asker, docs DocumentLister, userId string, version string) *Server {
	return &Server{
		asker:   asker,
		docs:    docs,
		userId:  userId,
		version: version,
		logger:  logger_i.NewLogger("mcp"),
	}
}

type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the uploaded documents"`
	SessionId string `json:"session_id" jsonschema:"chat session id; the exchange is saved to this session"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"number of chunks to use as context (default 5, max 20)"`
}

type SourceOutput struct {
	DocumentId string  `json:"document_id,omitempty"`
	FileName   string  `json:"file_name,omitempty"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

type AskOutput struct {
	Success  bool           `json:"success"`
	Answer   string         `json:"answer,omitempty"`
	Error    string         `json:"error,omitempty"`
	Reason   string         `json:"reason,omitempty"`
	Fallback bool           `json:"fallback,omitempty"`
	Sources  []SourceOutput `json:"sources,omitempty"`
}

type ListDocumentsInput struct {
	EnabledOnly bool `json:"enabled_only,omitempty" jsonschema:"only list documents used for answers"`
}

type DocumentOutput struct {
	DocumentId string `json:"document_id"`
	FileName   string `json:"file_name"`
	FileType   string `json:"file_type"`
	Enabled    bool   `json:"enabled"`
	CreatedAt  string `json:"created_at"`
}

type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
}

func (s *Server) MCP() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "docassist",
		Title:   "DocAssist",
		Version: s.version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: "ask_question",
		Description: `Answer a question using only the user's enabled documents.

Returns the answer with the chunks it was built from. When nothing relevant can be
retrieved, success is false and reason says why (no documents, none enabled, none relevant).`,
	}, s.askTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List uploaded documents, newest first, with whether each is enabled for answers.",
	}, s.listDocumentsTool)

	return server
}

// Run serves until ctx is done or stdin closes.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server starting", "userId", s.userId)
	return s.MCP().Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) askTool(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	res, err := s.asker.AskQuestion(ctx, rag.AskRequest{
		UserId:    s.userId,
		SessionId: input.SessionId,
		Question:  input.Question,
		TopK:      input.TopK,
	})
	if err != nil {
		var retrievalErr *rag.RetrievalError
		if errors.As(err, &retrievalErr) && retrievalErr.Unreachable() {
			return nil, AskOutput{}, fmt.Errorf("search service is unavailable: %w", err)
		}
		return nil, AskOutput{}, err
	}

	out := AskOutput{
		Success:  res.Success,
		Answer:   res.Answer,
		Error:    res.Error,
		Reason:   string(res.NoContext),
		Fallback: res.Fallback,
	}
	for _, src := range res.Sources {
		out.Sources = append(out.Sources, SourceOutput{
			DocumentId: src.DocumentId,
			FileName:   src.FileName,
			ChunkIndex: src.ChunkIndex,
			Score:      src.Score,
		})
	}
	return nil, out, nil
}

func (s *Server) listDocumentsTool(ctx context.Context, _ *mcp.CallToolRequest, input ListDocumentsInput) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.docs.ListDocuments(ctx, s.userId)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}
	out := ListDocumentsOutput{Documents: make([]DocumentOutput, 0, len(docs))}
	for _, d := range docs {
		if input.EnabledOnly && !d.IsEnabled {
			continue
		}
		out.Documents = append(out.Documents, DocumentOutput{
			DocumentId: d.Id.String(),
			FileName:   d.FileName,
			FileType:   d.FileType,
			Enabled:    d.IsEnabled,
			CreatedAt:  d.CreatedAt.Format(time.RFC3339),
		})
	}
	return nil, out, nil
}
