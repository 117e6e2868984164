// Package app builds the clients shared by the HTTP server and the MCP server.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/data/documentStore"
	"github.com/akolanti/DocAssist/internal/data/store"
	"github.com/akolanti/DocAssist/internal/domain/chatModel"
	"github.com/akolanti/DocAssist/internal/rag"
	"github.com/akolanti/DocAssist/internal/rag/embedding"
	"github.com/akolanti/DocAssist/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/DocAssist/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/DocAssist/internal/rag/llm"
	"github.com/akolanti/DocAssist/internal/rag/llm/gemini"
	"github.com/akolanti/DocAssist/internal/rag/llm/openaiLLM"
	"github.com/akolanti/DocAssist/internal/rag/vectorDB"
	"github.com/akolanti/DocAssist/internal/rag/vectorDB/memoryDB"
	"github.com/akolanti/DocAssist/internal/rag/vectorDB/pgvectorDB"
	"github.com/akolanti/DocAssist/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/DocAssist/pkg/logger_i"
)

var ErrUnknownProvider = errors.New("unknown provider")

type Deps struct {
	Rag         rag.Service
	Registry    *documentStore.SQLiteRegistry
	Transcripts chatModel.TranscriptStore

	closers []func() error
}

func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}

// Build connects every backend named in settings. On error everything opened
// so far is closed.
func Build(ctx context.Context, settings *config.Settings) (deps *Deps, err error) {
	logger := logger_i.NewLogger("app")
	deps = &Deps{}
	defer func() {
		if err != nil {
			deps.Close()
			deps = nil
		}
	}()

	deps.Transcripts, err = transcripts(ctx, settings, logger)
	if err != nil {
		return deps, err
	}

	deps.Registry, err = documentStore.Open(settings.DocumentDBPath)
	if err != nil {
		return deps, fmt.Errorf("document registry: %w", err)
	}
	deps.closers = append(deps.closers, deps.Registry.Close)

	vectors, err := VectorStore(ctx, settings)
	if err != nil {
		return deps, fmt.Errorf("vector store: %w", err)
	}
	deps.closers = append(deps.closers, vectors.Close)

	docIndex, err := vectors.Index(ctx, settings.Vector.DocumentIndex)
	if err != nil {
		return deps, fmt.Errorf("document index: %w", err)
	}
	chatIndex, err := vectors.Index(ctx, settings.Vector.ChatIndex)
	if err != nil {
		return deps, fmt.Errorf("chat index: %w", err)
	}

	embedder, err := Embedder(ctx, settings.Embedding)
	if err != nil {
		return deps, fmt.Errorf("embedding provider: %w", err)
	}
	generator, err := Generator(ctx, settings.LLM)
	if err != nil {
		return deps, fmt.Errorf("llm provider: %w", err)
	}

	deps.Rag = rag.NewService(rag.Dependencies{
		Embedder:      embedder,
		DocumentIndex: docIndex,
		ChatIndex:     chatIndex,
		Generator:     llm.WithRetry(generator, llm.DefaultRetryPolicy(settings.LLM.MaxAttempts)),
		Transcripts:   deps.Transcripts,
		Registry:      deps.Registry,
	}, settings)

	logger.Info("services ready",
		"vectorBackend", settings.Vector.Backend,
		"embedding", settings.Embedding.Provider,
		"llm", settings.LLM.Provider)
	return deps, nil
}

func transcripts(ctx context.Context, settings *config.Settings, logger *logger_i.Logger) (chatModel.TranscriptStore, error) {
	redisTranscripts, err := store.GetRedisTranscriptStore(ctx, settings)
	if err == nil {
		return redisTranscripts, nil
	}
	if !config.FALLBACK_REDIS_TO_INTERNALSTORE {
		return nil, fmt.Errorf("transcript store: %w", err)
	}
	logger.Warn("Redis transcript store is offline, using in-memory store", "err", err)
	return store.InitInMemoryTranscriptStore(), nil
}

func VectorStore(ctx context.Context, settings *config.Settings) (vectorDB.Store, error) {
	dimension := settings.Embedding.Dimension
	switch settings.Vector.Backend {
	case "qdrant":
		return qdrantDB.New(settings.Vector, dimension)
	case "pgvector":
		return pgvectorDB.New(ctx, settings.Vector, dimension)
	case "memory":
		return memoryDB.NewStore(dimension), nil
	default:
		return nil, fmt.Errorf("%w: vector backend %q", ErrUnknownProvider, settings.Vector.Backend)
	}
}

func Embedder(ctx context.Context, settings config.EmbeddingSettings) (embedding.Provider, error) {
	switch settings.Provider {
	case "google":
		return googleEmbedding.New(ctx, settings)
	case "openai":
		return openaiEmbedding.New(settings)
	default:
		return nil, fmt.Errorf("%w: embedding provider %q", ErrUnknownProvider, settings.Provider)
	}
}

func Generator(ctx context.Context, settings config.LLMSettings) (llm.Provider, error) {
	switch settings.Provider {
	case "gemini":
		return gemini.New(ctx, settings)
	case "openai":
		return openaiLLM.New(settings)
	default:
		return nil, fmt.Errorf("%w: llm provider %q", ErrUnknownProvider, settings.Provider)
	}
}
