package app

import (
	"context"
	"errors"
	"testing"

	"github.com/akolanti/DocAssist/internal/config"
)

func TestVectorStore_Memory(t *testing.T) {
	settings := config.Default()
	settings.Vector.Backend = "memory"

	store, err := VectorStore(context.Background(), settings)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	idx, err := store.Index(context.Background(), settings.Vector.DocumentIndex)
	if err != nil || idx.Name() != settings.Vector.DocumentIndex {
		t.Errorf("index = %v, %v", idx, err)
	}
}

func TestUnknownProviders(t *testing.T) {
	settings := config.Default()
	settings.Vector.Backend = "pinecone"
	if _, err := VectorStore(context.Background(), settings); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("vector backend err = %v", err)
	}

	settings.Embedding.Provider = "cohere"
	if _, err := Embedder(context.Background(), settings.Embedding); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("embedder err = %v", err)
	}

	settings.LLM.Provider = "claude"
	if _, err := Generator(context.Background(), settings.LLM); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("generator err = %v", err)
	}
}
