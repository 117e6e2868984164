package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Chunking.ChunkSize != ChunkSize {
		t.Errorf("ChunkSize got %d, want %d", s.Chunking.ChunkSize, ChunkSize)
	}
	if s.Vector.DocumentIndex == s.Vector.ChatIndex {
		t.Error("document and chat index must differ")
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := []byte("retrieval:\n  max_context_chars: 2000\nvector:\n  backend: memory\n  document_index: docs\n  chat_index: chats\n")
	if err := os.WriteFile(path, yml, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VECTOR_BACKEND", "pgvector")
	t.Setenv("LLM_PROVIDER", "openai")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Retrieval.MaxContextChars != 2000 {
		t.Errorf("MaxContextChars got %d, want 2000", s.Retrieval.MaxContextChars)
	}
	if s.Vector.Backend != "pgvector" {
		t.Errorf("env should win over yaml, got %s", s.Vector.Backend)
	}
	if s.LLM.Model != OpenAIModelName {
		t.Errorf("openai provider should switch default model, got %s", s.LLM.Model)
	}
}

func TestValidate_RejectsSharedIndex(t *testing.T) {
	s := Default()
	s.Vector.ChatIndex = s.Vector.DocumentIndex
	if err := s.Validate(); err == nil {
		t.Error("expected error when both namespaces share one index")
	}
}

func TestLoad_RateLimitFromYAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := []byte("rate_limit:\n  per_second: 10\n  burst: 20\n")
	if err := os.WriteFile(path, yml, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RATE_LIMIT_BURST", "40")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.RateLimit.PerSecond != 10 {
		t.Errorf("PerSecond got %v, want 10", s.RateLimit.PerSecond)
	}
	if s.RateLimit.Burst != 40 {
		t.Errorf("env should win over yaml, got burst %d", s.RateLimit.Burst)
	}

	s.RateLimit.Burst = 0
	if err := s.Validate(); err == nil {
		t.Error("expected error for a zero burst")
	}
}
