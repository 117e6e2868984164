package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings is the runtime configuration. Defaults come from the constants in
// this package, then an optional YAML file, then the environment.
type Settings struct {
	Production bool   `yaml:"production"`
	LogLevel   string `yaml:"log_level"`
	ListenAddr string `yaml:"listen_addr"`

	AuthToken      string `yaml:"-"`
	AdminToken     string `yaml:"-"`
	NoAuthBypass   bool   `yaml:"no_auth_bypass"`
	RedisAddr      string `yaml:"redis_addr"`
	RedisPassword  string `yaml:"-"`
	DocumentDBPath string `yaml:"document_db_path"`

	Embedding EmbeddingSettings `yaml:"embedding"`
	LLM       LLMSettings       `yaml:"llm"`
	Vector    VectorSettings    `yaml:"vector"`
	Retrieval RetrievalSettings `yaml:"retrieval"`
	Chunking  ChunkingSettings  `yaml:"chunking"`
	Access    AccessSettings    `yaml:"access"`
	RateLimit RateLimitSettings `yaml:"rate_limit"`

	TokenCostPer1kUSD float64 `yaml:"token_cost_per_1k_usd"`
}

type EmbeddingSettings struct {
	Provider  string        `yaml:"provider"`
	Model     string        `yaml:"model"`
	Dimension int           `yaml:"dimension"`
	BatchSize int           `yaml:"batch_size"`
	Timeout   time.Duration `yaml:"timeout"`
	APIKey    string        `yaml:"-"`
}

type LLMSettings struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	MaxAttempts int           `yaml:"max_attempts"`
	Timeout     time.Duration `yaml:"timeout"`
	APIKey      string        `yaml:"-"`
}

type VectorSettings struct {
	Backend       string        `yaml:"backend"`
	DocumentIndex string        `yaml:"document_index"`
	ChatIndex     string        `yaml:"chat_index"`
	QdrantHost    string        `yaml:"qdrant_host"`
	QdrantPort    int           `yaml:"qdrant_port"`
	QdrantUseTLS  bool          `yaml:"qdrant_use_tls"`
	QdrantAPIKey  string        `yaml:"-"`
	PostgresDSN   string        `yaml:"-"`
	Timeout       time.Duration `yaml:"timeout"`
}

type RetrievalSettings struct {
	DefaultTopK     int     `yaml:"default_top_k"`
	MaxTopK         int     `yaml:"max_top_k"`
	MinHybridScore  float64 `yaml:"min_hybrid_score"`
	MaxContextChars int     `yaml:"max_context_chars"`
}

type ChunkingSettings struct {
	ChunkSize        int `yaml:"chunk_size"`
	OverlapSentences int `yaml:"overlap_sentences"`
}

type AccessSettings struct {
	AllowLegacyUnscoped bool `yaml:"allow_legacy_unscoped"`
}

// RateLimitSettings bound requests per client IP.
type RateLimitSettings struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// Default returns settings built only from the package constants.
func Default() *Settings {
	return &Settings{
		Production:     IS_PROD,
		LogLevel:       "debug",
		ListenAddr:     ServerListenAddr,
		RedisAddr:      RedisAddr,
		DocumentDBPath: DocumentDBPath,
		Embedding: EmbeddingSettings{
			Provider:  EmbeddingProvider,
			Model:     GoogleEmbeddingModel,
			Dimension: int(EmbeddingOutputDimensionality),
			BatchSize: EmbeddingBatchSize,
			Timeout:   EmbeddingCallTimeout,
		},
		LLM: LLMSettings{
			Provider:    LLMProvider,
			Model:       GeminiModelName,
			Temperature: ModelTemperature,
			MaxTokens:   ModelMaxTokens,
			MaxAttempts: LLMMaxAttempts,
			Timeout:     LLMConnectionTimeout,
		},
		Vector: VectorSettings{
			Backend:       VectorBackend,
			DocumentIndex: DocumentIndexName,
			ChatIndex:     ChatIndexName,
			QdrantHost:    QdrantHost,
			QdrantPort:    QdrantGrpcPort,
			QdrantUseTLS:  QdrantUseTLS,
			Timeout:       VectorDBCallTimeout,
		},
		Retrieval: RetrievalSettings{
			DefaultTopK:     DefaultTopK,
			MaxTopK:         MaxTopK,
			MinHybridScore:  MinHybridScore,
			MaxContextChars: MaxContextChars,
		},
		Chunking: ChunkingSettings{
			ChunkSize:        ChunkSize,
			OverlapSentences: OverlapSentences,
		},
		Access: AccessSettings{
			AllowLegacyUnscoped: AllowLegacyUnscoped,
		},
		RateLimit: RateLimitSettings{
			PerSecond: RATE_LIMIT_PER_SECOND,
			Burst:     BURST_RATE_LIMIT_PER_SECOND,
		},
		TokenCostPer1kUSD: DefaultTokenCostPer1kUSD,
	}
}

// Load reads .env (if any), the YAML file at path (if it exists) and the
// process environment, in that order of increasing precedence.
func Load(path string) (*Settings, error) {
	_ = godotenv.Load()

	s := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, s); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	applyEnv(s)
	applyProviderDefaults(s)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	if s.Embedding.Dimension <= 0 {
		return errors.New("embedding dimension must be positive")
	}
	if s.Vector.DocumentIndex == s.Vector.ChatIndex {
		return errors.New("document and chat indexes must be distinct")
	}
	if s.Chunking.ChunkSize <= 0 {
		return errors.New("chunk size must be positive")
	}
	if s.Retrieval.MaxContextChars <= 0 {
		return errors.New("max context chars must be positive")
	}
	if s.RateLimit.PerSecond <= 0 || s.RateLimit.Burst <= 0 {
		return errors.New("rate limit and burst must be positive")
	}
	return nil
}

func applyEnv(s *Settings) {
	setString(&s.AuthToken, "AUTH_TOKEN")
	setString(&s.AdminToken, "ADMIN_TOKEN")
	setString(&s.RedisAddr, "REDIS_ADDR")
	setString(&s.RedisPassword, "REDIS_PASSWORD")
	setString(&s.DocumentDBPath, "DOCUMENT_DB_PATH")
	setString(&s.LogLevel, "LOG_LEVEL")
	setString(&s.ListenAddr, "LISTEN_ADDR")
	setBool(&s.Production, "APP_PRODUCTION")
	setBool(&s.NoAuthBypass, "NO_AUTH_BYPASS")

	setString(&s.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&s.Embedding.Model, "EMBEDDING_MODEL")
	setInt(&s.Embedding.Dimension, "EMBEDDING_DIMENSION")
	setString(&s.LLM.Provider, "LLM_PROVIDER")
	setString(&s.LLM.Model, "LLM_MODEL")

	setString(&s.Vector.Backend, "VECTOR_BACKEND")
	setString(&s.Vector.QdrantHost, "QDRANT_HOST")
	setInt(&s.Vector.QdrantPort, "QDRANT_PORT")
	setString(&s.Vector.QdrantAPIKey, "QDRANT_API_KEY")
	setString(&s.Vector.PostgresDSN, "PGVECTOR_DSN")
	setBool(&s.Access.AllowLegacyUnscoped, "ALLOW_LEGACY_UNSCOPED")
	setFloat(&s.RateLimit.PerSecond, "RATE_LIMIT_PER_SECOND")
	setInt(&s.RateLimit.Burst, "RATE_LIMIT_BURST")

	google := os.Getenv("GEMINI_API_KEY")
	openai := os.Getenv("OPENAI_API_KEY")
	s.Embedding.APIKey = pickKey(s.Embedding.Provider, google, openai)
	s.LLM.APIKey = pickKey(s.LLM.Provider, google, openai)
}

func applyProviderDefaults(s *Settings) {
	if s.Embedding.Provider == "openai" && s.Embedding.Model == GoogleEmbeddingModel {
		s.Embedding.Model = OpenAIEmbeddingModel
	}
	if s.LLM.Provider == "openai" && s.LLM.Model == GeminiModelName {
		s.LLM.Model = OpenAIModelName
	}
}

func pickKey(provider, google, openai string) string {
	if provider == "openai" {
		return openai
	}
	return google
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func setFloat(dst *float64, key string) {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		*dst = v
	}
}
