package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD                         = false
	LOG_LEVEL_PROD                  = slog.LevelInfo
	FALLBACK_REDIS_TO_INTERNALSTORE = true //if redis init fails, it falls back to an internals in-memory store
	TRACE_ID_KEY                    = "traceId"
	USER_ID_KEY                     = "userId"
	RATE_LIMIT_PER_SECOND           = 2
	BURST_RATE_LIMIT_PER_SECOND     = 5

	//embeddings - both vector indexes are created with this dimension
	EmbeddingOutputDimensionality int32 = 768
	DocumentIndexName                   = "document-chunks"
	ChatIndexName                       = "chat-messages"

	//chunking
	ChunkSize        = 600
	OverlapSentences = 2

	//retrieval
	DefaultTopK            = 5
	MaxTopK                = 20
	OverFetchFactor        = 3
	OverFetchFloor         = 15
	MinHybridScore         = 0.15
	SemanticWeight         = 0.6
	KeywordWeight          = 0.4
	MaxContextChars        = 4000
	AllowLegacyUnscoped    = true //matches uploaded before documentId existed
	VectorMetadataTextSize = 1000

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 60 * time.Second //ask waits on llm retries
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second
	AskRequestTimeout      = 45 * time.Second
	IngestJobTimeout       = 5 * time.Minute
	PersistTimeout         = 5 * time.Second //transcript writes outlive the ask deadline

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//uploads
	MaxUploadSize = 10 << 20 //10mb

	//vectorDB
	VectorBackend           = "qdrant" // qdrant | pgvector | memory
	QdrantConnectionTimeout = 30 * time.Second
	QdrantHost              = "localhost"
	QdrantPort              = 6333 //http
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false //set for https
	QdrantPoolSize          = 1     //2-5 is preferred for prod according to documentation
	QdrantKeepAliveTimeout  = 30 * time.Second

	//llm
	LLMProvider          = "gemini" // gemini | openai
	LLMConnectionTimeout = 30 * time.Second
	LLMMaxAttempts       = 3
	GeminiModelName      = "gemini-2.5-flash-lite-preview-09-2025"
	OpenAIModelName      = "gpt-4o-mini"

	//embeddings
	EmbeddingProvider    = "google" // google | openai
	GoogleEmbeddingModel = "gemini-embedding-001"
	OpenAIEmbeddingModel = "text-embedding-3-small"
	EmbeddingBatchSize   = 100
	EmbeddingCallTimeout = 30 * time.Second
	VectorDBCallTimeout  = 10 * time.Second

	ModelTemperature float32 = 0.1
	ModelMaxTokens           = 512
	ModelContext             = "You are a document-based assistant.\nAnswer ONLY using the provided context.\nIf the answer is not in the context, say you don't know.\nBe concise, factual, and helpful."

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore        = 0
	RedisTranscriptStore = 1

	//redis timeouts
	RedisJobStoreTTL = 24 * time.Hour

	//document registry
	DocumentDBPath = "data/documents.db"

	//admin
	DefaultTokenCostPer1kUSD = 0.002
)
