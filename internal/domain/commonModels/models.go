package commonModels

import "time"

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"

// Document is a registry entry for one uploaded file.
type Document struct {
	Id        DocumentID `json:"documentId"`
	UserId    string     `json:"userId"`
	Title     string     `json:"title"`
	FileName  string     `json:"fileName"`
	FileType  string     `json:"fileType"`
	Status    string     `json:"status"`
	IsEnabled bool       `json:"isEnabled"`
	CreatedAt time.Time  `json:"createdAt"`
}

type ChunkMetadata struct {
	FileName    string    `json:"fileName"`
	FileType    string    `json:"fileType"`
	FileSize    int64     `json:"fileSize"`
	ChunkIndex  int       `json:"chunkIndex"`
	TotalChunks int       `json:"totalChunks"`
	PageCount   int       `json:"pageCount"`
	ChunkId     string    `json:"chunkId"`
	DocumentId  string    `json:"documentId,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

type Chunk struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// metadata keys shared by every vector index backend
const (
	MetaUserId      = "userId"
	MetaSessionId   = "sessionId"
	MetaDocumentId  = "documentId"
	MetaFileName    = "fileName"
	MetaFileType    = "fileType"
	MetaFileSize    = "fileSize"
	MetaChunkIndex  = "chunkIndex"
	MetaTotalChunks = "totalChunks"
	MetaPageCount   = "pageCount"
	MetaChunkId     = "chunkId"
	MetaUploadedAt  = "uploadedAt"
	MetaText        = "text"
	MetaRole        = "role"
	MetaCreatedAt   = "createdAt"
	MetaVectorId    = "vectorId"
)

type VectorRecord struct {
	Id       string
	Vector   []float32
	Metadata map[string]any
}

// Filter is an exact-equality match on metadata keys.
type Filter map[string]string

type RetrievalMatch struct {
	Id            string
	SemanticScore float64
	Text          string
	Metadata      map[string]any
}

type ScoredMatch struct {
	RetrievalMatch
	KeywordScore float64
	HybridScore  float64
}

// Source is returned to the caller for citation, never sent to the generator.
type Source struct {
	DocumentId string  `json:"documentId,omitempty"`
	FileName   string  `json:"fileName,omitempty"`
	ChunkIndex int     `json:"chunkIndex"`
	Score      float64 `json:"score"`
}

// MetaString reads a string metadata field; absent or non-string values are "".
func MetaString(md map[string]any, key string) string {
	if md == nil {
		return ""
	}
	switch v := md[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// MetaInt reads a numeric metadata field; absent values are 0.
func MetaInt(md map[string]any, key string) int {
	if md == nil {
		return 0
	}
	switch v := md[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float32:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Truncate cuts s to at most n characters without splitting a rune.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
