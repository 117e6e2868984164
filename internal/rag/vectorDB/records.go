package vectorDB

import (
	"time"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/domain/chatModel"
	"github.com/akolanti/DocAssist/internal/domain/commonModels"
)

// DocumentChunkRecord builds the stored form of one chunk. The text kept in
// metadata is capped; the full chunk lives with the document.
func DocumentChunkRecord(chunk commonModels.Chunk, vector []float32, userId string, sessionId string, documentId string) commonModels.VectorRecord {
	md := chunk.Metadata
	uploadedAt := md.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now().UTC()
	}
	if documentId == "" {
		documentId = md.DocumentId
	}

	return commonModels.VectorRecord{
		Id:     commonModels.DocumentVectorID(documentId, md.FileName, md.ChunkIndex, uploadedAt),
		Vector: vector,
		Metadata: map[string]any{
			commonModels.MetaUserId:      userId,
			commonModels.MetaSessionId:   sessionId,
			commonModels.MetaDocumentId:  documentId,
			commonModels.MetaFileName:    md.FileName,
			commonModels.MetaFileType:    md.FileType,
			commonModels.MetaFileSize:    md.FileSize,
			commonModels.MetaChunkIndex:  int64(md.ChunkIndex),
			commonModels.MetaTotalChunks: int64(md.TotalChunks),
			commonModels.MetaPageCount:   int64(md.PageCount),
			commonModels.MetaChunkId:     md.ChunkId,
			commonModels.MetaUploadedAt:  uploadedAt.Format(time.RFC3339),
			commonModels.MetaText:        commonModels.Truncate(chunk.Text, config.VectorMetadataTextSize),
		},
	}
}

func ChatMessageRecord(msg chatModel.ChatMessage, vector []float32) commonModels.VectorRecord {
	return commonModels.VectorRecord{
		Id:     commonModels.ChatVectorID(msg.SessionId, msg.Timestamp),
		Vector: vector,
		Metadata: map[string]any{
			commonModels.MetaUserId:    msg.UserId,
			commonModels.MetaSessionId: msg.SessionId,
			commonModels.MetaRole:      string(msg.Role),
			commonModels.MetaText:      commonModels.Truncate(msg.Message, config.VectorMetadataTextSize),
			commonModels.MetaCreatedAt: msg.Timestamp.UTC().Format(time.RFC3339Nano),
		},
	}
}

func ChatMessageFromMatch(m commonModels.RetrievalMatch) chatModel.ChatMessage {
	ts, _ := time.Parse(time.RFC3339Nano, commonModels.MetaString(m.Metadata, commonModels.MetaCreatedAt))
	text := m.Text
	if text == "" {
		text = commonModels.MetaString(m.Metadata, commonModels.MetaText)
	}
	return chatModel.ChatMessage{
		UserId:    commonModels.MetaString(m.Metadata, commonModels.MetaUserId),
		SessionId: commonModels.MetaString(m.Metadata, commonModels.MetaSessionId),
		Role:      chatModel.Role(commonModels.MetaString(m.Metadata, commonModels.MetaRole)),
		Message:   text,
		Timestamp: ts,
	}
}
