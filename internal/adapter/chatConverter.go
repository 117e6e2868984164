package adapter

import (
	"github.com/akolanti/DocAssist/internal/api"
	"github.com/akolanti/DocAssist/internal/domain/chatModel"
	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/internal/rag"
)

func ToAskRequest(userId string, req api.AskRequest) rag.AskRequest {
	return rag.AskRequest{
		UserId:    userId,
		SessionId: req.SessionId,
		Question:  req.Question,
		TopK:      req.TopK,
	}
}

func ToAskResponse(res rag.AskResult) api.AskResponse {
	return api.AskResponse{
		Success:  res.Success,
		Answer:   res.Answer,
		Sources:  ToSourceResponses(res.Sources),
		Error:    res.Error,
		Reason:   string(res.NoContext),
		Fallback: res.Fallback,
	}
}

func ToSourceResponses(sources []commonModels.Source) []api.SourceResponse {
	out := make([]api.SourceResponse, len(sources))
	for i, s := range sources {
		out[i] = api.SourceResponse{
			DocumentId: s.DocumentId,
			FileName:   s.FileName,
			ChunkIndex: s.ChunkIndex,
			Score:      s.Score,
		}
	}
	return out
}

func ToMessageResponses(msgs []chatModel.ChatMessage, withSession bool) []api.MessageResponse {
	out := make([]api.MessageResponse, len(msgs))
	for i, m := range msgs {
		out[i] = api.MessageResponse{
			Role:      string(m.Role),
			Message:   m.Message,
			Timestamp: m.Timestamp,
		}
		if withSession {
			out[i].SessionId = m.SessionId
		}
	}
	return out
}

func ToHistoryResponse(session chatModel.ChatSession) api.HistoryResponse {
	return api.HistoryResponse{
		SessionId: session.SessionId,
		Messages:  ToMessageResponses(session.Messages, false),
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
}

func ToSessionsResponse(sessions []chatModel.ChatSession) api.SessionsResponse {
	out := api.SessionsResponse{Sessions: make([]api.SessionResponse, len(sessions))}
	for i, s := range sessions {
		out.Sessions[i] = api.SessionResponse{SessionId: s.SessionId, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt}
	}
	return out
}

func ToDocumentResponse(doc commonModels.Document) api.DocumentResponse {
	return api.DocumentResponse{
		DocumentId: doc.Id.String(),
		Title:      doc.Title,
		FileName:   doc.FileName,
		FileType:   doc.FileType,
		Status:     doc.Status,
		IsEnabled:  doc.IsEnabled,
		CreatedAt:  doc.CreatedAt,
	}
}

func ToDocumentListResponse(docs []commonModels.Document) api.DocumentListResponse {
	out := api.DocumentListResponse{Documents: make([]api.DocumentResponse, len(docs))}
	for i, d := range docs {
		out.Documents[i] = ToDocumentResponse(d)
	}
	return out
}
