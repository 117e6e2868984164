package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type IngestResult struct {
	DocumentId string `json:"documentId" example:"7a1f1c2e-1d2b-4c3d-9e8f-0a1b2c3d4e5f"`
	FileName   string `json:"fileName" example:"handbook.pdf"`
	ChunkCount int    `json:"chunkCount" example:"42"`
}

type Result struct {
	Status   string        `json:"status"`
	Step     string        `json:"step,omitempty"`
	Document *IngestResult `json:"document,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

// chat---------------------

type AskRequest struct {
	Question  string `json:"question" validate:"required" example:"What is the vacation policy?"`
	SessionId string `json:"sessionId" validate:"required" example:"session-1"`
	TopK      int    `json:"topK,omitempty" example:"5"`
}

type SourceResponse struct {
	DocumentId string  `json:"documentId,omitempty"`
	FileName   string  `json:"fileName,omitempty"`
	ChunkIndex int     `json:"chunkIndex"`
	Score      float64 `json:"score"`
}

type AskResponse struct {
	Success  bool             `json:"success"`
	Answer   string           `json:"answer,omitempty"`
	Sources  []SourceResponse `json:"sources,omitempty"`
	Error    string           `json:"error,omitempty"`
	Reason   string           `json:"reason,omitempty" example:"no_enabled_documents"`
	Fallback bool             `json:"fallback,omitempty"`
}

type MessageResponse struct {
	Role      string    `json:"role" example:"user"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	SessionId string    `json:"sessionId,omitempty"`
}

type HistoryResponse struct {
	SessionId string            `json:"sessionId"`
	Messages  []MessageResponse `json:"messages"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type SessionResponse struct {
	SessionId string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

type SearchResponse struct {
	Query    string            `json:"query"`
	Messages []MessageResponse `json:"messages"`
}

// documents---------------------

type DocumentResponse struct {
	DocumentId string    `json:"documentId"`
	Title      string    `json:"title"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	Status     string    `json:"status"`
	IsEnabled  bool      `json:"isEnabled"`
	CreatedAt  time.Time `json:"createdAt"`
}

type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

type ToggleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// admin---------------------

type SessionUsage struct {
	UserId          string `json:"userId"`
	SessionId       string `json:"sessionId"`
	State           string `json:"state"`
	MessageCount    int    `json:"messageCount"`
	EstimatedTokens int    `json:"estimatedTokens"`
}

type UsageResponse struct {
	Sessions         []SessionUsage `json:"sessions"`
	TotalSessions    int            `json:"totalSessions"`
	TotalMessages    int            `json:"totalMessages"`
	TotalTokens      int            `json:"totalTokens"`
	EstimatedCostUSD float64        `json:"estimatedCostUsd"`
}
