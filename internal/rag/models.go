package rag

import (
	"errors"
	"fmt"

	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/internal/rag/vectorDB"
)

var ErrValidation = errors.New("invalid request")

type AskRequest struct {
	UserId    string
	SessionId string
	Question  string
	TopK      int
}

type NoContextReason string

const (
	NoDocumentsIndexed  NoContextReason = "no_documents_indexed"
	NoEnabledDocuments  NoContextReason = "no_enabled_documents"
	NoRelevantDocuments NoContextReason = "no_relevant_documents"
)

// Message is what the caller is shown for this reason.
func (r NoContextReason) Message() string {
	switch r {
	case NoDocumentsIndexed:
		return "No documents found in vector store. Please upload documents first."
	case NoEnabledDocuments:
		return "No enabled documents found for your account. Please contact support."
	case NoRelevantDocuments:
		return "No relevant documents found. The search results don't match your enabled documents. Please try a different question."
	default:
		return ""
	}
}

type AskResult struct {
	Success bool                  `json:"success"`
	Answer  string                `json:"answer,omitempty"`
	Sources []commonModels.Source `json:"sources,omitempty"`
	// Error and NoContext are set together when nothing could be retrieved.
	Error     string          `json:"error,omitempty"`
	NoContext NoContextReason `json:"noContext,omitempty"`
	Fallback  bool            `json:"fallback,omitempty"`
	Greeting  bool            `json:"greeting,omitempty"`
}

// RetrievalError means the question could not be embedded or the index
// could not be searched. Nothing is persisted when it is returned.
type RetrievalError struct {
	Op  string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed during %s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Unreachable reports whether the vector index could not be reached at all.
func (e *RetrievalError) Unreachable() bool {
	return errors.Is(e.Err, vectorDB.ErrUnavailable)
}
