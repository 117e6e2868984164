package commonModels

import (
	"context"
	"errors"
)

var ErrDocumentNotFound = errors.New("document not found")

// DocumentRegistry is the persistence collaborator owning document rows.
type DocumentRegistry interface {
	CreateDocument(ctx context.Context, doc Document) error
	GetDocument(ctx context.Context, userId string, id DocumentID) (Document, error)
	ListDocuments(ctx context.Context, userId string) ([]Document, error)
	ListEnabledDocumentIDs(ctx context.Context, userId string) ([]string, error)
	SetEnabled(ctx context.Context, userId string, id DocumentID, enabled bool) error
	DeleteDocument(ctx context.Context, userId string, id DocumentID) (Document, error)
}
