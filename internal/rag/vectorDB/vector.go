package vectorDB

import (
	"context"
	"errors"

	"github.com/akolanti/DocAssist/internal/domain/commonModels"
)

var (
	// ErrUnavailable marks transport failures: the index could not be reached.
	ErrUnavailable = errors.New("vector index unavailable")
	ErrEmptyFilter = errors.New("vector delete requires a non-empty filter")
)

// Index is one namespace of a vector store. Document chunks and chat
// messages live in separate indexes and a query never crosses them.
type Index interface {
	Name() string
	Upsert(ctx context.Context, records []commonModels.VectorRecord) error
	// Query returns at most topK matches whose metadata equals every filter
	// entry, best first. No match is an empty slice, not an error.
	Query(ctx context.Context, vector []float32, topK int, filter commonModels.Filter) ([]commonModels.RetrievalMatch, error)
	Delete(ctx context.Context, filter commonModels.Filter) error
}

// Store opens namespaced indexes on one backend.
type Store interface {
	Index(ctx context.Context, name string) (Index, error)
	Close() error
}

// Matches reports whether md satisfies every filter entry by string equality.
func Matches(md map[string]any, filter commonModels.Filter) bool {
	for k, want := range filter {
		if commonModels.MetaString(md, k) != want {
			return false
		}
	}
	return true
}
