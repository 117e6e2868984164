// Package memoryDB is an in-process vector store using brute-force cosine
// similarity. It backs local runs and tests.
package memoryDB

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/internal/rag/vectorDB"
)

var ErrDimension = errors.New("vector dimension mismatch")

type Store struct {
	mu        sync.Mutex
	dimension int
	indexes   map[string]*index
}

var _ vectorDB.Store = (*Store)(nil)

func NewStore(dimension int) *Store {
	return &Store{
		dimension: dimension,
		indexes:   make(map[string]*index),
	}
}

func (s *Store) Index(_ context.Context, name string) (vectorDB.Index, error) {
	if name == "" {
		return nil, errors.New("empty index name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[name]
	if !ok {
		idx = &index{name: name, dimension: s.dimension, records: make(map[string]commonModels.VectorRecord)}
		s.indexes[name] = idx
	}
	return idx, nil
}

func (s *Store) Close() error { return nil }

type index struct {
	mu        sync.RWMutex
	name      string
	dimension int
	records   map[string]commonModels.VectorRecord
}

func (i *index) Name() string { return i.name }

func (i *index) Upsert(_ context.Context, records []commonModels.VectorRecord) error {
	for _, r := range records {
		if len(r.Vector) != i.dimension {
			return fmt.Errorf("%w: record %s has %d, index %s wants %d", ErrDimension, r.Id, len(r.Vector), i.name, i.dimension)
		}
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, r := range records {
		md := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			md[k] = v
		}
		i.records[r.Id] = commonModels.VectorRecord{Id: r.Id, Vector: append([]float32(nil), r.Vector...), Metadata: md}
	}
	return nil
}

func (i *index) Query(ctx context.Context, vector []float32, topK int, filter commonModels.Filter) ([]commonModels.RetrievalMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) != i.dimension {
		return nil, fmt.Errorf("%w: query has %d, index %s wants %d", ErrDimension, len(vector), i.name, i.dimension)
	}
	if topK <= 0 {
		return []commonModels.RetrievalMatch{}, nil
	}

	i.mu.RLock()
	matches := make([]commonModels.RetrievalMatch, 0, len(i.records))
	for _, r := range i.records {
		if !vectorDB.Matches(r.Metadata, filter) {
			continue
		}
		matches = append(matches, commonModels.RetrievalMatch{
			Id:            r.Id,
			SemanticScore: cosine(vector, r.Vector),
			Text:          commonModels.MetaString(r.Metadata, commonModels.MetaText),
			Metadata:      r.Metadata,
		})
	}
	i.mu.RUnlock()

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].SemanticScore == matches[b].SemanticScore {
			return matches[a].Id < matches[b].Id
		}
		return matches[a].SemanticScore > matches[b].SemanticScore
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (i *index) Delete(_ context.Context, filter commonModels.Filter) error {
	if len(filter) == 0 {
		return vectorDB.ErrEmptyFilter
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	for id, r := range i.records {
		if vectorDB.Matches(r.Metadata, filter) {
			delete(i.records, id)
		}
	}
	return nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for k := range a {
		x, y := float64(a[k]), float64(b[k])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
