package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/internal/rag/vectorDB"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Qdrant only accepts UUIDs or integers as point ids, so readable ids are
// hashed into a stable UUID and kept in the vectorId payload field.
var pointNamespace = uuid.MustParse("6f1c3b0e-6a52-4d55-9d44-1b1a4f0f7a2e")

func pointID(id string) string {
	return uuid.NewSHA1(pointNamespace, []byte(id)).String()
}

func buildFilter(filter commonModels.Filter) *qdrant.Filter {
	if len(filter) == 0 {
		return nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	must := make([]*qdrant.Condition, 0, len(keys))
	for _, k := range keys {
		must = append(must, qdrant.NewMatch(k, filter[k]))
	}
	return &qdrant.Filter{Must: must}
}

func toPayload(r commonModels.VectorRecord) map[string]any {
	out := make(map[string]any, len(r.Metadata)+1)
	for k, v := range r.Metadata {
		out[k] = normalize(v)
	}
	out[commonModels.MetaVectorId] = r.Id
	return out
}

// normalize narrows metadata values to the scalar kinds a payload holds.
func normalize(v any) any {
	switch t := v.(type) {
	case nil, string, bool, int64, float64:
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case commonModels.DocumentID:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func fromPayload(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		switch kind := v.GetKind().(type) {
		case *qdrant.Value_StringValue:
			out[k] = kind.StringValue
		case *qdrant.Value_IntegerValue:
			out[k] = kind.IntegerValue
		case *qdrant.Value_DoubleValue:
			out[k] = kind.DoubleValue
		case *qdrant.Value_BoolValue:
			out[k] = kind.BoolValue
		}
	}
	return out
}

func classify(op string, err error) error {
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.DeadlineExceeded:
			return fmt.Errorf("qdrant %s: %w: %w", op, vectorDB.ErrUnavailable, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("qdrant %s: %w: %w", op, vectorDB.ErrUnavailable, err)
	}
	return fmt.Errorf("qdrant %s: %w", op, err)
}
