package qdrantDB

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/internal/rag/vectorDB"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestPointID_StableUUID(t *testing.T) {
	a := pointID("doc_report_pdf_1700000000000_0")
	b := pointID("doc_report_pdf_1700000000000_0")
	c := pointID("doc_report_pdf_1700000000000_1")

	if a != b {
		t.Errorf("point id not stable: %s vs %s", a, b)
	}
	if a == c {
		t.Errorf("different ids collided: %s", a)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("point id is not a uuid: %s", a)
	}
}

func TestBuildFilter(t *testing.T) {
	if buildFilter(nil) != nil {
		t.Error("empty filter should be nil")
	}

	f := buildFilter(commonModels.Filter{
		commonModels.MetaUserId:    "u1",
		commonModels.MetaSessionId: "s1",
	})
	if len(f.Must) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(f.Must))
	}
	first := f.Must[0].GetField()
	if first.GetKey() != commonModels.MetaSessionId || first.GetMatch().GetKeyword() != "s1" {
		t.Errorf("conditions should be sorted by key, got %s=%s", first.GetKey(), first.GetMatch().GetKeyword())
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := commonModels.VectorRecord{
		Id: "doc_a_1_0",
		Metadata: map[string]any{
			commonModels.MetaUserId:     "u1",
			commonModels.MetaChunkIndex: 3,
			commonModels.MetaFileSize:   int64(2048),
			commonModels.MetaUploadedAt: at,
		},
	}

	md := fromPayload(qdrant.NewValueMap(toPayload(rec)))

	if commonModels.MetaString(md, commonModels.MetaVectorId) != "doc_a_1_0" {
		t.Errorf("vectorId missing: %v", md)
	}
	if commonModels.MetaInt(md, commonModels.MetaChunkIndex) != 3 {
		t.Errorf("chunkIndex = %v", md[commonModels.MetaChunkIndex])
	}
	if commonModels.MetaString(md, commonModels.MetaUploadedAt) != "2024-05-01T12:00:00Z" {
		t.Errorf("uploadedAt = %v", md[commonModels.MetaUploadedAt])
	}
}

func TestClassify(t *testing.T) {
	down := classify("query", status.Error(codes.Unavailable, "connection refused"))
	if !errors.Is(down, vectorDB.ErrUnavailable) {
		t.Errorf("unavailable should map to ErrUnavailable: %v", down)
	}

	slow := classify("query", context.DeadlineExceeded)
	if !errors.Is(slow, vectorDB.ErrUnavailable) {
		t.Errorf("deadline should map to ErrUnavailable: %v", slow)
	}

	bad := classify("query", status.Error(codes.InvalidArgument, "wrong dim"))
	if errors.Is(bad, vectorDB.ErrUnavailable) {
		t.Errorf("invalid argument is not unavailability: %v", bad)
	}
}
