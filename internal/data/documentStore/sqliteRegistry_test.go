package documentStore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/akolanti/DocAssist/internal/domain/commonModels"
)

func openTestRegistry(t *testing.T) *SQLiteRegistry {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func newDoc(user string, enabled bool, at time.Time) commonModels.Document {
	return commonModels.Document{
		Id:        commonModels.NewDocumentID(),
		UserId:    user,
		Title:     "handbook.pdf",
		FileName:  "handbook.pdf",
		FileType:  "pdf",
		Status:    "ready",
		IsEnabled: enabled,
		CreatedAt: at,
	}
}

func TestRegistry_Lifecycle(t *testing.T) {
	ctx := context.Background()
	r := openTestRegistry(t)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	first := newDoc("alice", true, base)
	second := newDoc("alice", false, base.Add(time.Minute))
	other := newDoc("bob", true, base)
	for _, d := range []commonModels.Document{first, second, other} {
		if err := r.CreateDocument(ctx, d); err != nil {
			t.Fatalf("CreateDocument: %v", err)
		}
	}

	t.Run("List own documents newest first", func(t *testing.T) {
		docs, err := r.ListDocuments(ctx, "alice")
		if err != nil {
			t.Fatal(err)
		}
		if len(docs) != 2 || docs[0].Id != second.Id {
			t.Errorf("unexpected listing %+v", docs)
		}
	})

	t.Run("Enabled ids are scoped to the user", func(t *testing.T) {
		ids, err := r.ListEnabledDocumentIDs(ctx, "alice")
		if err != nil {
			t.Fatal(err)
		}
		if len(ids) != 1 || ids[0] != first.Id.String() {
			t.Errorf("enabled ids = %v", ids)
		}
	})

	t.Run("Toggle", func(t *testing.T) {
		if err := r.SetEnabled(ctx, "alice", second.Id, true); err != nil {
			t.Fatal(err)
		}
		ids, _ := r.ListEnabledDocumentIDs(ctx, "alice")
		if len(ids) != 2 {
			t.Errorf("expected 2 enabled, got %v", ids)
		}
		if err := r.SetEnabled(ctx, "bob", first.Id, false); !errors.Is(err, commonModels.ErrDocumentNotFound) {
			t.Errorf("toggling another user's document should fail, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		doc, err := r.DeleteDocument(ctx, "alice", first.Id)
		if err != nil {
			t.Fatal(err)
		}
		if doc.FileName != "handbook.pdf" || !doc.CreatedAt.Equal(base) {
			t.Errorf("deleted document = %+v", doc)
		}
		if _, err := r.GetDocument(ctx, "alice", first.Id); !errors.Is(err, commonModels.ErrDocumentNotFound) {
			t.Errorf("expected not found after delete, got %v", err)
		}
		if _, err := r.DeleteDocument(ctx, "alice", first.Id); !errors.Is(err, commonModels.ErrDocumentNotFound) {
			t.Errorf("second delete should be not found, got %v", err)
		}
	})
}
