package documentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/pkg/logger_i"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	title      TEXT NOT NULL,
	file_name  TEXT NOT NULL,
	file_type  TEXT NOT NULL,
	status     TEXT NOT NULL,
	is_enabled INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_user ON documents(user_id, is_enabled);`

// fixed width so created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRegistry keeps document rows in a single sqlite file.
type SQLiteRegistry struct {
	db     *sql.DB
	logger *logger_i.Logger
}

var _ commonModels.DocumentRegistry = (*SQLiteRegistry)(nil)

func Open(path string) (*SQLiteRegistry, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger := logger_i.NewLogger("document_registry")
	logger.Info("document registry opened", "path", path)
	return &SQLiteRegistry{db: db, logger: logger}, nil
}

func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}

func (r *SQLiteRegistry) CreateDocument(ctx context.Context, doc commonModels.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, user_id, title, file_name, file_type, status, is_enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.Id.String(), doc.UserId, doc.Title, doc.FileName, doc.FileType, doc.Status, doc.IsEnabled, doc.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	r.logger.FromContext(ctx).Debug("document registered", "documentId", doc.Id, "userId", doc.UserId)
	return nil
}

func (r *SQLiteRegistry) GetDocument(ctx context.Context, userId string, id commonModels.DocumentID) (commonModels.Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, file_name, file_type, status, is_enabled, created_at
		 FROM documents WHERE id = ? AND user_id = ?`, id.String(), userId)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return commonModels.Document{}, commonModels.ErrDocumentNotFound
	}
	return doc, err
}

func (r *SQLiteRegistry) ListDocuments(ctx context.Context, userId string) ([]commonModels.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, file_name, file_type, status, is_enabled, created_at
		 FROM documents WHERE user_id = ? ORDER BY created_at DESC`, userId)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []commonModels.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *SQLiteRegistry) ListEnabledDocumentIDs(ctx context.Context, userId string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM documents WHERE user_id = ? AND is_enabled = 1`, userId)
	if err != nil {
		return nil, fmt.Errorf("list enabled documents: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRegistry) SetEnabled(ctx context.Context, userId string, id commonModels.DocumentID, enabled bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE documents SET is_enabled = ? WHERE id = ? AND user_id = ?`, enabled, id.String(), userId)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return requireOne(res)
}

func (r *SQLiteRegistry) DeleteDocument(ctx context.Context, userId string, id commonModels.DocumentID) (commonModels.Document, error) {
	doc, err := r.GetDocument(ctx, userId, id)
	if err != nil {
		return commonModels.Document{}, err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ? AND user_id = ?`, id.String(), userId)
	if err != nil {
		return commonModels.Document{}, fmt.Errorf("delete document: %w", err)
	}
	if err := requireOne(res); err != nil {
		return commonModels.Document{}, err
	}
	return doc, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (commonModels.Document, error) {
	var doc commonModels.Document
	var id, createdAt string
	if err := s.Scan(&id, &doc.UserId, &doc.Title, &doc.FileName, &doc.FileType, &doc.Status, &doc.IsEnabled, &createdAt); err != nil {
		return commonModels.Document{}, err
	}
	parsed, err := commonModels.ParseDocumentID(id)
	if err != nil {
		return commonModels.Document{}, err
	}
	doc.Id = parsed
	doc.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return doc, nil
}

func requireOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return commonModels.ErrDocumentNotFound
	}
	return nil
}
