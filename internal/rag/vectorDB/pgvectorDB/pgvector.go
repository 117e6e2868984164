// Package pgvectorDB stores vectors in Postgres with the pgvector extension.
// Each index is its own table; metadata is a jsonb column filtered with @>.
package pgvectorDB

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/internal/rag/vectorDB"
	"github.com/akolanti/DocAssist/pkg/logger_i"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

var tableNamePattern = regexp.MustCompile(`[^a-z0-9_]`)

type Client struct {
	db        *sql.DB
	dimension int
	timeout   time.Duration
	logger    *logger_i.Logger
}

var _ vectorDB.Store = (*Client)(nil)

func New(ctx context.Context, settings config.VectorSettings, dimension int) (*Client, error) {
	if settings.PostgresDSN == "" {
		return nil, errors.New("pgvector: missing PGVECTOR_DSN")
	}
	db, err := sql.Open("postgres", settings.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("unable to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to connect to database: %w: %w", vectorDB.ErrUnavailable, err)
	}
	if _, err := db.ExecContext(pingCtx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable pgvector: %w", err)
	}

	logger := logger_i.NewLogger("pgvector")
	logger.Info("pgvector store connected", "dimension", dimension)

	return &Client{db: db, dimension: dimension, timeout: settings.Timeout, logger: logger}, nil
}

func (c *Client) Index(ctx context.Context, name string) (vectorDB.Index, error) {
	table := TableName(name)
	if table == "" {
		return nil, errors.New("empty index name")
	}
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id        TEXT PRIMARY KEY,
			embedding vector(%[2]d) NOT NULL,
			metadata  JSONB NOT NULL DEFAULT '{}'::jsonb,
			text      TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS %[1]s_metadata_idx ON %[1]s USING GIN (metadata jsonb_path_ops);
	`, table, c.dimension)

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		c.logger.Error("could not create table", "table", table, "error", err)
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}
	return &pgIndex{client: c, name: name, table: table}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// TableName maps an index name to a safe table name: "chat-messages"
// becomes "vec_chat_messages".
func TableName(index string) string {
	s := tableNamePattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(index)), "_")
	if s == "" {
		return ""
	}
	return "vec_" + s
}

type pgIndex struct {
	client *Client
	name   string
	table  string
}

func (t *pgIndex) Name() string { return t.name }

func (t *pgIndex) Upsert(ctx context.Context, records []commonModels.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if len(r.Vector) != t.client.dimension {
			return fmt.Errorf("pgvector upsert: record %s has dimension %d, table wants %d", r.Id, len(r.Vector), t.client.dimension)
		}
	}

	ctx, cancel := t.client.withTimeout(ctx)
	defer cancel()
	tx, err := t.client.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, embedding, metadata, text)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata, text = EXCLUDED.text
	`, t.table))
	if err != nil {
		return classify("prepare upsert", err)
	}
	defer stmt.Close()

	for _, r := range records {
		md, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("pgvector upsert: metadata for %s: %w", r.Id, err)
		}
		text := commonModels.MetaString(r.Metadata, commonModels.MetaText)
		if _, err := stmt.ExecContext(ctx, r.Id, pgvector.NewVector(r.Vector), md, text); err != nil {
			return classify("upsert", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return classify("commit", err)
	}
	return nil
}

func (t *pgIndex) Query(ctx context.Context, vector []float32, topK int, filter commonModels.Filter) ([]commonModels.RetrievalMatch, error) {
	if topK <= 0 {
		return []commonModels.RetrievalMatch{}, nil
	}
	f, err := filterJSON(filter)
	if err != nil {
		return nil, err
	}

	ctx, cancel := t.client.withTimeout(ctx)
	defer cancel()
	query := fmt.Sprintf(`
		SELECT id, text, metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE metadata @> $2::jsonb
		ORDER BY embedding <=> $1
		LIMIT $3
	`, t.table)
	rows, err := t.client.db.QueryContext(ctx, query, pgvector.NewVector(vector), f, topK)
	if err != nil {
		t.client.logger.FromContext(ctx).Error("failed to execute search query", "table", t.table, "error", err)
		return nil, classify("query", err)
	}
	defer rows.Close()

	matches := make([]commonModels.RetrievalMatch, 0, topK)
	for rows.Next() {
		var m commonModels.RetrievalMatch
		var raw []byte
		if err := rows.Scan(&m.Id, &m.Text, &raw, &m.SemanticScore); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		if err := json.Unmarshal(raw, &m.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for %s: %w", m.Id, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("query", err)
	}
	return matches, nil
}

func (t *pgIndex) Delete(ctx context.Context, filter commonModels.Filter) error {
	if len(filter) == 0 {
		return vectorDB.ErrEmptyFilter
	}
	f, err := filterJSON(filter)
	if err != nil {
		return err
	}
	ctx, cancel := t.client.withTimeout(ctx)
	defer cancel()
	if _, err := t.client.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE metadata @> $1::jsonb`, t.table), f); err != nil {
		return classify("delete", err)
	}
	return nil
}

func filterJSON(filter commonModels.Filter) (string, error) {
	if len(filter) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]string(filter))
	if err != nil {
		return "", fmt.Errorf("encode filter: %w", err)
	}
	return string(b), nil
}

func classify(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// class 08 is connection exception
		if pqErr.Code.Class() == "08" {
			return fmt.Errorf("pgvector %s: %w: %w", op, vectorDB.ErrUnavailable, err)
		}
		return fmt.Errorf("pgvector %s: %w", op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("pgvector %s: %w: %w", op, vectorDB.ErrUnavailable, err)
	}
	return fmt.Errorf("pgvector %s: %w", op, err)
}
