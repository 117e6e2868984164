package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/internal/rag/vectorDB"
	"github.com/akolanti/DocAssist/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

// payload fields that get a keyword index so filtered queries stay fast
var indexedFields = []string{
	commonModels.MetaUserId,
	commonModels.MetaSessionId,
	commonModels.MetaDocumentId,
	commonModels.MetaFileName,
}

type Client struct {
	qc        *qdrant.Client
	dimension uint64
	timeout   time.Duration
	logger    *logger_i.Logger
}

var _ vectorDB.Store = (*Client)(nil)

func New(settings config.VectorSettings, dimension int) (*Client, error) {
	if dimension <= 0 {
		return nil, errors.New("qdrant: invalid dimension")
	}
	qc, err := qdrant.NewClient(&qdrant.Config{
		Host:     settings.QdrantHost,
		Port:     settings.QdrantPort,
		APIKey:   settings.QdrantAPIKey,
		UseTLS:   settings.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, fmt.Errorf("could not instantiate qdrant: %w", err)
	}

	logger := logger_i.NewLogger("Qdrant")
	logger.Info("Qdrant client created", "host", settings.QdrantHost, "port", settings.QdrantPort)

	return &Client{
		qc:        qc,
		dimension: uint64(dimension),
		timeout:   settings.Timeout,
		logger:    logger,
	}, nil
}

// Index returns the collection called name, creating it if needed.
func (c *Client) Index(ctx context.Context, name string) (vectorDB.Index, error) {
	if err := c.createCollection(ctx, name); err != nil {
		c.logger.Error("could not create collection: ", "collectionName", name, "error:", err)
		return nil, classify("create collection", err)
	}
	return &collection{client: c, name: name}, nil
}

func (c *Client) Close() error {
	c.logger.Info("Shutting down Qdrant")
	return c.qc.Close()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) createCollection(ctx context.Context, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	exists, err := c.qc.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = c.qc.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     c.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return err
	}

	for _, field := range indexedFields {
		_, err := c.qc.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: collectionName,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			c.logger.Warn("could not create payload index", "collectionName", collectionName, "field", field, "error", err)
		}
	}
	c.logger.Info("created collection", "collectionName", collectionName, "dimension", c.dimension)
	return nil
}

type collection struct {
	client *Client
	name   string
}

func (col *collection) Name() string { return col.name }

func (col *collection) Upsert(ctx context.Context, records []commonModels.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		if uint64(len(r.Vector)) != col.client.dimension {
			return fmt.Errorf("qdrant upsert: record %s has dimension %d, collection wants %d", r.Id, len(r.Vector), col.client.dimension)
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(r.Id)),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: qdrant.NewValueMap(toPayload(r)),
		}
	}

	ctx, cancel := col.client.withTimeout(ctx)
	defer cancel()
	_, err := col.client.qc.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: col.name,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return classify("upsert", err)
	}
	return nil
}

func (col *collection) Query(ctx context.Context, vector []float32, topK int, filter commonModels.Filter) ([]commonModels.RetrievalMatch, error) {
	log := col.client.logger.FromContext(ctx)
	if topK <= 0 {
		return []commonModels.RetrievalMatch{}, nil
	}

	ctx, cancel := col.client.withTimeout(ctx)
	defer cancel()
	result, err := col.client.qc.Query(ctx, &qdrant.QueryPoints{
		CollectionName: col.name,
		Query:          qdrant.NewQuery(vector...),
		Filter:         buildFilter(filter),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		log.Error("Error querying Qdrant: ", "collectionName", col.name, "error:", err)
		return nil, classify("query", err)
	}

	matches := make([]commonModels.RetrievalMatch, 0, len(result))
	for _, hit := range result {
		md := fromPayload(hit.GetPayload())
		id := commonModels.MetaString(md, commonModels.MetaVectorId)
		if id == "" {
			id = hit.GetId().GetUuid()
		}
		matches = append(matches, commonModels.RetrievalMatch{
			Id:            id,
			SemanticScore: float64(hit.GetScore()),
			Text:          commonModels.MetaString(md, commonModels.MetaText),
			Metadata:      md,
		})
	}
	log.Debug("Found matches", "collectionName", col.name, "count", len(matches))
	return matches, nil
}

func (col *collection) Delete(ctx context.Context, filter commonModels.Filter) error {
	if len(filter) == 0 {
		return vectorDB.ErrEmptyFilter
	}
	ctx, cancel := col.client.withTimeout(ctx)
	defer cancel()
	_, err := col.client.qc.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: col.name,
		Points:         qdrant.NewPointsSelectorFilter(buildFilter(filter)),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return classify("delete", err)
	}
	return nil
}
