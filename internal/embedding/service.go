// Package embedding implements the chat embedding record service: it builds
// store documents from validated input, maps store responses back to the
// public record shape, composes filter predicates, derives pagination
// metadata, and computes summary statistics.
package embedding

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/MyMindSpace/chat-embedding-db/internal/docstore"
	"github.com/MyMindSpace/chat-embedding-db/internal/schema"
)

var tracer = otel.Tracer("chat-embedding-db.embedding")

// statsRecentWindow is the trailing window of the "recent" statistics count.
const statsRecentWindow = 7 * 24 * time.Hour

// Service is the embedding record service contract. Every operation takes a
// request that has already been shaped by the transport layer; validation
// happens here, so a request that fails the contract never reaches the
// store.
type Service interface {
	// Create validates the full contract, assigns an id and timestamps, and
	// persists one record.
	Create(ctx context.Context, req *schema.CreateRequest) (*schema.EmbeddingRecord, error)

	// GetByID returns the record with the given id.
	GetByID(ctx context.Context, id string) (*schema.EmbeddingRecord, error)

	// Replace substitutes the whole record. The id and created_at of the
	// existing record are preserved; updated_at is refreshed. Omitted
	// optional fields take their defaults, never the old record's values.
	Replace(ctx context.Context, id string, req *schema.ReplaceRequest) (*schema.EmbeddingRecord, error)

	// Delete removes the record with the given id.
	Delete(ctx context.Context, id string) error

	// CreateBatch validates every item independently and, only when all
	// pass, persists them in a single bulk insert.
	CreateBatch(ctx context.Context, items []*schema.CreateRequest) (*BatchResult, error)

	// FindSimilar returns up to limit records ranked by descending
	// similarity of their primary embedding to the query vector.
	FindSimilar(ctx context.Context, query *schema.SimilarityQuery) (*SearchResult, error)

	// Query returns a filtered, sorted page of records with pagination
	// metadata derived from a separate unpaginated count.
	Query(ctx context.Context, query *schema.ListQuery) (*Page, error)

	// Stats summarizes the whole collection.
	Stats(ctx context.Context) (*Statistics, error)

	// DeleteSession removes every record of a session, best effort: a
	// record that fails to delete is logged and skipped, not fatal.
	DeleteSession(ctx context.Context, sessionID string) (*SessionCleanup, error)

	// Close releases the service and its store handle.
	Close() error
}

type service struct {
	store  docstore.Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string

	opsCounter metric.Int64Counter

	mu     sync.Mutex
	closed bool
}

// NewService creates the embedding record service over an injected store
// handle. The store owns connection lifecycle; the service owns semantics.
func NewService(store docstore.Store, logger *zap.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	meter := otel.Meter("chat-embedding-db.embedding")
	opsCounter, err := meter.Int64Counter("embedding.operations",
		metric.WithDescription("Total embedding service operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating operations counter: %w", err)
	}

	return &service{
		store:      store,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      func() string { return uuid.New().String() },
		opsCounter: opsCounter,
	}, nil
}

func (s *service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.store.Close()
}

func (s *service) isClosed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("service is closed")
	}
	return nil
}

func (s *service) countOp(ctx context.Context, op string) {
	s.opsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (s *service) Create(ctx context.Context, req *schema.CreateRequest) (*schema.EmbeddingRecord, error) {
	ctx, span := tracer.Start(ctx, "EmbeddingService.Create")
	defer span.End()
	s.countOp(ctx, "create")

	if err := s.isClosed(); err != nil {
		return nil, err
	}

	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	record := s.buildRecord(req, s.newID(), s.now())
	if _, err := s.store.InsertOne(ctx, recordToDocument(record)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, NewPersistenceError("create", err)
	}

	s.logger.Info("created embedding record",
		zap.String("id", record.ID),
		zap.String("user_id", record.UserID),
		zap.String("session_id", record.SessionID),
	)
	span.SetAttributes(attribute.String("record_id", record.ID))
	span.SetStatus(codes.Ok, "created")
	return record, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*schema.EmbeddingRecord, error) {
	ctx, span := tracer.Start(ctx, "EmbeddingService.GetByID")
	defer span.End()
	span.SetAttributes(attribute.String("record_id", id))
	s.countOp(ctx, "get_by_id")

	if err := s.isClosed(); err != nil {
		return nil, err
	}

	doc, err := s.store.FindOne(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, NewPersistenceError("get", err)
	}
	if doc == nil {
		span.SetStatus(codes.Error, "not found")
		return nil, NewNotFoundError(id)
	}

	span.SetStatus(codes.Ok, "found")
	return documentToRecord(doc), nil
}

func (s *service) Replace(ctx context.Context, id string, req *schema.ReplaceRequest) (*schema.EmbeddingRecord, error) {
	ctx, span := tracer.Start(ctx, "EmbeddingService.Replace")
	defer span.End()
	span.SetAttributes(attribute.String("record_id", id))
	s.countOp(ctx, "replace")

	if err := s.isClosed(); err != nil {
		return nil, err
	}

	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	existing, err := s.store.FindOne(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, NewPersistenceError("replace", err)
	}
	if existing == nil {
		span.SetStatus(codes.Error, "not found")
		return nil, NewNotFoundError(id)
	}

	previous := documentToRecord(existing)
	record := s.buildRecord(&req.CreateRequest, id, s.now())
	record.CreatedAt = previous.CreatedAt
	if req.Timestamp != nil {
		record.Timestamp = req.Timestamp.UTC()
	} else {
		record.Timestamp = previous.Timestamp
	}

	matched, err := s.store.ReplaceOne(ctx, id, recordToDocument(record))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, NewPersistenceError("replace", err)
	}
	if matched == 0 {
		span.SetStatus(codes.Error, "not found")
		return nil, NewNotFoundError(id)
	}

	s.logger.Info("replaced embedding record", zap.String("id", id))
	span.SetStatus(codes.Ok, "replaced")
	return record, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "EmbeddingService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("record_id", id))
	s.countOp(ctx, "delete")

	if err := s.isClosed(); err != nil {
		return err
	}

	deleted, err := s.store.DeleteOne(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return NewPersistenceError("delete", err)
	}
	if deleted == 0 {
		span.SetStatus(codes.Error, "not found")
		return NewNotFoundError(id)
	}

	s.logger.Info("deleted embedding record", zap.String("id", id))
	span.SetStatus(codes.Ok, "deleted")
	return nil
}

func (s *service) CreateBatch(ctx context.Context, items []*schema.CreateRequest) (*BatchResult, error) {
	ctx, span := tracer.Start(ctx, "EmbeddingService.CreateBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("item_count", len(items)))
	s.countOp(ctx, "create_batch")

	if err := s.isClosed(); err != nil {
		return nil, err
	}

	for _, item := range items {
		if item != nil {
			item.ApplyDefaults()
		}
	}
	if err := schema.ValidateBatch(items); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	now := s.now()
	docs := make([]*docstore.Document, len(items))
	for i, item := range items {
		docs[i] = recordToDocument(s.buildRecord(item, s.newID(), now))
	}

	count, ids, err := s.store.InsertMany(ctx, docs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, NewPersistenceError("create_batch", err)
	}

	s.logger.Info("created embedding batch", zap.Int64("count", count))
	span.SetStatus(codes.Ok, "created")
	return &BatchResult{InsertedCount: count, IDs: ids}, nil
}

func (s *service) FindSimilar(ctx context.Context, query *schema.SimilarityQuery) (*SearchResult, error) {
	ctx, span := tracer.Start(ctx, "EmbeddingService.FindSimilar")
	defer span.End()
	s.countOp(ctx, "find_similar")

	if err := s.isClosed(); err != nil {
		return nil, err
	}

	query.ApplyDefaults()
	if err := query.Validate(); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	scored, err := s.store.SearchVector(ctx, query.QueryVector, buildSearchFilter(query.Filters), query.Limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, NewPersistenceError("find_similar", err)
	}

	result := &SearchResult{
		Count:   len(scored),
		Results: make([]*ScoredRecord, len(scored)),
	}
	for i, sd := range scored {
		result.Results[i] = &ScoredRecord{
			Record:          documentToRecord(&sd.Document),
			SimilarityScore: sd.Score,
		}
	}
	if len(scored) > 0 {
		// Results arrive ranked by non-increasing score.
		result.MaxSimilarityScore = scored[0].Score
		result.MinSimilarityScore = scored[len(scored)-1].Score
	}

	span.SetAttributes(attribute.Int("result_count", result.Count))
	span.SetStatus(codes.Ok, "success")
	return result, nil
}

func (s *service) Query(ctx context.Context, query *schema.ListQuery) (*Page, error) {
	ctx, span := tracer.Start(ctx, "EmbeddingService.Query")
	defer span.End()
	s.countOp(ctx, "query")

	if err := s.isClosed(); err != nil {
		return nil, err
	}

	query.ApplyDefaults()
	if err := query.Validate(); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	filter := buildListFilter(query)

	total, err := s.store.Count(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, NewPersistenceError("query", err)
	}

	docs, err := s.store.Find(ctx, filter, docstore.FindOptions{
		Sort: &docstore.Sort{
			Field:      sortFieldName(query.SortBy),
			Descending: query.SortOrder == schema.SortDesc,
		},
		Skip:  query.Offset,
		Limit: query.Limit,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, NewPersistenceError("query", err)
	}

	records := make([]*schema.EmbeddingRecord, len(docs))
	for i, doc := range docs {
		records[i] = documentToRecord(doc)
	}

	page := &Page{
		Records:    records,
		Pagination: buildPagination(total, query.Limit, query.Offset),
	}
	span.SetAttributes(attribute.Int("result_count", len(records)), attribute.Int64("total", total))
	span.SetStatus(codes.Ok, "success")
	return page, nil
}

// buildPagination derives page metadata from the unpaginated match count.
func buildPagination(total int64, limit, offset int) Pagination {
	return Pagination{
		Total:       total,
		Limit:       limit,
		Offset:      offset,
		CurrentPage: offset/limit + 1,
		TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
		HasNext:     int64(offset+limit) < total,
		HasPrevious: offset > 0,
	}
}

func (s *service) Stats(ctx context.Context) (*Statistics, error) {
	ctx, span := tracer.Start(ctx, "EmbeddingService.Stats")
	defer span.End()
	s.countOp(ctx, "stats")

	if err := s.isClosed(); err != nil {
		return nil, err
	}

	total, err := s.store.Count(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, NewPersistenceError("stats", err)
	}

	cutoff := unixSeconds(s.now().Add(-statsRecentWindow))
	recent, err := s.store.Count(ctx, docstore.NewFilter(docstore.Condition{
		Field: fieldTimestampUnix,
		Range: &docstore.Range{Gte: docstore.Ptr(cutoff)},
	}))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, NewPersistenceError("stats", err)
	}

	byType := make(map[string]int64, len(schema.MessageTypes()))
	for _, mt := range schema.MessageTypes() {
		count, err := s.store.Count(ctx, docstore.NewFilter(docstore.Condition{
			Field: fieldMessageType,
			Match: string(mt),
		}))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, NewPersistenceError("stats", err)
		}
		byType[string(mt)] = count
	}

	agg, err := s.store.Aggregate(ctx, fieldProcessingTimeMS, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, NewPersistenceError("stats", err)
	}

	span.SetAttributes(attribute.Int64("total", total))
	span.SetStatus(codes.Ok, "success")
	return &Statistics{
		TotalEmbeddings:  total,
		RecentEmbeddings: recent,
		ByMessageType:    byType,
		ProcessingTimeMS: ProcessingTimeStats{Min: agg.Min, Avg: agg.Avg, Max: agg.Max},
	}, nil
}

func (s *service) DeleteSession(ctx context.Context, sessionID string) (*SessionCleanup, error) {
	ctx, span := tracer.Start(ctx, "EmbeddingService.DeleteSession")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", sessionID))
	s.countOp(ctx, "delete_session")

	if err := s.isClosed(); err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, schema.NewValidationError("session_id is required")
	}

	filter := docstore.NewFilter(docstore.Condition{Field: fieldSessionID, Match: sessionID})
	docs, err := s.store.Find(ctx, filter, docstore.FindOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, NewPersistenceError("delete_session", err)
	}

	cleanup := &SessionCleanup{SessionID: sessionID, Found: int64(len(docs))}
	for _, doc := range docs {
		deleted, err := s.store.DeleteOne(ctx, doc.ID)
		if err != nil {
			// Best effort: keep going, report what was removed.
			s.logger.Warn("failed to delete session record",
				zap.String("session_id", sessionID),
				zap.String("id", doc.ID),
				zap.Error(err),
			)
			continue
		}
		cleanup.Deleted += deleted
	}

	s.logger.Info("session cleanup complete",
		zap.String("session_id", sessionID),
		zap.Int64("found", cleanup.Found),
		zap.Int64("deleted", cleanup.Deleted),
	)
	span.SetStatus(codes.Ok, "success")
	return cleanup, nil
}

// buildRecord shapes a validated request into a persisted record. The event
// timestamp defaults to now; Replace overrides it afterwards.
func (s *service) buildRecord(req *schema.CreateRequest, id string, now time.Time) *schema.EmbeddingRecord {
	return &schema.EmbeddingRecord{
		ID:                   id,
		UserID:               req.UserID,
		EntryID:              req.EntryID,
		SessionID:            req.SessionID,
		MessageContent:       req.MessageContent,
		MessageType:          req.MessageType,
		ConversationContext:  req.ConversationContext,
		Timestamp:            now,
		CreatedAt:            now,
		UpdatedAt:            now,
		PrimaryEmbedding:     req.PrimaryEmbedding,
		LightweightEmbedding: req.LightweightEmbedding,
		FeatureVector:        req.FeatureVector,
		TemporalFeatures:     req.TemporalFeatures,
		EmotionalFeatures:    req.EmotionalFeatures,
		SemanticFeatures:     req.SemanticFeatures,
		UserFeatures:         req.UserFeatures,
		FeatureCompleteness:  req.FeatureCompleteness,
		ConfidenceScore:      req.ConfidenceScore,
		TextLength:           req.TextLength,
		ProcessingTimeMS:     req.ProcessingTimeMS,
		ModelVersion:         req.ModelVersion,
		SemanticTags:         req.SemanticTags,
		EmotionContext:       req.EmotionContext,
		EntitiesMentioned:    req.EntitiesMentioned,
		TemporalContext:      req.TemporalContext,
	}
}
