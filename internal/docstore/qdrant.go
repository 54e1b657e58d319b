package docstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Tracer for OpenTelemetry instrumentation.
var tracer = otel.Tracer("chat-embedding-db.docstore.qdrant")

// PayloadIndexType selects the Qdrant payload index kind for a field.
type PayloadIndexType int

const (
	IndexKeyword PayloadIndexType = iota
	IndexFloat
	IndexInteger
	IndexBool
)

// QdrantConfig holds configuration for the Qdrant gRPC backend.
type QdrantConfig struct {
	// Host is the Qdrant server hostname or IP address.
	// Default: "localhost"
	Host string

	// Port is the Qdrant gRPC port (6334), not the HTTP REST port (6333).
	Port int

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// APIKey is the optional API key. Leave empty for local development.
	APIKey string

	// Collection is the backing collection, provisioned on first use.
	// Default: "chat_embeddings"
	Collection string

	// MaxMessageSize is the maximum gRPC message size in bytes.
	// Default: 50MB (a full record carries 1100+ vector components)
	MaxMessageSize int

	// RequestTimeout bounds each individual store request.
	// Default: 30 seconds
	RequestTimeout time.Duration

	// PayloadIndexes are provisioned alongside the collection so filtered
	// and ordered queries work against the payload fields named here.
	PayloadIndexes map[string]PayloadIndexType
}

// ApplyDefaults sets default values for unset fields.
func (c *QdrantConfig) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.Collection == "" {
		c.Collection = "chat_embeddings"
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 50 * 1024 * 1024
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
}

// Validate validates the configuration.
func (c QdrantConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalidConfig, c.Port)
	}
	if c.Collection == "" {
		return fmt.Errorf("%w: collection required", ErrInvalidConfig)
	}
	return nil
}

// QdrantStore is a Store backed by Qdrant's native gRPC client.
//
// The connection is established lazily and memoized: the first operation
// connects, health-checks, and provisions the backing collection (named
// vectors for the primary and lightweight embeddings, cosine distance,
// payload indexes); every subsequent operation reuses the handle. A failed
// connect is memoized too and reported by every later operation -
// connection failures are fatal for this layer and never retried.
type QdrantStore struct {
	config QdrantConfig
	logger *zap.Logger

	connectOnce sync.Once
	client      *qdrant.Client
	connErr     error
}

// NewQdrantStore creates a QdrantStore. No connection is made here; the
// first operation triggers connect-and-provision.
func NewQdrantStore(config QdrantConfig, logger *zap.Logger) (*QdrantStore, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QdrantStore{config: config, logger: logger}, nil
}

// ensureReady returns the memoized client handle, connecting and
// provisioning the collection on first call.
func (s *QdrantStore) ensureReady(ctx context.Context) (*qdrant.Client, error) {
	s.connectOnce.Do(func() {
		s.connErr = s.connect(ctx)
	})
	if s.connErr != nil {
		return nil, s.connErr
	}
	return s.client, nil
}

func (s *QdrantStore) connect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "QdrantStore.Connect")
	defer span.End()

	qdrantConfig := &qdrant.Config{
		Host:   s.config.Host,
		Port:   s.config.Port,
		UseTLS: s.config.UseTLS,
		APIKey: s.config.APIKey,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(s.config.MaxMessageSize),
				grpc.MaxCallSendMsgSize(s.config.MaxMessageSize),
			),
		},
	}
	if !s.config.UseTLS {
		qdrantConfig.GrpcOptions = append(qdrantConfig.GrpcOptions,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
	}

	client, err := qdrant.NewClient(qdrantConfig)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: health check: %v", ErrConnectionFailed, err)
	}

	if err := s.provision(ctx, client); err != nil {
		_ = client.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.client = client
	s.logger.Info("qdrant connection established",
		zap.String("host", s.config.Host),
		zap.Int("port", s.config.Port),
		zap.String("collection", s.config.Collection),
	)
	span.SetStatus(codes.Ok, "connected")
	return nil
}

// provision creates the backing collection and its payload indexes when
// they do not exist yet.
func (s *QdrantStore) provision(ctx context.Context, client *qdrant.Client) error {
	exists, err := client.CollectionExists(ctx, s.config.Collection)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", s.config.Collection, err)
	}
	if exists {
		return nil
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.config.Collection,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			PrimaryVectorName: {
				Size:     768,
				Distance: qdrant.Distance_Cosine,
			},
			LightweightVectorName: {
				Size:     384,
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", s.config.Collection, err)
	}

	for field, kind := range s.config.PayloadIndexes {
		fieldType := qdrant.FieldType_FieldTypeKeyword
		switch kind {
		case IndexFloat:
			fieldType = qdrant.FieldType_FieldTypeFloat
		case IndexInteger:
			fieldType = qdrant.FieldType_FieldTypeInteger
		case IndexBool:
			fieldType = qdrant.FieldType_FieldTypeBool
		}
		_, err := client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.config.Collection,
			FieldName:      field,
			FieldType:      &fieldType,
		})
		if err != nil {
			return fmt.Errorf("indexing payload field %s: %w", field, err)
		}
	}

	s.logger.Info("provisioned qdrant collection",
		zap.String("collection", s.config.Collection),
		zap.Int("payload_indexes", len(s.config.PayloadIndexes)),
	)
	return nil
}

// Close closes the memoized gRPC connection, if one was established.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// InsertOne persists a single document.
func (s *QdrantStore) InsertOne(ctx context.Context, doc *Document) (string, error) {
	_, ids, err := s.InsertMany(ctx, []*Document{doc})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// InsertMany persists documents in one bulk upsert.
func (s *QdrantStore) InsertMany(ctx context.Context, docs []*Document) (int64, []string, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "QdrantStore.InsertMany")
	defer span.End()
	span.SetAttributes(attribute.Int("document_count", len(docs)))

	var err error
	defer func() { observeOperation("insert_many", start, err) }()

	if len(docs) == 0 {
		err = ErrEmptyDocuments
		return 0, nil, err
	}

	client, err := s.ensureReady(ctx)
	if err != nil {
		return 0, nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	points := make([]*qdrant.PointStruct, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		points[i] = toQdrantPoint(doc)
	}

	_, err = client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.config.Collection,
		Points:         points,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		err = fmt.Errorf("upserting %d points: %w", len(points), err)
		return 0, nil, err
	}

	span.SetStatus(codes.Ok, "success")
	return int64(len(ids)), ids, nil
}

// FindOne returns the document with the given id, or nil when absent.
func (s *QdrantStore) FindOne(ctx context.Context, id string) (*Document, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "QdrantStore.FindOne")
	defer span.End()
	span.SetAttributes(attribute.String("id", id))

	var err error
	defer func() { observeOperation("find_one", start, err) }()

	client, err := s.ensureReady(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	points, err := client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.config.Collection,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		err = fmt.Errorf("getting point %s: %w", id, err)
		return nil, err
	}
	if len(points) == 0 {
		span.SetStatus(codes.Ok, "not found")
		return nil, nil
	}

	span.SetStatus(codes.Ok, "success")
	return fromRetrievedPoint(points[0]), nil
}

// ReplaceOne substitutes the stored document when it exists.
func (s *QdrantStore) ReplaceOne(ctx context.Context, id string, doc *Document) (int64, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "QdrantStore.ReplaceOne")
	defer span.End()
	span.SetAttributes(attribute.String("id", id))

	var err error
	defer func() { observeOperation("replace_one", start, err) }()

	existing, err := s.FindOne(ctx, id)
	if err != nil {
		return 0, err
	}
	if existing == nil {
		span.SetStatus(codes.Ok, "no match")
		return 0, nil
	}

	client, err := s.ensureReady(ctx)
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	// Upsert on the same point id replaces vectors and payload wholesale.
	_, err = client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.config.Collection,
		Points:         []*qdrant.PointStruct{toQdrantPoint(doc)},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		err = fmt.Errorf("replacing point %s: %w", id, err)
		return 0, err
	}

	span.SetStatus(codes.Ok, "success")
	return 1, nil
}

// DeleteOne removes the document with the given id.
func (s *QdrantStore) DeleteOne(ctx context.Context, id string) (int64, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "QdrantStore.DeleteOne")
	defer span.End()
	span.SetAttributes(attribute.String("id", id))

	var err error
	defer func() { observeOperation("delete_one", start, err) }()

	existing, err := s.FindOne(ctx, id)
	if err != nil {
		return 0, err
	}
	if existing == nil {
		span.SetStatus(codes.Ok, "no match")
		return 0, nil
	}

	client, err := s.ensureReady(ctx)
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	_, err = client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.config.Collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{
					Ids: []*qdrant.PointId{qdrant.NewIDUUID(id)},
				},
			},
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		err = fmt.Errorf("deleting point %s: %w", id, err)
		return 0, err
	}

	span.SetStatus(codes.Ok, "success")
	return 1, nil
}

// Find returns documents matching filter. Sorted finds issue one scroll of
// skip+limit and slice locally, because Qdrant disallows offsets combined
// with order_by; unsorted finds page through the collection.
func (s *QdrantStore) Find(ctx context.Context, filter *Filter, opts FindOptions) ([]*Document, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "QdrantStore.Find")
	defer span.End()
	span.SetAttributes(
		attribute.Int("skip", opts.Skip),
		attribute.Int("limit", opts.Limit),
	)

	var err error
	defer func() { observeOperation("find", start, err) }()

	client, err := s.ensureReady(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	qdrantFilter := toQdrantFilter(filter)

	var docs []*Document
	if opts.Sort != nil {
		docs, err = s.findOrdered(ctx, client, qdrantFilter, opts)
	} else {
		docs, err = s.findUnordered(ctx, client, qdrantFilter, opts)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("result_count", len(docs)))
	span.SetStatus(codes.Ok, "success")
	return docs, nil
}

func (s *QdrantStore) findOrdered(ctx context.Context, client *qdrant.Client, filter *qdrant.Filter, opts FindOptions) ([]*Document, error) {
	direction := qdrant.Direction_Asc
	if opts.Sort.Descending {
		direction = qdrant.Direction_Desc
	}
	fetch := opts.Skip + opts.Limit
	if opts.Limit <= 0 {
		return nil, fmt.Errorf("ordered find requires a positive limit")
	}

	points, err := client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.config.Collection,
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint32(fetch)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
		OrderBy: &qdrant.OrderBy{
			Key:       opts.Sort.Field,
			Direction: &direction,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scrolling ordered by %s: %w", opts.Sort.Field, err)
	}

	if opts.Skip >= len(points) {
		return []*Document{}, nil
	}
	points = points[opts.Skip:]

	docs := make([]*Document, len(points))
	for i, p := range points {
		docs[i] = fromRetrievedPoint(p)
	}
	return docs, nil
}

const scrollPageSize = 256

func (s *QdrantStore) findUnordered(ctx context.Context, client *qdrant.Client, filter *qdrant.Filter, opts FindOptions) ([]*Document, error) {
	var docs []*Document
	var offset *qdrant.PointId
	remaining := opts.Skip + opts.Limit

	for {
		page := uint32(scrollPageSize)
		if opts.Limit > 0 && remaining < scrollPageSize {
			page = uint32(remaining)
		}

		resp, err := client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.config.Collection,
			Filter:         filter,
			Limit:          qdrant.PtrOf(page),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
		if err != nil {
			return nil, fmt.Errorf("scrolling collection: %w", err)
		}

		for _, p := range resp.GetResult() {
			docs = append(docs, fromRetrievedPoint(p))
		}

		offset = resp.GetNextPageOffset()
		if offset == nil {
			break
		}
		if opts.Limit > 0 {
			remaining -= len(resp.GetResult())
			if remaining <= 0 {
				break
			}
		}
	}

	if opts.Skip > 0 {
		if opts.Skip >= len(docs) {
			return []*Document{}, nil
		}
		docs = docs[opts.Skip:]
	}
	if opts.Limit > 0 && len(docs) > opts.Limit {
		docs = docs[:opts.Limit]
	}
	return docs, nil
}

// Count returns the number of documents matching filter.
func (s *QdrantStore) Count(ctx context.Context, filter *Filter) (int64, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "QdrantStore.Count")
	defer span.End()

	var err error
	defer func() { observeOperation("count", start, err) }()

	client, err := s.ensureReady(ctx)
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	count, err := client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.config.Collection,
		Filter:         toQdrantFilter(filter),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		err = fmt.Errorf("counting points: %w", err)
		return 0, err
	}

	span.SetAttributes(attribute.Int64("count", int64(count)))
	span.SetStatus(codes.Ok, "success")
	return int64(count), nil
}

// SearchVector delegates ranking to Qdrant using the query vector against
// the primary named vector.
func (s *QdrantStore) SearchVector(ctx context.Context, vector []float32, filter *Filter, limit int) ([]*ScoredDocument, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "QdrantStore.SearchVector")
	defer span.End()
	span.SetAttributes(attribute.Int("limit", limit))

	var err error
	defer func() { observeOperation("search_vector", start, err) }()

	if limit <= 0 {
		err = fmt.Errorf("limit must be positive, got %d", limit)
		return nil, err
	}

	client, err := s.ensureReady(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	results, err := client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.config.Collection,
		Query:          qdrant.NewQuery(vector...),
		Using:          qdrant.PtrOf(PrimaryVectorName),
		Filter:         toQdrantFilter(filter),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		err = fmt.Errorf("querying by vector: %w", err)
		return nil, err
	}

	scored := make([]*ScoredDocument, len(results))
	for i, p := range results {
		scored[i] = &ScoredDocument{
			Document: Document{
				ID:      extractPointID(p.Id),
				Vectors: fromVectorsOutput(p.Vectors),
				Payload: fromQdrantPayload(p.Payload),
			},
			Score: p.Score,
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(scored)))
	span.SetStatus(codes.Ok, "success")
	return scored, nil
}

// Aggregate pages through matching payloads computing min/avg/max of the
// field; Qdrant has no server-side numeric aggregation.
func (s *QdrantStore) Aggregate(ctx context.Context, field string, filter *Filter) (*FieldAggregate, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "QdrantStore.Aggregate")
	defer span.End()
	span.SetAttributes(attribute.String("field", field))

	var err error
	defer func() { observeOperation("aggregate", start, err) }()

	client, err := s.ensureReady(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	agg := &FieldAggregate{}
	var sum float64
	var offset *qdrant.PointId
	qdrantFilter := toQdrantFilter(filter)

	for {
		resp, scrollErr := client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.config.Collection,
			Filter:         qdrantFilter,
			Limit:          qdrant.PtrOf(uint32(scrollPageSize)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayloadInclude(field),
		})
		if scrollErr != nil {
			err = fmt.Errorf("scrolling for aggregate of %s: %w", field, scrollErr)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		for _, p := range resp.GetResult() {
			value, ok := asFloat(fromQdrantPayload(p.Payload)[field])
			if !ok {
				continue
			}
			if agg.Count == 0 || value < agg.Min {
				agg.Min = value
			}
			if agg.Count == 0 || value > agg.Max {
				agg.Max = value
			}
			sum += value
			agg.Count++
		}

		offset = resp.GetNextPageOffset()
		if offset == nil {
			break
		}
	}

	if agg.Count > 0 {
		agg.Avg = sum / float64(agg.Count)
	}

	span.SetAttributes(attribute.Int64("sample_count", agg.Count))
	span.SetStatus(codes.Ok, "success")
	return agg, nil
}

// Ensure QdrantStore implements Store.
var _ Store = (*QdrantStore)(nil)
