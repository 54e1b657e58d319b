// Package docstore abstracts the vector-capable document store behind a
// minimal CRUD + vector-ranked-find + aggregate contract. Two backends are
// provided: a Qdrant gRPC client and an embedded in-memory store.
package docstore

import (
	"context"
	"errors"
)

// Named vector slots on every stored document.
const (
	PrimaryVectorName     = "primary"
	LightweightVectorName = "lightweight"
)

// Sentinel errors for store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates the backing store could not be reached.
	// Connection failures are fatal and are not retried by this layer.
	ErrConnectionFailed = errors.New("failed to connect to document store")

	// ErrEmptyDocuments indicates an insert with no documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")
)

// Document is a schema-agnostic stored document: named vectors plus a flat
// payload of filterable values (string, int64, float64, bool, []string,
// []float64, or a nested map[string]any of the same).
type Document struct {
	ID      string
	Vectors map[string][]float32
	Payload map[string]any
}

// ScoredDocument annotates a document with the store-computed similarity
// score (higher = more similar).
type ScoredDocument struct {
	Document
	Score float32
}

// Sort is a single-key sort on a payload field.
type Sort struct {
	Field      string
	Descending bool
}

// FindOptions controls pagination and ordering of Find. A zero Limit means
// no limit.
type FindOptions struct {
	Sort  *Sort
	Skip  int
	Limit int
}

// FieldAggregate summarizes a numeric payload field across the documents
// matching a filter. Min, Avg, and Max are zero when Count is zero.
type FieldAggregate struct {
	Count int64
	Min   float64
	Avg   float64
	Max   float64
}

// Store is the document-store gateway contract. Implementations establish
// their connection lazily and memoize the handle: the first operation
// triggers connect-and-provision of the backing collection, and subsequent
// operations reuse it. This layer performs no retries; callers apply their
// own timeout and cancellation policy via ctx.
type Store interface {
	// InsertOne persists a single document and returns its id.
	InsertOne(ctx context.Context, doc *Document) (string, error)

	// InsertMany persists documents in one bulk operation and returns the
	// inserted count and ids. A partial failure is reported as an error;
	// there is no partial-success contract at this layer.
	InsertMany(ctx context.Context, docs []*Document) (int64, []string, error)

	// FindOne returns the document with the given id, or nil when absent.
	FindOne(ctx context.Context, id string) (*Document, error)

	// ReplaceOne atomically substitutes the document with the given id and
	// returns the matched count (0 when no document has that id, in which
	// case nothing is written).
	ReplaceOne(ctx context.Context, id string, doc *Document) (int64, error)

	// DeleteOne removes the document with the given id and returns the
	// deleted count (0 when absent). Hard delete, no tombstone.
	DeleteOne(ctx context.Context, id string) (int64, error)

	// Find returns the documents matching filter, honoring opts. A nil
	// filter matches everything.
	Find(ctx context.Context, filter *Filter, opts FindOptions) ([]*Document, error)

	// Count returns the number of documents matching filter, ignoring any
	// pagination.
	Count(ctx context.Context, filter *Filter) (int64, error)

	// SearchVector returns up to limit documents matching filter, ranked by
	// descending similarity of their primary vector to the query vector.
	// Ranking and tie-breaking are the store's responsibility.
	SearchVector(ctx context.Context, vector []float32, filter *Filter, limit int) ([]*ScoredDocument, error)

	// Aggregate computes min/avg/max of a numeric payload field across the
	// documents matching filter.
	Aggregate(ctx context.Context, field string, filter *Filter) (*FieldAggregate, error)

	// Close releases the connection handle.
	Close() error
}
