package docstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryStore is an embedded, in-process Store used for local development
// and tests. Vector search is an exact brute-force cosine scan over the
// primary vector; filters reuse the reference Matches semantics.
type MemoryStore struct {
	logger *zap.Logger

	mu   sync.RWMutex
	docs map[string]*Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		logger: logger,
		docs:   make(map[string]*Document),
	}
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// InsertOne persists a single document.
func (s *MemoryStore) InsertOne(ctx context.Context, doc *Document) (string, error) {
	_, ids, err := s.InsertMany(ctx, []*Document{doc})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// InsertMany persists documents in one operation.
func (s *MemoryStore) InsertMany(ctx context.Context, docs []*Document) (int64, []string, error) {
	start := time.Now()
	var err error
	defer func() { observeOperation("insert_many", start, err) }()

	if len(docs) == 0 {
		err = ErrEmptyDocuments
		return 0, nil, err
	}
	for i, doc := range docs {
		if doc == nil || doc.ID == "" {
			err = fmt.Errorf("document %d has no id", i)
			return 0, nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(docs))
	for i, doc := range docs {
		s.docs[doc.ID] = cloneDocument(doc)
		ids[i] = doc.ID
	}
	return int64(len(ids)), ids, nil
}

// FindOne returns the document with the given id, or nil when absent.
func (s *MemoryStore) FindOne(ctx context.Context, id string) (*Document, error) {
	start := time.Now()
	defer func() { observeOperation("find_one", start, nil) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	return cloneDocument(doc), nil
}

// ReplaceOne substitutes the stored document when it exists.
func (s *MemoryStore) ReplaceOne(ctx context.Context, id string, doc *Document) (int64, error) {
	start := time.Now()
	defer func() { observeOperation("replace_one", start, nil) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return 0, nil
	}
	replacement := cloneDocument(doc)
	replacement.ID = id
	s.docs[id] = replacement
	return 1, nil
}

// DeleteOne removes the document with the given id.
func (s *MemoryStore) DeleteOne(ctx context.Context, id string) (int64, error) {
	start := time.Now()
	defer func() { observeOperation("delete_one", start, nil) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return 0, nil
	}
	delete(s.docs, id)
	return 1, nil
}

// Find returns documents matching filter, sorted and paginated per opts.
func (s *MemoryStore) Find(ctx context.Context, filter *Filter, opts FindOptions) ([]*Document, error) {
	start := time.Now()
	defer func() { observeOperation("find", start, nil) }()

	s.mu.RLock()
	matched := s.matching(filter)
	s.mu.RUnlock()

	if opts.Sort != nil {
		sortDocuments(matched, *opts.Sort)
	} else {
		// Stable order for unsorted finds so pagination is deterministic.
		sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	}

	if opts.Skip > 0 {
		if opts.Skip >= len(matched) {
			return []*Document{}, nil
		}
		matched = matched[opts.Skip:]
	}
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

// Count returns the number of documents matching filter.
func (s *MemoryStore) Count(ctx context.Context, filter *Filter) (int64, error) {
	start := time.Now()
	defer func() { observeOperation("count", start, nil) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, doc := range s.docs {
		if filter.Matches(doc.Payload) {
			count++
		}
	}
	return count, nil
}

// SearchVector ranks matching documents by exact cosine similarity of their
// primary vector to the query vector.
func (s *MemoryStore) SearchVector(ctx context.Context, vector []float32, filter *Filter, limit int) ([]*ScoredDocument, error) {
	start := time.Now()
	var err error
	defer func() { observeOperation("search_vector", start, err) }()

	if limit <= 0 {
		err = fmt.Errorf("limit must be positive, got %d", limit)
		return nil, err
	}

	s.mu.RLock()
	matched := s.matching(filter)
	s.mu.RUnlock()

	scored := make([]*ScoredDocument, 0, len(matched))
	for _, doc := range matched {
		candidate := doc.Vectors[PrimaryVectorName]
		if len(candidate) != len(vector) {
			continue
		}
		scored = append(scored, &ScoredDocument{
			Document: *doc,
			Score:    cosineSimilarity(vector, candidate),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// Aggregate computes min/avg/max of a numeric payload field.
func (s *MemoryStore) Aggregate(ctx context.Context, field string, filter *Filter) (*FieldAggregate, error) {
	start := time.Now()
	defer func() { observeOperation("aggregate", start, nil) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	agg := &FieldAggregate{}
	var sum float64
	for _, doc := range s.docs {
		if !filter.Matches(doc.Payload) {
			continue
		}
		value, ok := asFloat(doc.Payload[field])
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
	if agg.Count > 0 {
		agg.Avg = sum / float64(agg.Count)
	}
	return agg, nil
}

// matching returns clones of all documents matching filter. Callers must
// hold at least a read lock.
func (s *MemoryStore) matching(filter *Filter) []*Document {
	matched := make([]*Document, 0)
	for _, doc := range s.docs {
		if filter.Matches(doc.Payload) {
			matched = append(matched, cloneDocument(doc))
		}
	}
	return matched
}

func sortDocuments(docs []*Document, by Sort) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, aok := asFloat(docs[i].Payload[by.Field])
		b, bok := asFloat(docs[j].Payload[by.Field])
		if aok && bok {
			if by.Descending {
				return a > b
			}
			return a < b
		}
		// Fall back to string comparison for non-numeric fields.
		as := fmt.Sprintf("%v", docs[i].Payload[by.Field])
		bs := fmt.Sprintf("%v", docs[j].Payload[by.Field])
		if by.Descending {
			return as > bs
		}
		return as < bs
	})
}

func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func cloneDocument(doc *Document) *Document {
	clone := &Document{ID: doc.ID}
	if doc.Vectors != nil {
		clone.Vectors = make(map[string][]float32, len(doc.Vectors))
		for name, vec := range doc.Vectors {
			copied := make([]float32, len(vec))
			copy(copied, vec)
			clone.Vectors[name] = copied
		}
	}
	if doc.Payload != nil {
		clone.Payload = clonePayload(doc.Payload)
	}
	return clone
}

func clonePayload(payload map[string]any) map[string]any {
	clone := make(map[string]any, len(payload))
	for key, value := range payload {
		switch v := value.(type) {
		case []string:
			copied := make([]string, len(v))
			copy(copied, v)
			clone[key] = copied
		case []float64:
			copied := make([]float64, len(v))
			copy(copied, v)
			clone[key] = copied
		case map[string]any:
			clone[key] = clonePayload(v)
		default:
			clone[key] = v
		}
	}
	return clone
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
