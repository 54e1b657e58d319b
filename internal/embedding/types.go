package embedding

import (
	"github.com/MyMindSpace/chat-embedding-db/internal/schema"
)

// BatchResult summarizes a bulk create: how many records were inserted and
// their newly assigned identifiers, in input order.
type BatchResult struct {
	InsertedCount int64    `json:"inserted_count"`
	IDs           []string `json:"ids"`
}

// ScoredRecord pairs a record with its similarity score from the store.
type ScoredRecord struct {
	Record          *schema.EmbeddingRecord `json:"record"`
	SimilarityScore float32                 `json:"similarity_score"`
}

// SearchResult bundles a similarity search response. Max and Min scores are
// both zero when Results is empty.
type SearchResult struct {
	Count              int             `json:"count"`
	MaxSimilarityScore float32         `json:"max_similarity_score"`
	MinSimilarityScore float32         `json:"min_similarity_score"`
	Results            []*ScoredRecord `json:"results"`
}

// Pagination is the metadata of a paginated list response.
type Pagination struct {
	Total       int64 `json:"total"`
	Limit       int   `json:"limit"`
	Offset      int   `json:"offset"`
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// Page is a paginated list of records.
type Page struct {
	Records    []*schema.EmbeddingRecord `json:"records"`
	Pagination Pagination                `json:"pagination"`
}

// ProcessingTimeStats aggregates processing_time_ms across the collection.
// All fields are zero when the collection is empty.
type ProcessingTimeStats struct {
	Min float64 `json:"min"`
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
}

// Statistics is the whole-collection summary.
type Statistics struct {
	TotalEmbeddings  int64               `json:"total_embeddings"`
	RecentEmbeddings int64               `json:"recent_embeddings"`
	ByMessageType    map[string]int64    `json:"by_message_type"`
	ProcessingTimeMS ProcessingTimeStats `json:"processing_time_ms"`
}

// SessionCleanup reports a best-effort session deletion: how many records
// the session held and how many were removed.
type SessionCleanup struct {
	SessionID string `json:"session_id"`
	Found     int64  `json:"found"`
	Deleted   int64  `json:"deleted"`
}
