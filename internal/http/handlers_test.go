package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MyMindSpace/chat-embedding-db/internal/docstore"
	"github.com/MyMindSpace/chat-embedding-db/internal/embedding"
	"github.com/MyMindSpace/chat-embedding-db/internal/schema"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	service, err := embedding.NewService(docstore.NewMemoryStore(nil), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = service.Close() })

	server, err := NewServer(service, zap.NewNop(), nil)
	require.NoError(t, err)
	return server
}

func validCreateBody() map[string]any {
	return map[string]any{
		"user_id":               "user-1",
		"entry_id":              "entry-1",
		"session_id":            "session-1",
		"message_content":       "hello there",
		"message_type":          "user_message",
		"primary_embedding":     make([]float32, schema.PrimaryEmbeddingDim),
		"lightweight_embedding": make([]float32, schema.LightweightEmbeddingDim),
		"feature_vector":        make([]float64, schema.FeatureVectorDim),
		"temporal_features":     make([]float64, schema.TemporalFeaturesDim),
		"emotional_features":    make([]float64, schema.EmotionalFeaturesDim),
		"semantic_features":     make([]float64, schema.SemanticFeaturesDim),
		"user_features":         make([]float64, schema.UserFeaturesDim),
		"feature_completeness":  0.9,
		"confidence_score":      0.8,
		"text_length":           11,
		"processing_time_ms":    12.5,
		"model_version":         "v1.0.0",
	}
}

func doJSON(t *testing.T, server *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	return rec
}

func createRecord(t *testing.T, server *Server) schema.EmbeddingRecord {
	t.Helper()

	rec := doJSON(t, server, http.MethodPost, "/api/v1/embeddings", validCreateBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	var record schema.EmbeddingRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	return record
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestHandleCreate(t *testing.T) {
	server := newTestServer(t)

	record := createRecord(t, server)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "user-1", record.UserID)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestHandleCreate_ValidationError(t *testing.T) {
	server := newTestServer(t)

	body := validCreateBody()
	body["primary_embedding"] = make([]float32, 767)
	body["user_id"] = ""

	rec := doJSON(t, server, http.MethodPost, "/api/v1/embeddings", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation failed", resp.Error)
	assert.Len(t, resp.Violations, 2)
}

func TestHandleGet(t *testing.T) {
	server := newTestServer(t)
	record := createRecord(t, server)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/embeddings/"+record.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/embeddings/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleReplace(t *testing.T) {
	server := newTestServer(t)
	record := createRecord(t, server)

	body := validCreateBody()
	body["message_content"] = "updated content"
	rec := doJSON(t, server, http.MethodPut, "/api/v1/embeddings/"+record.ID, body)
	require.Equal(t, http.StatusOK, rec.Code)

	var replaced schema.EmbeddingRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replaced))
	assert.Equal(t, record.ID, replaced.ID)
	assert.Equal(t, "updated content", replaced.MessageContent)

	rec = doJSON(t, server, http.MethodPut, "/api/v1/embeddings/does-not-exist", validCreateBody())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDelete(t *testing.T) {
	server := newTestServer(t)
	record := createRecord(t, server)

	rec := doJSON(t, server, http.MethodDelete, "/api/v1/embeddings/"+record.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, server, http.MethodDelete, "/api/v1/embeddings/"+record.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCreateBatch(t *testing.T) {
	server := newTestServer(t)

	items := []map[string]any{validCreateBody(), validCreateBody(), validCreateBody()}
	rec := doJSON(t, server, http.MethodPost, "/api/v1/embeddings/batch", map[string]any{"items": items})
	require.Equal(t, http.StatusCreated, rec.Code)

	var result embedding.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, int64(3), result.InsertedCount)
	assert.Len(t, result.IDs, 3)
}

func TestHandleCreateBatch_EmptyRejected(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/embeddings/batch", map[string]any{"items": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSearch(t *testing.T) {
	server := newTestServer(t)
	createRecord(t, server)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/embeddings/search", map[string]any{
		"query_vector": make([]float32, schema.PrimaryEmbeddingDim),
		"limit":        5,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result embedding.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.LessOrEqual(t, result.Count, 5)
	assert.GreaterOrEqual(t, result.MaxSimilarityScore, result.MinSimilarityScore)
}

func TestHandleSearch_BadVector(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/embeddings/search", map[string]any{
		"query_vector": make([]float32, 10),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQuery(t *testing.T) {
	server := newTestServer(t)
	for i := 0; i < 3; i++ {
		createRecord(t, server)
	}

	rec := doJSON(t, server, http.MethodGet, "/api/v1/embeddings?user_id=user-1&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page embedding.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Records, 2)
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.True(t, page.Pagination.HasNext)
}

func TestHandleQuery_BadParams(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/embeddings?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/embeddings?start_date=not-a-date", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStats(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/embeddings/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats embedding.Statistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Zero(t, stats.TotalEmbeddings)
}

func TestHandleDeleteSession(t *testing.T) {
	server := newTestServer(t)
	for i := 0; i < 2; i++ {
		createRecord(t, server)
	}

	rec := doJSON(t, server, http.MethodDelete, "/api/v1/sessions/session-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cleanup embedding.SessionCleanup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cleanup))
	assert.Equal(t, int64(2), cleanup.Found)
	assert.Equal(t, int64(2), cleanup.Deleted)
}

func TestRouteConflicts(t *testing.T) {
	// /embeddings/stats must not be captured by /embeddings/:id.
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/embeddings/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	record := createRecord(t, server)
	rec = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/v1/embeddings/%s", record.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
