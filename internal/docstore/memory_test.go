package docstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc(id string, payload map[string]any, primary []float32) *Document {
	return &Document{
		ID:      id,
		Vectors: map[string][]float32{PrimaryVectorName: primary},
		Payload: payload,
	}
}

func TestMemoryStore_InsertAndFindOne(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	doc := testDoc("doc-1", map[string]any{"user_id": "u1"}, []float32{1, 0})
	id, err := store.InsertOne(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)

	found, err := store.FindOne(ctx, "doc-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "u1", found.Payload["user_id"])

	missing, err := store.FindOne(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryStore_InsertMany(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	docs := []*Document{
		testDoc("a", map[string]any{}, nil),
		testDoc("b", map[string]any{}, nil),
	}
	count, ids, err := store.InsertMany(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, []string{"a", "b"}, ids)

	_, _, err = store.InsertMany(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptyDocuments)
}

func TestMemoryStore_ReplaceOne(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	_, err := store.InsertOne(ctx, testDoc("doc-1", map[string]any{"v": int64(1)}, nil))
	require.NoError(t, err)

	matched, err := store.ReplaceOne(ctx, "doc-1", testDoc("doc-1", map[string]any{"v": int64(2)}, nil))
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)

	found, _ := store.FindOne(ctx, "doc-1")
	assert.Equal(t, int64(2), found.Payload["v"])

	matched, err = store.ReplaceOne(ctx, "missing", testDoc("missing", map[string]any{}, nil))
	require.NoError(t, err)
	assert.Equal(t, int64(0), matched)
}

func TestMemoryStore_DeleteOne(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	_, err := store.InsertOne(ctx, testDoc("doc-1", map[string]any{}, nil))
	require.NoError(t, err)

	deleted, err := store.DeleteOne(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = store.DeleteOne(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestMemoryStore_Find_SortSkipLimit(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.InsertOne(ctx, testDoc(
			fmt.Sprintf("doc-%d", i),
			map[string]any{"user_id": "u1", "ts": float64(i)},
			nil,
		))
		require.NoError(t, err)
	}

	docs, err := store.Find(ctx, nil, FindOptions{
		Sort:  &Sort{Field: "ts", Descending: true},
		Skip:  1,
		Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, 3.0, docs[0].Payload["ts"])
	assert.Equal(t, 2.0, docs[1].Payload["ts"])

	docs, err = store.Find(ctx, nil, FindOptions{Skip: 10, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, docs)

	filtered, err := store.Find(ctx, NewFilter(Condition{Field: "user_id", Match: "u2"}), FindOptions{})
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestMemoryStore_Count(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.InsertOne(ctx, testDoc(
			fmt.Sprintf("doc-%d", i),
			map[string]any{"even": i%2 == 0},
			nil,
		))
		require.NoError(t, err)
	}

	total, err := store.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	even, err := store.Count(ctx, NewFilter(Condition{Field: "even", Match: true}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), even)
}

func TestMemoryStore_SearchVector(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	vectors := map[string][]float32{
		"exact":      {1, 0, 0},
		"close":      {0.9, 0.1, 0},
		"orthogonal": {0, 1, 0},
	}
	for id, vec := range vectors {
		_, err := store.InsertOne(ctx, testDoc(id, map[string]any{}, vec))
		require.NoError(t, err)
	}

	results, err := store.SearchVector(ctx, []float32{1, 0, 0}, nil, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "exact", results[0].ID)
	assert.Equal(t, "close", results[1].ID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-6)

	_, err = store.SearchVector(ctx, []float32{1, 0, 0}, nil, 0)
	assert.Error(t, err)
}

func TestMemoryStore_Aggregate(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	agg, err := store.Aggregate(ctx, "ms", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), agg.Count)
	assert.Equal(t, 0.0, agg.Min)
	assert.Equal(t, 0.0, agg.Avg)
	assert.Equal(t, 0.0, agg.Max)

	for i, ms := range []float64{10, 20, 60} {
		_, err := store.InsertOne(ctx, testDoc(
			fmt.Sprintf("doc-%d", i),
			map[string]any{"ms": ms},
			nil,
		))
		require.NoError(t, err)
	}

	agg, err = store.Aggregate(ctx, "ms", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), agg.Count)
	assert.Equal(t, 10.0, agg.Min)
	assert.Equal(t, 30.0, agg.Avg)
	assert.Equal(t, 60.0, agg.Max)
}

func TestMemoryStore_CloneIsolation(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	payload := map[string]any{"tags": []string{"a"}}
	_, err := store.InsertOne(ctx, testDoc("doc-1", payload, nil))
	require.NoError(t, err)

	// Mutating what the caller handed in must not affect the stored copy.
	payload["tags"].([]string)[0] = "mutated"

	found, err := store.FindOne(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, found.Payload["tags"])
}
