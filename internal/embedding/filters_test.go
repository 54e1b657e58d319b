package embedding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyMindSpace/chat-embedding-db/internal/schema"
)

func TestBuildSearchFilter_Nil(t *testing.T) {
	assert.Nil(t, buildSearchFilter(nil))
	assert.Nil(t, buildSearchFilter(&schema.SearchFilters{}))
}

func TestBuildSearchFilter_AllFields(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	minIntensity := 0.5

	filter := buildSearchFilter(&schema.SearchFilters{
		UserID:      "u1",
		SessionID:   "s1",
		MessageType: schema.MessageTypeAI,
		DateRange:   &schema.DateRange{Start: &start, End: &end},
		EmotionFilter: &schema.EmotionFilter{
			DominantEmotion: schema.EmotionJoy,
			MinIntensity:    &minIntensity,
		},
		SemanticTags: []string{"travel", "food"},
	})

	require.NotNil(t, filter)
	assert.Len(t, filter.Must, 7)

	// The composed filter must agree with the reference evaluation.
	matching := map[string]any{
		fieldUserID:           "u1",
		fieldSessionID:        "s1",
		fieldMessageType:      "ai_response",
		fieldTimestampUnix:    unixSeconds(start.Add(24 * time.Hour)),
		fieldDominantEmotion:  "joy",
		fieldEmotionIntensity: 0.7,
		fieldSemanticTags:     []string{"food"},
	}
	assert.True(t, filter.Matches(matching))

	matching[fieldEmotionIntensity] = 0.4
	assert.False(t, filter.Matches(matching))
}

func TestBuildSearchFilter_PartialFields(t *testing.T) {
	filter := buildSearchFilter(&schema.SearchFilters{UserID: "u1"})
	require.NotNil(t, filter)
	assert.Len(t, filter.Must, 1)
	assert.Equal(t, fieldUserID, filter.Must[0].Field)
}

func TestBuildListFilter(t *testing.T) {
	assert.Nil(t, buildListFilter(&schema.ListQuery{}))

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	filter := buildListFilter(&schema.ListQuery{
		UserID:    "u1",
		DateRange: &schema.DateRange{Start: &start},
	})
	require.NotNil(t, filter)
	assert.Len(t, filter.Must, 2)

	assert.True(t, filter.Matches(map[string]any{
		fieldUserID:        "u1",
		fieldTimestampUnix: unixSeconds(start),
	}))
	assert.False(t, filter.Matches(map[string]any{
		fieldUserID:        "u1",
		fieldTimestampUnix: unixSeconds(start.Add(-time.Second)),
	}))
}

func TestSortFieldName(t *testing.T) {
	assert.Equal(t, fieldTimestampUnix, sortFieldName(schema.SortByTimestamp))
	assert.Equal(t, fieldProcessingTimeMS, sortFieldName(schema.SortByProcessingTime))
	assert.Equal(t, fieldTextLength, sortFieldName(schema.SortByTextLength))
}
