package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Matches_Empty(t *testing.T) {
	payload := map[string]any{"user_id": "u1"}

	var nilFilter *Filter
	assert.True(t, nilFilter.Matches(payload))
	assert.True(t, NewFilter().Matches(payload))
	assert.Nil(t, NewFilter())
}

func TestFilter_Matches_Match(t *testing.T) {
	payload := map[string]any{
		"user_id":      "u1",
		"message_type": "user_message",
		"text_length":  int64(42),
		"tags":         []string{"travel", "food"},
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"string equal", Condition{Field: "user_id", Match: "u1"}, true},
		{"string not equal", Condition{Field: "user_id", Match: "u2"}, false},
		{"absent field", Condition{Field: "missing", Match: "x"}, false},
		{"int64 vs int", Condition{Field: "text_length", Match: 42}, true},
		{"list membership", Condition{Field: "tags", Match: "food"}, true},
		{"list non-membership", Condition{Field: "tags", Match: "music"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewFilter(tt.cond).Matches(payload))
		})
	}
}

func TestFilter_Matches_MatchAny(t *testing.T) {
	payload := map[string]any{
		"tags":         []string{"travel", "food"},
		"message_type": "ai_response",
	}

	assert.True(t, NewFilter(Condition{Field: "tags", MatchAny: []string{"music", "food"}}).Matches(payload))
	assert.False(t, NewFilter(Condition{Field: "tags", MatchAny: []string{"music"}}).Matches(payload))
	assert.True(t, NewFilter(Condition{Field: "message_type", MatchAny: []string{"ai_response"}}).Matches(payload))
}

func TestFilter_Matches_Range(t *testing.T) {
	payload := map[string]any{"timestamp_unix": 100.0}

	tests := []struct {
		name string
		r    *Range
		want bool
	}{
		{"inside gte lte", &Range{Gte: Ptr(50.0), Lte: Ptr(150.0)}, true},
		{"at gte bound", &Range{Gte: Ptr(100.0)}, true},
		{"at lte bound", &Range{Lte: Ptr(100.0)}, true},
		{"below gte", &Range{Gte: Ptr(100.5)}, false},
		{"above lte", &Range{Lte: Ptr(99.5)}, false},
		{"gt excludes bound", &Range{Gt: Ptr(100.0)}, false},
		{"lt excludes bound", &Range{Lt: Ptr(100.0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond := Condition{Field: "timestamp_unix", Range: tt.r}
			assert.Equal(t, tt.want, NewFilter(cond).Matches(payload))
		})
	}
}

func TestFilter_Matches_Conjunction(t *testing.T) {
	payload := map[string]any{"user_id": "u1", "session_id": "s1"}

	both := NewFilter(
		Condition{Field: "user_id", Match: "u1"},
		Condition{Field: "session_id", Match: "s1"},
	)
	assert.True(t, both.Matches(payload))

	oneWrong := NewFilter(
		Condition{Field: "user_id", Match: "u1"},
		Condition{Field: "session_id", Match: "s2"},
	)
	assert.False(t, oneWrong.Matches(payload))
}
