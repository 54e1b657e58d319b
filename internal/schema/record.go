// Package schema defines the canonical chat embedding record shape and the
// validation contracts for every request variant that reaches the service.
package schema

import "time"

// Vector dimensions are hard invariants of the record shape. A vector whose
// length differs from its declared dimension is rejected before persistence.
const (
	PrimaryEmbeddingDim     = 768
	LightweightEmbeddingDim = 384
	FeatureVectorDim        = 90
	TemporalFeaturesDim     = 25
	EmotionalFeaturesDim    = 20
	SemanticFeaturesDim     = 30
	UserFeaturesDim         = 15
)

// Request-level bounds.
const (
	MaxMessageContentLen      = 10000
	MaxConversationContextLen = 2000
	MaxBatchSize              = 50
	MaxSearchLimit            = 100
	DefaultSearchLimit        = 10
	DefaultListLimit          = 20
)

// MessageType classifies who produced a message.
type MessageType string

const (
	MessageTypeUser   MessageType = "user_message"
	MessageTypeAI     MessageType = "ai_response"
	MessageTypeSystem MessageType = "system_message"
)

// MessageTypes lists every valid message type.
func MessageTypes() []MessageType {
	return []MessageType{MessageTypeUser, MessageTypeAI, MessageTypeSystem}
}

// Valid reports whether t is one of the closed set of message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeUser, MessageTypeAI, MessageTypeSystem:
		return true
	}
	return false
}

// Emotion is one of the eight named emotions tracked per record.
type Emotion string

const (
	EmotionJoy          Emotion = "joy"
	EmotionSadness      Emotion = "sadness"
	EmotionAnger        Emotion = "anger"
	EmotionFear         Emotion = "fear"
	EmotionSurprise     Emotion = "surprise"
	EmotionDisgust      Emotion = "disgust"
	EmotionTrust        Emotion = "trust"
	EmotionAnticipation Emotion = "anticipation"
)

// Emotions lists every named emotion.
func Emotions() []Emotion {
	return []Emotion{
		EmotionJoy, EmotionSadness, EmotionAnger, EmotionFear,
		EmotionSurprise, EmotionDisgust, EmotionTrust, EmotionAnticipation,
	}
}

// Valid reports whether e is one of the named emotions.
func (e Emotion) Valid() bool {
	switch e {
	case EmotionJoy, EmotionSadness, EmotionAnger, EmotionFear,
		EmotionSurprise, EmotionDisgust, EmotionTrust, EmotionAnticipation:
		return true
	}
	return false
}

// EmotionContext carries the emotional signal extracted from a message.
// Emotions holds one score in [0,1] per named emotion; unset emotions
// default to 0.
type EmotionContext struct {
	DominantEmotion Emotion             `json:"dominant_emotion"`
	Intensity       float64             `json:"intensity"`
	Emotions        map[Emotion]float64 `json:"emotions"`
}

// Entities lists the named entities mentioned in a message.
type Entities struct {
	People        []string `json:"people"`
	Locations     []string `json:"locations"`
	Organizations []string `json:"organizations"`
}

// TemporalContext places the message in wall-clock time.
type TemporalContext struct {
	HourOfDay int  `json:"hour_of_day"`
	DayOfWeek int  `json:"day_of_week"`
	IsWeekend bool `json:"is_weekend"`
}

// EmbeddingRecord is the canonical entity. The id is assigned exactly once
// by the service; created_at never mutates after creation; updated_at
// advances on every successful mutation.
type EmbeddingRecord struct {
	ID                   string           `json:"id"`
	UserID               string           `json:"user_id"`
	EntryID              string           `json:"entry_id"`
	SessionID            string           `json:"session_id"`
	MessageContent       string           `json:"message_content"`
	MessageType          MessageType      `json:"message_type"`
	ConversationContext  string           `json:"conversation_context,omitempty"`
	Timestamp            time.Time        `json:"timestamp"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
	PrimaryEmbedding     []float32        `json:"primary_embedding"`
	LightweightEmbedding []float32        `json:"lightweight_embedding"`
	FeatureVector        []float64        `json:"feature_vector"`
	TemporalFeatures     []float64        `json:"temporal_features"`
	EmotionalFeatures    []float64        `json:"emotional_features"`
	SemanticFeatures     []float64        `json:"semantic_features"`
	UserFeatures         []float64        `json:"user_features"`
	FeatureCompleteness  float64          `json:"feature_completeness"`
	ConfidenceScore      float64          `json:"confidence_score"`
	TextLength           int              `json:"text_length"`
	ProcessingTimeMS     float64          `json:"processing_time_ms"`
	ModelVersion         string           `json:"model_version"`
	SemanticTags         []string         `json:"semantic_tags"`
	EmotionContext       *EmotionContext  `json:"emotion_context,omitempty"`
	EntitiesMentioned    Entities         `json:"entities_mentioned"`
	TemporalContext      TemporalContext  `json:"temporal_context"`
}

// CreateRequest is the full-contract input for record creation and for each
// item of a batch. The service assigns id and all timestamps. Unknown JSON
// fields are dropped by struct decoding for forward compatibility.
type CreateRequest struct {
	UserID               string          `json:"user_id"`
	EntryID              string          `json:"entry_id"`
	SessionID            string          `json:"session_id"`
	MessageContent       string          `json:"message_content"`
	MessageType          MessageType     `json:"message_type"`
	ConversationContext  string          `json:"conversation_context,omitempty"`
	PrimaryEmbedding     []float32       `json:"primary_embedding"`
	LightweightEmbedding []float32       `json:"lightweight_embedding"`
	FeatureVector        []float64       `json:"feature_vector"`
	TemporalFeatures     []float64       `json:"temporal_features"`
	EmotionalFeatures    []float64       `json:"emotional_features"`
	SemanticFeatures     []float64       `json:"semantic_features"`
	UserFeatures         []float64       `json:"user_features"`
	FeatureCompleteness  float64         `json:"feature_completeness"`
	ConfidenceScore      float64         `json:"confidence_score"`
	TextLength           int             `json:"text_length"`
	ProcessingTimeMS     float64         `json:"processing_time_ms"`
	ModelVersion         string          `json:"model_version"`
	SemanticTags         []string        `json:"semantic_tags"`
	EmotionContext       *EmotionContext `json:"emotion_context,omitempty"`
	EntitiesMentioned    Entities        `json:"entities_mentioned"`
	TemporalContext      TemporalContext `json:"temporal_context"`
}

// ReplaceRequest is the full-contract input for whole-record replacement.
// The caller may supply the logical event timestamp; id and created_at are
// preserved from the existing record and updated_at is refreshed by the
// service.
type ReplaceRequest struct {
	CreateRequest
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// DateRange bounds the logical event timestamp. Either bound may be absent,
// yielding a half-open range; present bounds are inclusive.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// EmotionFilter narrows results by emotional signal.
type EmotionFilter struct {
	DominantEmotion Emotion  `json:"dominant_emotion,omitempty"`
	MinIntensity    *float64 `json:"min_intensity,omitempty"`
}

// SearchFilters are the optional predicates of a similarity search. Every
// present field narrows the result set; absent fields impose no constraint.
// Fields follow the partial contract: optional, but constrained when set.
type SearchFilters struct {
	UserID       string         `json:"user_id,omitempty"`
	SessionID    string         `json:"session_id,omitempty"`
	MessageType  MessageType    `json:"message_type,omitempty"`
	DateRange    *DateRange     `json:"date_range,omitempty"`
	EmotionFilter *EmotionFilter `json:"emotion_filter,omitempty"`
	SemanticTags []string       `json:"semantic_tags,omitempty"`
}

// SimilarityQuery is a transient vector search request. Ranking is entirely
// the document store's responsibility; the query vector is the sort key.
type SimilarityQuery struct {
	QueryVector []float32      `json:"query_vector"`
	Limit       int            `json:"limit,omitempty"`
	Filters     *SearchFilters `json:"filters,omitempty"`
}

// SortField names a sortable record field for list queries.
type SortField string

const (
	SortByTimestamp      SortField = "timestamp"
	SortByProcessingTime SortField = "processing_time_ms"
	SortByTextLength     SortField = "text_length"
)

// Valid reports whether f is a sortable field.
func (f SortField) Valid() bool {
	switch f {
	case SortByTimestamp, SortByProcessingTime, SortByTextLength:
		return true
	}
	return false
}

// SortOrder is a sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Valid reports whether o is a sort direction.
func (o SortOrder) Valid() bool {
	return o == SortAsc || o == SortDesc
}

// ListQuery is a transient filtered, paginated, sorted list request.
type ListQuery struct {
	UserID      string      `json:"user_id,omitempty"`
	SessionID   string      `json:"session_id,omitempty"`
	MessageType MessageType `json:"message_type,omitempty"`
	DateRange   *DateRange  `json:"date_range,omitempty"`
	Limit       int         `json:"limit,omitempty"`
	Offset      int         `json:"offset,omitempty"`
	SortBy      SortField   `json:"sort_by,omitempty"`
	SortOrder   SortOrder   `json:"sort_order,omitempty"`
}
