package embedding

import (
	"time"

	"github.com/MyMindSpace/chat-embedding-db/internal/docstore"
	"github.com/MyMindSpace/chat-embedding-db/internal/schema"
)

// Payload field names. The flattened keys double as the filterable and
// sortable fields of the store; timestamp_unix mirrors the event timestamp
// as a number so the store can range-filter and order by it.
const (
	fieldUserID              = "user_id"
	fieldEntryID             = "entry_id"
	fieldSessionID           = "session_id"
	fieldMessageContent      = "message_content"
	fieldMessageType         = "message_type"
	fieldConversationContext = "conversation_context"
	fieldTimestamp           = "timestamp"
	fieldTimestampUnix       = "timestamp_unix"
	fieldCreatedAt           = "created_at"
	fieldUpdatedAt           = "updated_at"
	fieldFeatureVector       = "feature_vector"
	fieldTemporalFeatures    = "temporal_features"
	fieldEmotionalFeatures   = "emotional_features"
	fieldSemanticFeatures    = "semantic_features"
	fieldUserFeatures        = "user_features"
	fieldFeatureCompleteness = "feature_completeness"
	fieldConfidenceScore     = "confidence_score"
	fieldTextLength          = "text_length"
	fieldProcessingTimeMS    = "processing_time_ms"
	fieldModelVersion        = "model_version"
	fieldSemanticTags        = "semantic_tags"
	fieldDominantEmotion     = "dominant_emotion"
	fieldEmotionIntensity    = "emotion_intensity"
	fieldEmotions            = "emotions"
	fieldEntitiesPeople      = "entities_people"
	fieldEntitiesLocations   = "entities_locations"
	fieldEntitiesOrgs        = "entities_organizations"
	fieldHourOfDay           = "hour_of_day"
	fieldDayOfWeek           = "day_of_week"
	fieldIsWeekend           = "is_weekend"
)

// PayloadIndexes declares the payload fields the store indexes so filtered
// and ordered queries stay efficient. Passed to the store at provisioning.
func PayloadIndexes() map[string]docstore.PayloadIndexType {
	return map[string]docstore.PayloadIndexType{
		fieldUserID:           docstore.IndexKeyword,
		fieldEntryID:          docstore.IndexKeyword,
		fieldSessionID:        docstore.IndexKeyword,
		fieldMessageType:      docstore.IndexKeyword,
		fieldSemanticTags:     docstore.IndexKeyword,
		fieldDominantEmotion:  docstore.IndexKeyword,
		fieldTimestampUnix:    docstore.IndexFloat,
		fieldProcessingTimeMS: docstore.IndexFloat,
		fieldEmotionIntensity: docstore.IndexFloat,
		fieldTextLength:       docstore.IndexInteger,
	}
}

// recordToDocument flattens a record into a store document. The two
// embeddings go into named vector slots; everything else becomes payload.
func recordToDocument(r *schema.EmbeddingRecord) *docstore.Document {
	payload := map[string]any{
		fieldUserID:              r.UserID,
		fieldEntryID:             r.EntryID,
		fieldSessionID:           r.SessionID,
		fieldMessageContent:      r.MessageContent,
		fieldMessageType:         string(r.MessageType),
		fieldConversationContext: r.ConversationContext,
		fieldTimestamp:           r.Timestamp.UTC().Format(time.RFC3339Nano),
		fieldTimestampUnix:       float64(r.Timestamp.UnixNano()) / float64(time.Second),
		fieldCreatedAt:           r.CreatedAt.UTC().Format(time.RFC3339Nano),
		fieldUpdatedAt:           r.UpdatedAt.UTC().Format(time.RFC3339Nano),
		fieldFeatureVector:       r.FeatureVector,
		fieldTemporalFeatures:    r.TemporalFeatures,
		fieldEmotionalFeatures:   r.EmotionalFeatures,
		fieldSemanticFeatures:    r.SemanticFeatures,
		fieldUserFeatures:        r.UserFeatures,
		fieldFeatureCompleteness: r.FeatureCompleteness,
		fieldConfidenceScore:     r.ConfidenceScore,
		fieldTextLength:          int64(r.TextLength),
		fieldProcessingTimeMS:    r.ProcessingTimeMS,
		fieldModelVersion:        r.ModelVersion,
		fieldSemanticTags:        r.SemanticTags,
		fieldEntitiesPeople:      r.EntitiesMentioned.People,
		fieldEntitiesLocations:   r.EntitiesMentioned.Locations,
		fieldEntitiesOrgs:        r.EntitiesMentioned.Organizations,
		fieldHourOfDay:           int64(r.TemporalContext.HourOfDay),
		fieldDayOfWeek:           int64(r.TemporalContext.DayOfWeek),
		fieldIsWeekend:           r.TemporalContext.IsWeekend,
	}

	if ec := r.EmotionContext; ec != nil {
		payload[fieldDominantEmotion] = string(ec.DominantEmotion)
		payload[fieldEmotionIntensity] = ec.Intensity
		emotions := make(map[string]any, len(ec.Emotions))
		for emotion, score := range ec.Emotions {
			emotions[string(emotion)] = score
		}
		payload[fieldEmotions] = emotions
	}

	return &docstore.Document{
		ID: r.ID,
		Vectors: map[string][]float32{
			docstore.PrimaryVectorName:     r.PrimaryEmbedding,
			docstore.LightweightVectorName: r.LightweightEmbedding,
		},
		Payload: payload,
	}
}

// documentToRecord rebuilds the public record shape from a stored document,
// re-exposing the named vector slots under their public field names.
func documentToRecord(doc *docstore.Document) *schema.EmbeddingRecord {
	p := doc.Payload
	r := &schema.EmbeddingRecord{
		ID:                   doc.ID,
		UserID:               asString(p[fieldUserID]),
		EntryID:              asString(p[fieldEntryID]),
		SessionID:            asString(p[fieldSessionID]),
		MessageContent:       asString(p[fieldMessageContent]),
		MessageType:          schema.MessageType(asString(p[fieldMessageType])),
		ConversationContext:  asString(p[fieldConversationContext]),
		Timestamp:            asTime(p[fieldTimestamp]),
		CreatedAt:            asTime(p[fieldCreatedAt]),
		UpdatedAt:            asTime(p[fieldUpdatedAt]),
		PrimaryEmbedding:     doc.Vectors[docstore.PrimaryVectorName],
		LightweightEmbedding: doc.Vectors[docstore.LightweightVectorName],
		FeatureVector:        asFloats(p[fieldFeatureVector]),
		TemporalFeatures:     asFloats(p[fieldTemporalFeatures]),
		EmotionalFeatures:    asFloats(p[fieldEmotionalFeatures]),
		SemanticFeatures:     asFloats(p[fieldSemanticFeatures]),
		UserFeatures:         asFloats(p[fieldUserFeatures]),
		FeatureCompleteness:  asFloat(p[fieldFeatureCompleteness]),
		ConfidenceScore:      asFloat(p[fieldConfidenceScore]),
		TextLength:           asInt(p[fieldTextLength]),
		ProcessingTimeMS:     asFloat(p[fieldProcessingTimeMS]),
		ModelVersion:         asString(p[fieldModelVersion]),
		SemanticTags:         asStrings(p[fieldSemanticTags]),
		EntitiesMentioned: schema.Entities{
			People:        asStrings(p[fieldEntitiesPeople]),
			Locations:     asStrings(p[fieldEntitiesLocations]),
			Organizations: asStrings(p[fieldEntitiesOrgs]),
		},
		TemporalContext: schema.TemporalContext{
			HourOfDay: asInt(p[fieldHourOfDay]),
			DayOfWeek: asInt(p[fieldDayOfWeek]),
			IsWeekend: asBool(p[fieldIsWeekend]),
		},
	}

	if dominant, ok := p[fieldDominantEmotion]; ok {
		ec := &schema.EmotionContext{
			DominantEmotion: schema.Emotion(asString(dominant)),
			Intensity:       asFloat(p[fieldEmotionIntensity]),
			Emotions:        make(map[schema.Emotion]float64),
		}
		if emotions, ok := p[fieldEmotions].(map[string]any); ok {
			for emotion, score := range emotions {
				ec.Emotions[schema.Emotion(emotion)] = asFloat(score)
			}
		}
		r.EmotionContext = ec
	}

	return r
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func asInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func asFloats(v any) []float64 {
	f, _ := v.([]float64)
	return f
}

func asStrings(v any) []string {
	s, _ := v.([]string)
	return s
}

func asTime(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
