package schema

import (
	"fmt"
	"unicode/utf8"
)

// Validate checks the full contract: every field is required with its
// stated constraint. All violations are collected and returned together as
// a *ValidationError.
func (r *CreateRequest) Validate() error {
	var v violations
	r.validateInto(&v, "")
	return v.err()
}

// validateInto records violations with an optional prefix so batch items
// can report their index alongside each message.
func (r *CreateRequest) validateInto(v *violations, prefix string) {
	addf := func(format string, args ...any) {
		v.add(prefix + fmt.Sprintf(format, args...))
	}

	if r.UserID == "" {
		addf("user_id is required")
	}
	if r.EntryID == "" {
		addf("entry_id is required")
	}
	if r.SessionID == "" {
		addf("session_id is required")
	}

	if n := utf8.RuneCountInString(r.MessageContent); n == 0 {
		addf("message_content is required")
	} else if n > MaxMessageContentLen {
		addf("message_content exceeds %d characters (got %d)", MaxMessageContentLen, n)
	}
	if !r.MessageType.Valid() {
		addf("message_type must be one of %v (got %q)", MessageTypes(), r.MessageType)
	}
	if n := utf8.RuneCountInString(r.ConversationContext); n > MaxConversationContextLen {
		addf("conversation_context exceeds %d characters (got %d)", MaxConversationContextLen, n)
	}

	checkDim32 := func(name string, vec []float32, want int) {
		if len(vec) != want {
			addf("%s must have exactly %d dimensions (got %d)", name, want, len(vec))
		}
	}
	checkDim64 := func(name string, vec []float64, want int) {
		if len(vec) != want {
			addf("%s must have exactly %d dimensions (got %d)", name, want, len(vec))
		}
	}
	checkDim32("primary_embedding", r.PrimaryEmbedding, PrimaryEmbeddingDim)
	checkDim32("lightweight_embedding", r.LightweightEmbedding, LightweightEmbeddingDim)
	checkDim64("feature_vector", r.FeatureVector, FeatureVectorDim)
	checkDim64("temporal_features", r.TemporalFeatures, TemporalFeaturesDim)
	checkDim64("emotional_features", r.EmotionalFeatures, EmotionalFeaturesDim)
	checkDim64("semantic_features", r.SemanticFeatures, SemanticFeaturesDim)
	checkDim64("user_features", r.UserFeatures, UserFeaturesDim)

	if r.FeatureCompleteness < 0 || r.FeatureCompleteness > 1 {
		addf("feature_completeness must be in [0,1] (got %v)", r.FeatureCompleteness)
	}
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 1 {
		addf("confidence_score must be in [0,1] (got %v)", r.ConfidenceScore)
	}
	if r.TextLength < 0 {
		addf("text_length must be non-negative (got %d)", r.TextLength)
	}
	if r.ProcessingTimeMS < 0 {
		addf("processing_time_ms must be non-negative (got %v)", r.ProcessingTimeMS)
	}
	if r.ModelVersion == "" {
		addf("model_version is required")
	}

	if ec := r.EmotionContext; ec != nil {
		if !ec.DominantEmotion.Valid() {
			addf("emotion_context.dominant_emotion must be one of %v (got %q)", Emotions(), ec.DominantEmotion)
		}
		if ec.Intensity < 0 || ec.Intensity > 1 {
			addf("emotion_context.intensity must be in [0,1] (got %v)", ec.Intensity)
		}
		for emotion, score := range ec.Emotions {
			if !emotion.Valid() {
				addf("emotion_context.emotions contains unknown emotion %q", emotion)
			}
			if score < 0 || score > 1 {
				addf("emotion_context.emotions[%s] must be in [0,1] (got %v)", emotion, score)
			}
		}
	}

	if tc := r.TemporalContext; tc.HourOfDay < 0 || tc.HourOfDay > 23 {
		addf("temporal_context.hour_of_day must be in [0,23] (got %d)", tc.HourOfDay)
	}
	if tc := r.TemporalContext; tc.DayOfWeek < 0 || tc.DayOfWeek > 6 {
		addf("temporal_context.day_of_week must be in [0,6] (got %d)", tc.DayOfWeek)
	}
}

// ApplyDefaults fills optional collections: empty tag and entity lists, and
// a zero score for every named emotion not present in the emotions map.
func (r *CreateRequest) ApplyDefaults() {
	if r.SemanticTags == nil {
		r.SemanticTags = []string{}
	}
	if r.EntitiesMentioned.People == nil {
		r.EntitiesMentioned.People = []string{}
	}
	if r.EntitiesMentioned.Locations == nil {
		r.EntitiesMentioned.Locations = []string{}
	}
	if r.EntitiesMentioned.Organizations == nil {
		r.EntitiesMentioned.Organizations = []string{}
	}
	if r.EmotionContext != nil {
		if r.EmotionContext.Emotions == nil {
			r.EmotionContext.Emotions = make(map[Emotion]float64, len(Emotions()))
		}
		for _, emotion := range Emotions() {
			if _, ok := r.EmotionContext.Emotions[emotion]; !ok {
				r.EmotionContext.Emotions[emotion] = 0
			}
		}
	}
}

// ValidateBatch checks a batch of create requests: 1-50 items, each item
// validated against the full contract independently. Violations carry the
// item index. A non-nil error means the whole batch must be rejected.
func ValidateBatch(items []*CreateRequest) error {
	var v violations
	if len(items) == 0 {
		v.add("batch must contain at least 1 item")
		return v.err()
	}
	if len(items) > MaxBatchSize {
		v.add(fmt.Sprintf("batch must contain at most %d items (got %d)", MaxBatchSize, len(items)))
		return v.err()
	}
	for i, item := range items {
		if item == nil {
			v.add(fmt.Sprintf("item %d: must not be null", i))
			continue
		}
		item.validateInto(&v, fmt.Sprintf("item %d: ", i))
	}
	return v.err()
}

// validateInto checks the optional search filters against the partial
// contract: every field optional, same constraints as the full contract
// when present.
func (f *SearchFilters) validateInto(v *violations) {
	if f == nil {
		return
	}
	if f.MessageType != "" && !f.MessageType.Valid() {
		v.add(fmt.Sprintf("filters.message_type must be one of %v (got %q)", MessageTypes(), f.MessageType))
	}
	if dr := f.DateRange; dr != nil && dr.Start != nil && dr.End != nil && dr.End.Before(*dr.Start) {
		v.add("filters.date_range.end must not precede filters.date_range.start")
	}
	if ef := f.EmotionFilter; ef != nil {
		if ef.DominantEmotion != "" && !ef.DominantEmotion.Valid() {
			v.add(fmt.Sprintf("filters.emotion_filter.dominant_emotion must be one of %v (got %q)", Emotions(), ef.DominantEmotion))
		}
		if ef.MinIntensity != nil && (*ef.MinIntensity < 0 || *ef.MinIntensity > 1) {
			v.add(fmt.Sprintf("filters.emotion_filter.min_intensity must be in [0,1] (got %v)", *ef.MinIntensity))
		}
	}
	for i, tag := range f.SemanticTags {
		if tag == "" {
			v.add(fmt.Sprintf("filters.semantic_tags[%d] must not be empty", i))
		}
	}
}

// ApplyDefaults sets the default result limit.
func (q *SimilarityQuery) ApplyDefaults() {
	if q.Limit == 0 {
		q.Limit = DefaultSearchLimit
	}
}

// Validate checks the similarity-search contract: a query vector of exactly
// 768 dimensions, a limit in [1,100], and partial-contract filters.
func (q *SimilarityQuery) Validate() error {
	var v violations
	if len(q.QueryVector) != PrimaryEmbeddingDim {
		v.add(fmt.Sprintf("query_vector must have exactly %d dimensions (got %d)", PrimaryEmbeddingDim, len(q.QueryVector)))
	}
	if q.Limit < 1 || q.Limit > MaxSearchLimit {
		v.add(fmt.Sprintf("limit must be in [1,%d] (got %d)", MaxSearchLimit, q.Limit))
	}
	q.Filters.validateInto(&v)
	return v.err()
}

// ApplyDefaults sets pagination and sort defaults.
func (q *ListQuery) ApplyDefaults() {
	if q.Limit == 0 {
		q.Limit = DefaultListLimit
	}
	if q.SortBy == "" {
		q.SortBy = SortByTimestamp
	}
	if q.SortOrder == "" {
		q.SortOrder = SortDesc
	}
}

// Validate checks the list-query contract.
func (q *ListQuery) Validate() error {
	var v violations
	if q.Limit < 1 || q.Limit > MaxSearchLimit {
		v.add(fmt.Sprintf("limit must be in [1,%d] (got %d)", MaxSearchLimit, q.Limit))
	}
	if q.Offset < 0 {
		v.add(fmt.Sprintf("offset must be non-negative (got %d)", q.Offset))
	}
	if !q.SortBy.Valid() {
		v.add(fmt.Sprintf("sort_by must be one of [%s %s %s] (got %q)", SortByTimestamp, SortByProcessingTime, SortByTextLength, q.SortBy))
	}
	if !q.SortOrder.Valid() {
		v.add(fmt.Sprintf("sort_order must be %q or %q (got %q)", SortAsc, SortDesc, q.SortOrder))
	}
	if q.MessageType != "" && !q.MessageType.Valid() {
		v.add(fmt.Sprintf("message_type must be one of %v (got %q)", MessageTypes(), q.MessageType))
	}
	if dr := q.DateRange; dr != nil && dr.Start != nil && dr.End != nil && dr.End.Before(*dr.Start) {
		v.add("date_range.end must not precede date_range.start")
	}
	return v.err()
}
