package embedding

import (
	"time"

	"github.com/MyMindSpace/chat-embedding-db/internal/docstore"
	"github.com/MyMindSpace/chat-embedding-db/internal/schema"
)

// filterBuilder folds optional request fields into store conditions. Each
// Add call pairs a presence check with the condition it contributes, so the
// many optional filters stay declarative and testable without a store.
type filterBuilder struct {
	conds []docstore.Condition
}

func (b *filterBuilder) Add(present bool, cond docstore.Condition) *filterBuilder {
	if present {
		b.conds = append(b.conds, cond)
	}
	return b
}

func (b *filterBuilder) Build() *docstore.Filter {
	return docstore.NewFilter(b.conds...)
}

// buildSearchFilter composes the store filter of a similarity search. A nil
// filters struct yields a nil (match-all) filter.
func buildSearchFilter(f *schema.SearchFilters) *docstore.Filter {
	if f == nil {
		return nil
	}
	b := &filterBuilder{}
	b.Add(f.UserID != "", docstore.Condition{Field: fieldUserID, Match: f.UserID}).
		Add(f.SessionID != "", docstore.Condition{Field: fieldSessionID, Match: f.SessionID}).
		Add(f.MessageType != "", docstore.Condition{Field: fieldMessageType, Match: string(f.MessageType)}).
		Add(len(f.SemanticTags) > 0, docstore.Condition{Field: fieldSemanticTags, MatchAny: f.SemanticTags})
	if dr := f.DateRange; dr != nil {
		addDateRange(b, dr)
	}
	if ef := f.EmotionFilter; ef != nil {
		b.Add(ef.DominantEmotion != "", docstore.Condition{Field: fieldDominantEmotion, Match: string(ef.DominantEmotion)})
		if ef.MinIntensity != nil {
			b.Add(true, docstore.Condition{
				Field: fieldEmotionIntensity,
				Range: &docstore.Range{Gte: ef.MinIntensity},
			})
		}
	}
	return b.Build()
}

// buildListFilter composes the store filter of a list query.
func buildListFilter(q *schema.ListQuery) *docstore.Filter {
	b := &filterBuilder{}
	b.Add(q.UserID != "", docstore.Condition{Field: fieldUserID, Match: q.UserID}).
		Add(q.SessionID != "", docstore.Condition{Field: fieldSessionID, Match: q.SessionID}).
		Add(q.MessageType != "", docstore.Condition{Field: fieldMessageType, Match: string(q.MessageType)})
	if q.DateRange != nil {
		addDateRange(b, q.DateRange)
	}
	return b.Build()
}

// addDateRange contributes an inclusive range on the numeric timestamp
// mirror. Either bound may be absent.
func addDateRange(b *filterBuilder, dr *schema.DateRange) {
	r := &docstore.Range{}
	if dr.Start != nil {
		r.Gte = docstore.Ptr(unixSeconds(*dr.Start))
	}
	if dr.End != nil {
		r.Lte = docstore.Ptr(unixSeconds(*dr.End))
	}
	b.Add(r.Gte != nil || r.Lte != nil, docstore.Condition{Field: fieldTimestampUnix, Range: r})
}

// sortFieldName maps a public sort field to its payload key. The timestamp
// sort uses the numeric mirror so ordering is chronological, not lexical.
func sortFieldName(f schema.SortField) string {
	switch f {
	case schema.SortByProcessingTime:
		return fieldProcessingTimeMS
	case schema.SortByTextLength:
		return fieldTextLength
	default:
		return fieldTimestampUnix
	}
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
