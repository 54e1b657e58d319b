package docstore

// Filter is a conjunction of conditions over document payload fields.
// A nil *Filter, or one with no conditions, matches every document.
type Filter struct {
	Must []Condition
}

// Condition constrains a single payload field. Exactly one of Match,
// MatchAny, or Range should be set.
type Condition struct {
	// Field is the payload key the condition applies to.
	Field string

	// Match requires the payload value (or, for list-valued fields, one of
	// its elements) to equal this value.
	Match any

	// MatchAny requires the payload value to intersect this keyword set.
	MatchAny []string

	// Range requires a numeric payload value to fall in this range.
	Range *Range
}

// Range is a numeric range; nil bounds are unconstrained.
type Range struct {
	Gte *float64
	Lte *float64
	Gt  *float64
	Lt  *float64
}

// NewFilter builds a filter from conditions, returning nil when there are
// none so an unconstrained query stays a nil filter.
func NewFilter(conds ...Condition) *Filter {
	if len(conds) == 0 {
		return nil
	}
	return &Filter{Must: conds}
}

// IsEmpty reports whether the filter constrains nothing.
func (f *Filter) IsEmpty() bool {
	return f == nil || len(f.Must) == 0
}

// Matches evaluates the filter against a payload. It is the reference
// semantics shared by the in-memory backend and the filter tests; the
// Qdrant backend translates the same conditions to native ones.
func (f *Filter) Matches(payload map[string]any) bool {
	if f.IsEmpty() {
		return true
	}
	for _, cond := range f.Must {
		if !cond.matches(payload[cond.Field]) {
			return false
		}
	}
	return true
}

func (c Condition) matches(value any) bool {
	switch {
	case c.Match != nil:
		return valueEquals(value, c.Match)
	case len(c.MatchAny) > 0:
		return anyKeywordMatches(value, c.MatchAny)
	case c.Range != nil:
		num, ok := asFloat(value)
		return ok && c.Range.contains(num)
	}
	return true
}

func (r *Range) contains(v float64) bool {
	if r.Gte != nil && v < *r.Gte {
		return false
	}
	if r.Lte != nil && v > *r.Lte {
		return false
	}
	if r.Gt != nil && v <= *r.Gt {
		return false
	}
	if r.Lt != nil && v >= *r.Lt {
		return false
	}
	return true
}

func valueEquals(value, want any) bool {
	if list, ok := value.([]string); ok {
		for _, item := range list {
			if item == want {
				return true
			}
		}
		return false
	}
	if a, ok := asFloat(value); ok {
		if b, ok := asFloat(want); ok {
			return a == b
		}
	}
	return value == want
}

func anyKeywordMatches(value any, keywords []string) bool {
	switch v := value.(type) {
	case string:
		for _, kw := range keywords {
			if v == kw {
				return true
			}
		}
	case []string:
		for _, item := range v {
			for _, kw := range keywords {
				if item == kw {
					return true
				}
			}
		}
	}
	return false
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Ptr returns a pointer to v; a convenience for range bounds.
func Ptr[T any](v T) *T {
	return &v
}
