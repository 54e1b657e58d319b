package docstore

import (
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// toQdrantPoint converts a Document to a Qdrant point with named vectors.
func toQdrantPoint(doc *Document) *qdrant.PointStruct {
	vectors := make(map[string]*qdrant.Vector, len(doc.Vectors))
	for name, vec := range doc.Vectors {
		vectors[name] = qdrant.NewVector(vec...)
	}
	return &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(doc.ID),
		Vectors: qdrant.NewVectorsMap(vectors),
		Payload: toQdrantPayload(doc.Payload),
	}
}

func fromRetrievedPoint(p *qdrant.RetrievedPoint) *Document {
	return &Document{
		ID:      extractPointID(p.Id),
		Vectors: fromVectorsOutput(p.Vectors),
		Payload: fromQdrantPayload(p.Payload),
	}
}

func extractPointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	switch v := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return v.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", v.Num)
	}
	return ""
}

func fromVectorsOutput(out *qdrant.VectorsOutput) map[string][]float32 {
	if out == nil {
		return nil
	}
	switch v := out.VectorsOptions.(type) {
	case *qdrant.VectorsOutput_Vectors:
		vectors := make(map[string][]float32, len(v.Vectors.GetVectors()))
		for name, vec := range v.Vectors.GetVectors() {
			vectors[name] = vec.GetData()
		}
		return vectors
	case *qdrant.VectorsOutput_Vector:
		return map[string][]float32{PrimaryVectorName: v.Vector.GetData()}
	}
	return nil
}

// toQdrantPayload converts a payload map to Qdrant values. Supported value
// kinds are the ones Document documents: scalars, []string, []float64, and
// one level of nested map.
func toQdrantPayload(payload map[string]any) map[string]*qdrant.Value {
	if payload == nil {
		return nil
	}
	converted := make(map[string]*qdrant.Value, len(payload))
	for key, value := range payload {
		converted[key] = toQdrantValue(value)
	}
	return converted
}

func toQdrantValue(value any) *qdrant.Value {
	switch v := value.(type) {
	case nil:
		return &qdrant.Value{Kind: &qdrant.Value_NullValue{NullValue: qdrant.NullValue_NULL_VALUE}}
	case string:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: v}}
	case int:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(v)}}
	case int64:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: v}}
	case float32:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: float64(v)}}
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: v}}
	case []string:
		values := make([]*qdrant.Value, len(v))
		for i, item := range v {
			values[i] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: item}}
		}
		return &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: values}}}
	case []float64:
		values := make([]*qdrant.Value, len(v))
		for i, item := range v {
			values[i] = &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: item}}
		}
		return &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: values}}}
	case map[string]any:
		return &qdrant.Value{Kind: &qdrant.Value_StructValue{StructValue: &qdrant.Struct{Fields: toQdrantPayload(v)}}}
	default:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: fmt.Sprintf("%v", v)}}
	}
}

func fromQdrantPayload(payload map[string]*qdrant.Value) map[string]any {
	if payload == nil {
		return nil
	}
	converted := make(map[string]any, len(payload))
	for key, value := range payload {
		converted[key] = fromQdrantValue(value)
	}
	return converted
}

func fromQdrantValue(value *qdrant.Value) any {
	switch v := value.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return v.StringValue
	case *qdrant.Value_BoolValue:
		return v.BoolValue
	case *qdrant.Value_IntegerValue:
		return v.IntegerValue
	case *qdrant.Value_DoubleValue:
		return v.DoubleValue
	case *qdrant.Value_ListValue:
		return fromQdrantList(v.ListValue)
	case *qdrant.Value_StructValue:
		return fromQdrantPayload(v.StructValue.GetFields())
	}
	return nil
}

// fromQdrantList reconstructs []string for all-string lists and []float64
// otherwise, the two list kinds the payload carries.
func fromQdrantList(list *qdrant.ListValue) any {
	values := list.GetValues()
	strings := make([]string, 0, len(values))
	for _, value := range values {
		s, ok := value.GetKind().(*qdrant.Value_StringValue)
		if !ok {
			strings = nil
			break
		}
		strings = append(strings, s.StringValue)
	}
	if strings != nil {
		return strings
	}
	floats := make([]float64, 0, len(values))
	for _, value := range values {
		switch v := value.GetKind().(type) {
		case *qdrant.Value_DoubleValue:
			floats = append(floats, v.DoubleValue)
		case *qdrant.Value_IntegerValue:
			floats = append(floats, float64(v.IntegerValue))
		}
	}
	return floats
}

// toQdrantFilter translates the gateway filter model into native Qdrant
// conditions. A nil or empty filter becomes a nil native filter.
func toQdrantFilter(filter *Filter) *qdrant.Filter {
	if filter.IsEmpty() {
		return nil
	}
	must := make([]*qdrant.Condition, 0, len(filter.Must))
	for _, cond := range filter.Must {
		must = append(must, toQdrantCondition(cond))
	}
	return &qdrant.Filter{Must: must}
}

func toQdrantCondition(cond Condition) *qdrant.Condition {
	field := &qdrant.FieldCondition{Key: cond.Field}
	switch {
	case cond.Match != nil:
		field.Match = toQdrantMatch(cond.Match)
	case len(cond.MatchAny) > 0:
		field.Match = &qdrant.Match{
			MatchValue: &qdrant.Match_Keywords{
				Keywords: &qdrant.RepeatedStrings{Strings: cond.MatchAny},
			},
		}
	case cond.Range != nil:
		field.Range = &qdrant.Range{
			Gte: cond.Range.Gte,
			Lte: cond.Range.Lte,
			Gt:  cond.Range.Gt,
			Lt:  cond.Range.Lt,
		}
	}
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{Field: field},
	}
}

func toQdrantMatch(match any) *qdrant.Match {
	switch v := match.(type) {
	case string:
		return &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: v}}
	case bool:
		return &qdrant.Match{MatchValue: &qdrant.Match_Boolean{Boolean: v}}
	case int:
		return &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: int64(v)}}
	case int64:
		return &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: v}}
	default:
		return &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: fmt.Sprintf("%v", v)}}
	}
}
