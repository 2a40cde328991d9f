package qdrant

import (
	"encoding/json"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/memories/pkg/vector"
)

// idKey holds the caller's document ID, which may differ from the point ID.
const idKey = "_id"

// toPayload converts metadata into a Qdrant payload. Metadata is normalized
// through JSON first so only JSON value kinds reach the payload builder.
func toPayload(id string, metadata map[string]any) (map[string]*qdrant.Value, error) {
	normalized := map[string]any{}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &normalized); err != nil {
			return nil, err
		}
	}
	normalized[idKey] = id

	return qdrant.TryValueMap(normalized)
}

// fromPayload returns the document ID and metadata stored in a payload.
func fromPayload(payload map[string]*qdrant.Value) (string, map[string]any) {
	metadata := make(map[string]any, len(payload))
	id := ""
	for k, v := range payload {
		if k == idKey {
			id = v.GetStringValue()
			continue
		}
		metadata[k] = fromValue(v)
	}
	return id, metadata
}

func fromValue(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		list := make([]any, len(values))
		for i, item := range values {
			list[i] = fromValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		m := make(map[string]any, len(fields))
		for k, item := range fields {
			m[k] = fromValue(item)
		}
		return m
	default:
		return nil
	}
}

// toFilter translates a Filter into Qdrant must-match conditions.
func toFilter(filter vector.Filter) (*qdrant.Filter, error) {
	if len(filter) == 0 {
		return nil, nil
	}

	conditions := make([]*qdrant.Condition, 0, len(filter))
	for _, key := range filter.Keys() {
		switch v := filter[key].(type) {
		case string:
			conditions = append(conditions, qdrant.NewMatch(key, v))
		case bool:
			conditions = append(conditions, qdrant.NewMatchBool(key, v))
		case int:
			conditions = append(conditions, qdrant.NewMatchInt(key, int64(v)))
		case int64:
			conditions = append(conditions, qdrant.NewMatchInt(key, v))
		default:
			return nil, fmt.Errorf("unsupported filter value type %T for key %q", v, key)
		}
	}

	return &qdrant.Filter{Must: conditions}, nil
}
