package jsonschema

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// object is a decoded JSON object that remembers key order.
type object = orderedmap.OrderedMap[string, any]

// decodeOrdered decodes raw JSON, keeping object key order at every level.
func decodeOrdered(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	switch trimmed[0] {
	case '{':
		fields := orderedmap.New[string, json.RawMessage]()
		if err := json.Unmarshal(trimmed, fields); err != nil {
			return nil, err
		}
		out := orderedmap.New[string, any]()
		for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
			value, err := decodeOrdered(pair.Value)
			if err != nil {
				return nil, err
			}
			out.Set(pair.Key, value)
		}
		return out, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		out := make([]any, 0, len(items))
		for _, item := range items {
			value, err := decodeOrdered(item)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	default:
		var scalar any
		if err := json.Unmarshal(trimmed, &scalar); err != nil {
			return nil, err
		}
		return scalar, nil
	}
}

// plain converts ordered objects back to map[string]any so values such as
// defaults and enum members compare and marshal like ordinary JSON values.
func plain(value any) any {
	switch v := value.(type) {
	case *object:
		out := make(map[string]any, v.Len())
		for pair := v.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = plain(pair.Value)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plain(item)
		}
		return out
	default:
		return v
	}
}

func readString(payload *object, key string) string {
	value, ok := payload.Get(key)
	if !ok {
		return ""
	}
	str, _ := value.(string)
	return str
}
