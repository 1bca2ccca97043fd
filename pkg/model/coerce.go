package model

import (
	"encoding/json"
	"math"
	"reflect"
)

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// toInt reports whether v is a number and, if so, whether it is integral.
func toInt(v any) (value int64, isNumber bool, integral bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true, true
	case int8:
		return int64(n), true, true
	case int16:
		return int64(n), true, true
	case int32:
		return int64(n), true, true
	case int64:
		return n, true, true
	case uint:
		return int64(n), true, true
	case uint8:
		return int64(n), true, true
	case uint16:
		return int64(n), true, true
	case uint32:
		return int64(n), true, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, true, false
		}
		return int64(n), true, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true, true
		}
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, false, false
	}
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, true, false
	}
	return int64(f), true, true
}

// equalValues compares JSON-like values, treating numbers by value.
func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// asMap accepts map[string]any and other string-keyed maps.
func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// asSlice accepts []any and other slice or array values, excluding byte
// slices.
func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// jsonKind names the JSON type of v for error messages.
func jsonKind(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	if _, ok := asMap(v); ok {
		return "object"
	}
	if _, ok := asSlice(v); ok {
		return "array"
	}
	return reflect.TypeOf(v).String()
}

// cloneValue deep-copies maps and slices so instances never alias defaults.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	case json.Number:
		return numberValue(t)
	default:
		return v
	}
}

// numberValue converts a decoded JSON number to int64 when it is integral and
// to float64 otherwise, so values read with UseNumber match plain decoding.
func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
			return int64(f)
		}
		return f
	}
	return n.String()
}
