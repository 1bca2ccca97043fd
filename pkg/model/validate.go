package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/goliatone/go-widgettools/pkg/schema"
	"github.com/goliatone/go-widgettools/pkg/widgeterr"
)

// Validate checks args against the model and returns the validated instance.
// Every violation is reported in a single *widgeterr.ValidationError.
// Omitted optional fields take their declared default, or nil.
func (m *Model) Validate(args map[string]any) (*Instance, error) {
	if m == nil {
		return nil, errors.New("model: validate on nil model")
	}
	v := &validator{}
	values := v.object(m, args, "")
	if len(v.issues) > 0 {
		return nil, widgeterr.NewValidationError(m.Name, v.issues)
	}

	if m.constraints != nil {
		issues, err := m.constraints.Check(pruneOptionalNulls(m, args))
		if err != nil {
			return nil, errors.Wrapf(err, "model: check constraints for %s", m.Name)
		}
		if len(issues) > 0 {
			return nil, widgeterr.NewValidationError(m.Name, issues)
		}
	}
	return &Instance{model: m, values: values}, nil
}

type validator struct {
	issues []widgeterr.Issue
}

func (v *validator) fail(path, keyword, format string, args ...any) {
	v.issues = append(v.issues, widgeterr.Issue{
		Path:    path,
		Message: fmt.Sprintf(format, args...),
		Keyword: keyword,
	})
}

func (v *validator) object(m *Model, raw map[string]any, path string) map[string]any {
	out := make(map[string]any, len(m.Fields))
	for _, field := range m.Fields {
		fieldPath := join(path, field.Name)
		value, present := raw[field.Name]
		switch {
		case !present:
			if field.Required {
				v.fail(fieldPath, "required", "field required")
				continue
			}
			out[field.Name] = defaultValue(field, fieldPath)
		case value == nil:
			if field.Required && !acceptsNull(field.Type) {
				v.fail(fieldPath, "type", "expected %s, got null", field.Type)
				continue
			}
			out[field.Name] = nil
		default:
			out[field.Name] = v.value(field.Type, value, fieldPath)
		}
	}

	var extra []string
	for key := range raw {
		if _, ok := m.Field(key); !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		if m.AllowExtra {
			out[key] = cloneValue(raw[key])
			continue
		}
		v.fail(join(path, key), "additionalProperties", "extra field not permitted")
	}
	return out
}

// defaultValue returns the field's default normalized like a supplied value.
// A default that does not match its own type is returned as declared.
func defaultValue(field Field, path string) any {
	value := cloneValue(field.Default)
	if value == nil {
		return nil
	}
	scratch := &validator{}
	normalized := scratch.value(field.Type, value, path)
	if len(scratch.issues) > 0 {
		return value
	}
	return normalized
}

func (v *validator) value(t *Type, value any, path string) any {
	if t == nil {
		return cloneValue(value)
	}
	if value == nil {
		if acceptsNull(t) {
			return nil
		}
		v.fail(path, "type", "expected %s, got null", t)
		return nil
	}

	switch t.Kind {
	case schema.KindAny:
		return cloneValue(value)
	case schema.KindNull:
		v.fail(path, "type", "expected null, got %s", jsonKind(value))
	case schema.KindString:
		if s, ok := value.(string); ok {
			return s
		}
		v.fail(path, "type", "expected string, got %s", jsonKind(value))
	case schema.KindBoolean:
		if b, ok := value.(bool); ok {
			return b
		}
		v.fail(path, "type", "expected boolean, got %s", jsonKind(value))
	case schema.KindNumber:
		if f, ok := toFloat(value); ok {
			return f
		}
		v.fail(path, "type", "expected number, got %s", jsonKind(value))
	case schema.KindInteger:
		i, isNumber, integral := toInt(value)
		switch {
		case integral:
			return i
		case isNumber:
			v.fail(path, "type", "expected integer, got a number with a fractional part")
		default:
			v.fail(path, "type", "expected integer, got %s", jsonKind(value))
		}
	case schema.KindArray:
		items, ok := asSlice(value)
		if !ok {
			v.fail(path, "type", "expected array, got %s", jsonKind(value))
			return nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = v.value(t.Elem, item, join(path, strconv.Itoa(i)))
		}
		return out
	case schema.KindObject:
		obj, ok := asMap(value)
		if !ok {
			v.fail(path, "type", "expected object, got %s", jsonKind(value))
			return nil
		}
		if t.Model == nil {
			return cloneValue(obj)
		}
		return v.object(t.Model, obj, path)
	case schema.KindEnum:
		for _, allowed := range t.Values {
			if equalValues(allowed, value) {
				return cloneValue(allowed)
			}
		}
		v.fail(path, "enum", "value must be one of %s", joinLiterals(t.Values))
	case schema.KindConst:
		if len(t.Values) == 1 && equalValues(t.Values[0], value) {
			return cloneValue(t.Values[0])
		}
		v.fail(path, "const", "value must be %s", joinLiterals(t.Values))
	case schema.KindUnion:
		for _, variant := range t.Variants {
			scratch := &validator{}
			out := scratch.value(variant, value, path)
			if len(scratch.issues) == 0 {
				return out
			}
		}
		v.fail(path, "anyOf", "value does not match any of %s", t)
	default:
		v.fail(path, "type", "unsupported schema kind %q", t.Kind)
	}
	return nil
}

func acceptsNull(t *Type) bool {
	if t == nil || t.Nullable || t.Kind == schema.KindAny || t.Kind == schema.KindNull {
		return true
	}
	for _, allowed := range t.Values {
		if allowed == nil {
			return true
		}
	}
	return false
}

func joinLiterals(values []any) string {
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = literal(value)
	}
	return strings.Join(parts, ", ")
}

func join(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

// pruneOptionalNulls drops explicit nulls on optional fields, which the
// structural pass treats as omitted, before keyword checks see the input.
func pruneOptionalNulls(m *Model, raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for key, value := range raw {
		field, ok := m.Field(key)
		if !ok {
			out[key] = value
			continue
		}
		if value == nil && !field.Required {
			continue
		}
		out[key] = pruneValue(field.Type, value)
	}
	return out
}

func pruneValue(t *Type, value any) any {
	if t == nil || value == nil {
		return value
	}
	switch t.Kind {
	case schema.KindObject:
		if obj, ok := asMap(value); ok && t.Model != nil {
			return pruneOptionalNulls(t.Model, obj)
		}
	case schema.KindArray:
		if items, ok := asSlice(value); ok {
			out := make([]any, len(items))
			for i, item := range items {
				out[i] = pruneValue(t.Elem, item)
			}
			return out
		}
	}
	return value
}
