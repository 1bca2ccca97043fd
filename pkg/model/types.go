package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-widgettools/pkg/jsonschema"
	"github.com/goliatone/go-widgettools/pkg/schema"
)

// Model is the compiled input model of a widget or of one of its nested
// objects.
type Model struct {
	Name        string
	Title       string
	Description string
	Fields      []Field
	// AllowExtra is true when the object schema opens additionalProperties.
	AllowExtra bool

	node        *schema.Node
	raw         json.RawMessage
	constraints *jsonschema.Constraints
}

// Field is one keyword argument of a model.
type Field struct {
	Name        string
	Title       string
	Description string
	Type        *Type
	Required    bool
	Default     any
	HasDefault  bool
}

// Type describes the accepted values of a field.
type Type struct {
	Kind schema.Kind
	// Model is set for objects that declare properties. Free-form objects
	// leave it nil and accept any mapping.
	Model *Model
	// Elem is the array element type; nil means any element.
	Elem *Type
	// Values lists allowed enum values, or the single const value.
	Values   []any
	Base     schema.Kind
	Variants []*Type
	Nullable bool
	Format   string
}

// Field returns the named field.
func (m *Model) Field(name string) (Field, bool) {
	if m == nil {
		return Field{}, false
	}
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns field names in declaration order.
func (m *Model) FieldNames() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		out[i] = f.Name
	}
	return out
}

// RequiredNames returns the names of required fields in declaration order.
func (m *Model) RequiredNames() []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, f := range m.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Schema returns the schema IR the model was built from.
func (m *Model) Schema() *schema.Node {
	if m == nil {
		return nil
	}
	return m.node
}

// RawSchema returns the source JSON Schema of a root model. Nested models
// return nil.
func (m *Model) RawSchema() json.RawMessage {
	if m == nil || len(m.raw) == 0 {
		return nil
	}
	return append(json.RawMessage(nil), m.raw...)
}

// String renders the type the way tool signatures print it.
func (t *Type) String() string {
	if t == nil {
		return "any"
	}
	var out string
	switch t.Kind {
	case schema.KindString:
		out = "string"
	case schema.KindNumber:
		out = "float64"
	case schema.KindInteger:
		out = "int64"
	case schema.KindBoolean:
		out = "bool"
	case schema.KindNull:
		return "null"
	case schema.KindArray:
		out = "[]" + t.Elem.String()
	case schema.KindObject:
		if t.Model != nil {
			out = t.Model.Name
		} else {
			out = "map[string]any"
		}
	case schema.KindEnum, schema.KindConst:
		parts := make([]string, 0, len(t.Values))
		for _, v := range t.Values {
			parts = append(parts, literal(v))
		}
		out = strings.Join(parts, "|")
	case schema.KindUnion:
		parts := make([]string, 0, len(t.Variants))
		for _, v := range t.Variants {
			parts = append(parts, v.String())
		}
		out = strings.Join(parts, "|")
	default:
		out = "any"
	}
	if t.Nullable {
		return "*" + out
	}
	return out
}

func literal(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
