package schema

import (
	"sort"
	"strings"
)

// Kind tags the variant held by a Node.
type Kind string

const (
	KindAny     Kind = "any"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindNull    Kind = "null"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindEnum    Kind = "enum"
	KindConst   Kind = "const"
	KindUnion   Kind = "union"
)

// Node is the canonical schema IR: a tagged union over the JSON Schema shapes
// a widget input may take. Only the fields relevant to Kind are populated.
type Node struct {
	Kind        Kind
	Title       string
	Description string
	Format      string

	Default    any
	HasDefault bool
	// Nullable is set when the source schema admits null alongside Kind.
	Nullable bool

	// Items is the element schema of an array. Nil means any element.
	Items *Node

	// Properties keeps source document order.
	Properties []Property
	Required   []string
	// AdditionalProperties is nil when the source is silent, which counts as
	// closed for validation purposes.
	AdditionalProperties *bool

	// Values holds the allowed values of an enum, or the single value of a const.
	Values []any
	// Base is the declared primitive type of an enum or const, if any.
	Base Kind

	Variants []*Node
}

// Property is a named member of an object node.
type Property struct {
	Name   string
	Schema *Node
}

// Property returns the named property schema.
func (n *Node) Property(name string) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	for _, prop := range n.Properties {
		if prop.Name == name {
			return prop.Schema, true
		}
	}
	return nil, false
}

// PropertyNames returns property names in source order.
func (n *Node) PropertyNames() []string {
	if n == nil || len(n.Properties) == 0 {
		return nil
	}
	out := make([]string, len(n.Properties))
	for i, prop := range n.Properties {
		out[i] = prop.Name
	}
	return out
}

// IsRequired reports whether name is listed as required.
func (n *Node) IsRequired(name string) bool {
	if n == nil {
		return false
	}
	for _, req := range n.Required {
		if req == name {
			return true
		}
	}
	return false
}

// AllowsExtra reports whether keys outside Properties are accepted.
func (n *Node) AllowsExtra() bool {
	return n != nil && n.AdditionalProperties != nil && *n.AdditionalProperties
}

// String renders a compact description of the node, e.g. "array<string>".
func (n *Node) String() string {
	if n == nil {
		return string(KindAny)
	}
	var out string
	switch n.Kind {
	case KindArray:
		out = "array<" + n.Items.String() + ">"
	case KindUnion:
		parts := make([]string, 0, len(n.Variants))
		for _, v := range n.Variants {
			parts = append(parts, v.String())
		}
		out = strings.Join(parts, "|")
	case KindObject:
		keys := n.PropertyNames()
		sorted := append([]string(nil), keys...)
		sort.Strings(sorted)
		out = "object{" + strings.Join(sorted, ",") + "}"
	default:
		out = string(n.Kind)
	}
	if n.Nullable {
		out += "?"
	}
	return out
}
