package jsonschema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-widgettools/pkg/schema"
	"github.com/goliatone/go-widgettools/pkg/widgeterr"
)

// Parse converts a JSON Schema document into the schema IR. Property order
// follows the source document. Local $ref pointers into $defs or definitions
// are inlined.
func Parse(raw []byte) (*schema.Node, error) {
	decoded, err := decodeOrdered(raw)
	if err != nil {
		return nil, widgeterr.Parse(err, "jsonschema: decode schema")
	}
	root, ok := decoded.(*object)
	if !ok {
		return nil, widgeterr.Parse(nil, "jsonschema: schema must be an object at #")
	}
	p := &parser{root: root, resolving: make(map[string]bool)}
	return p.node(root, "#")
}

type parser struct {
	root      *object
	resolving map[string]bool
}

func (p *parser) node(value any, path string) (*schema.Node, error) {
	switch v := value.(type) {
	case bool:
		if v {
			return &schema.Node{Kind: schema.KindAny}, nil
		}
		return nil, parseErr(path, "false schema is not supported")
	case *object:
		return p.object(v, path)
	case nil:
		return nil, parseErr(path, "schema is nil")
	default:
		return nil, parseErr(path, "schema must be an object")
	}
}

func (p *parser) object(payload *object, path string) (*schema.Node, error) {
	if ref := strings.TrimSpace(readString(payload, "$ref")); ref != "" {
		return p.ref(payload, ref, path)
	}

	if _, ok := payload.Get("allOf"); ok {
		return nil, parseErr(path, "allOf is not supported")
	}

	var (
		out *schema.Node
		err error
	)
	switch {
	case has(payload, "anyOf"):
		out, err = p.union(payload, "anyOf", path)
	case has(payload, "oneOf"):
		out, err = p.union(payload, "oneOf", path)
	case has(payload, "enum"):
		out, err = p.enum(payload, path)
	case has(payload, "const"):
		out, err = p.constant(payload, path)
	default:
		out, err = p.typed(payload, path)
	}
	if err != nil {
		return nil, err
	}

	applyAnnotations(out, payload)
	return out, nil
}

func (p *parser) typed(payload *object, path string) (*schema.Node, error) {
	kinds, nullable, err := readTypes(payload, path)
	if err != nil {
		return nil, err
	}

	if len(kinds) == 0 {
		switch {
		case has(payload, "properties"):
			kinds = []schema.Kind{schema.KindObject}
		case has(payload, "items"):
			kinds = []schema.Kind{schema.KindArray}
		case nullable:
			return &schema.Node{Kind: schema.KindNull}, nil
		default:
			return &schema.Node{Kind: schema.KindAny}, nil
		}
	}

	if len(kinds) == 1 {
		out, err := p.single(payload, kinds[0], path)
		if err != nil {
			return nil, err
		}
		out.Nullable = nullable
		return out, nil
	}

	out := &schema.Node{Kind: schema.KindUnion, Nullable: nullable}
	for _, kind := range kinds {
		variant, err := p.single(payload, kind, path)
		if err != nil {
			return nil, err
		}
		out.Variants = append(out.Variants, variant)
	}
	return out, nil
}

func (p *parser) single(payload *object, kind schema.Kind, path string) (*schema.Node, error) {
	out := &schema.Node{Kind: kind}
	switch kind {
	case schema.KindObject:
		if err := p.properties(out, payload, path); err != nil {
			return nil, err
		}
	case schema.KindArray:
		raw, ok := payload.Get("items")
		if !ok {
			return out, nil
		}
		switch items := raw.(type) {
		case []any:
			return nil, parseErr(path, "tuple items are not supported")
		case *object:
			if items.Len() == 0 {
				return out, nil
			}
		}
		items, err := p.node(raw, joinPath(path, "items"))
		if err != nil {
			return nil, err
		}
		if items.Kind != schema.KindAny {
			out.Items = items
		}
	}
	return out, nil
}

func (p *parser) properties(out *schema.Node, payload *object, path string) error {
	if raw, ok := payload.Get("properties"); ok {
		props, ok := raw.(*object)
		if !ok {
			return parseErr(path, "properties must be an object")
		}
		for pair := props.Oldest(); pair != nil; pair = pair.Next() {
			child, err := p.node(pair.Value, joinPath(path, "properties", pair.Key))
			if err != nil {
				return err
			}
			out.Properties = append(out.Properties, schema.Property{Name: pair.Key, Schema: child})
		}
	}

	if raw, ok := payload.Get("required"); ok {
		list, ok := raw.([]any)
		if !ok {
			return parseErr(path, "required must be an array")
		}
		for idx, item := range list {
			name, ok := item.(string)
			if !ok || strings.TrimSpace(name) == "" {
				return parseErr(path, fmt.Sprintf("required[%d] must be a string", idx))
			}
			out.Required = append(out.Required, name)
		}
	}

	if raw, ok := payload.Get("additionalProperties"); ok {
		allowed := true
		switch v := raw.(type) {
		case bool:
			allowed = v
		case *object:
			if _, err := p.node(v, joinPath(path, "additionalProperties")); err != nil {
				return err
			}
		default:
			return parseErr(path, "additionalProperties must be a boolean or schema")
		}
		out.AdditionalProperties = &allowed
	}
	return nil
}

func (p *parser) union(payload *object, keyword, path string) (*schema.Node, error) {
	raw, _ := payload.Get(keyword)
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, parseErr(path, keyword+" must be a non-empty array")
	}

	out := &schema.Node{Kind: schema.KindUnion}
	for idx, entry := range list {
		variant, err := p.node(entry, joinPath(path, keyword, strconv.Itoa(idx)))
		if err != nil {
			return nil, err
		}
		if variant.Kind == schema.KindNull {
			out.Nullable = true
			continue
		}
		out.Variants = append(out.Variants, variant)
	}

	switch len(out.Variants) {
	case 0:
		return &schema.Node{Kind: schema.KindNull}, nil
	case 1:
		// Optional[X] shape: a single real variant plus null.
		single := out.Variants[0]
		single.Nullable = single.Nullable || out.Nullable
		return single, nil
	}
	return out, nil
}

func (p *parser) enum(payload *object, path string) (*schema.Node, error) {
	raw, _ := payload.Get("enum")
	list, ok := raw.([]any)
	if !ok {
		return nil, parseErr(path, "enum must be an array")
	}
	if len(list) == 0 {
		return nil, parseErr(path, "enum must include at least one value")
	}
	kinds, nullable, err := readTypes(payload, path)
	if err != nil {
		return nil, err
	}
	out := &schema.Node{Kind: schema.KindEnum, Nullable: nullable}
	if len(kinds) == 1 {
		out.Base = kinds[0]
	}
	for _, value := range list {
		if value == nil {
			out.Nullable = true
			continue
		}
		out.Values = append(out.Values, plain(value))
	}
	return out, nil
}

func (p *parser) constant(payload *object, path string) (*schema.Node, error) {
	raw, _ := payload.Get("const")
	kinds, nullable, err := readTypes(payload, path)
	if err != nil {
		return nil, err
	}
	out := &schema.Node{Kind: schema.KindConst, Nullable: nullable, Values: []any{plain(raw)}}
	if len(kinds) == 1 {
		out.Base = kinds[0]
	}
	return out, nil
}

func (p *parser) ref(payload *object, ref, path string) (*schema.Node, error) {
	if !strings.HasPrefix(ref, "#") {
		return nil, parseErr(path, fmt.Sprintf("unresolved $ref %q", ref))
	}
	if p.resolving[ref] {
		return nil, parseErr(path, fmt.Sprintf("recursive $ref %q is not supported", ref))
	}

	target, err := p.resolvePointer(ref)
	if err != nil {
		return nil, parseErr(path, err.Error())
	}

	p.resolving[ref] = true
	defer delete(p.resolving, ref)

	out, err := p.node(target, ref)
	if err != nil {
		return nil, err
	}
	resolved := *out
	applyAnnotations(&resolved, payload)
	return &resolved, nil
}

func (p *parser) resolvePointer(ref string) (any, error) {
	pointer := strings.TrimPrefix(ref, "#")
	if pointer == "" {
		return p.root, nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, fmt.Errorf("unsupported $ref %q", ref)
	}

	var current any = p.root
	for _, segment := range strings.Split(pointer[1:], "/") {
		segment = unescapeJSONPointer(segment)
		switch node := current.(type) {
		case *object:
			next, ok := node.Get(segment)
			if !ok {
				return nil, fmt.Errorf("$ref %q not found", ref)
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("$ref %q not found", ref)
			}
			current = node[idx]
		default:
			return nil, fmt.Errorf("$ref %q not found", ref)
		}
	}
	return current, nil
}

func readTypes(payload *object, path string) ([]schema.Kind, bool, error) {
	raw, ok := payload.Get("type")
	if !ok {
		return nil, false, nil
	}

	var names []string
	switch v := raw.(type) {
	case string:
		names = []string{v}
	case []any:
		for idx, item := range v {
			name, ok := item.(string)
			if !ok {
				return nil, false, parseErr(path, fmt.Sprintf("type[%d] must be a string", idx))
			}
			names = append(names, name)
		}
	default:
		return nil, false, parseErr(path, "type must be a string or array")
	}

	var (
		kinds    []schema.Kind
		nullable bool
	)
	for _, name := range names {
		kind, ok := kindFromType(strings.TrimSpace(name))
		if !ok {
			return nil, false, parseErr(path, fmt.Sprintf("unsupported type %q", name))
		}
		if kind == schema.KindNull {
			nullable = true
			continue
		}
		kinds = append(kinds, kind)
	}
	return kinds, nullable, nil
}

func kindFromType(name string) (schema.Kind, bool) {
	switch name {
	case "string":
		return schema.KindString, true
	case "number":
		return schema.KindNumber, true
	case "integer":
		return schema.KindInteger, true
	case "boolean":
		return schema.KindBoolean, true
	case "array":
		return schema.KindArray, true
	case "object":
		return schema.KindObject, true
	case "null":
		return schema.KindNull, true
	default:
		return "", false
	}
}

func applyAnnotations(out *schema.Node, payload *object) {
	if title := strings.TrimSpace(readString(payload, "title")); title != "" {
		out.Title = title
	}
	if desc := strings.TrimSpace(readString(payload, "description")); desc != "" {
		out.Description = desc
	}
	if format := strings.TrimSpace(readString(payload, "format")); format != "" {
		out.Format = format
	}
	if def, ok := payload.Get("default"); ok {
		out.Default = plain(def)
		out.HasDefault = true
	}
}

func has(payload *object, key string) bool {
	_, ok := payload.Get(key)
	return ok
}

func parseErr(path, msg string) error {
	return widgeterr.Parse(nil, "jsonschema: %s at %s", msg, path)
}

func joinPath(path string, segments ...string) string {
	if path == "" {
		path = "#"
	}
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		path = path + "/" + escapeJSONPointer(segment)
	}
	return path
}

func escapeJSONPointer(value string) string {
	replacer := strings.NewReplacer("~", "~0", "/", "~1")
	return replacer.Replace(value)
}

func unescapeJSONPointer(value string) string {
	replacer := strings.NewReplacer("~1", "/", "~0", "~")
	return replacer.Replace(value)
}
