package model

import (
	"encoding/json"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/goliatone/go-widgettools/pkg/jsonschema"
	"github.com/goliatone/go-widgettools/pkg/naming"
	"github.com/goliatone/go-widgettools/pkg/schema"
	"github.com/goliatone/go-widgettools/pkg/widgeterr"
)

// Compiler turns widget input schemas into models.
type Compiler struct {
	cache       *Cache
	constraints bool
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithCache shares cache between compilers. Passing nil disables caching.
func WithCache(cache *Cache) Option {
	return func(c *Compiler) {
		c.cache = cache
	}
}

// WithoutConstraints skips keyword checks (pattern, bounds, formats) at
// validation time, leaving only structural validation.
func WithoutConstraints() Option {
	return func(c *Compiler) {
		c.constraints = false
	}
}

// NewCompiler returns a compiler with a private cache.
func NewCompiler(options ...Option) *Compiler {
	c := &Compiler{cache: NewCache(), constraints: true}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Cache returns the compiler's model cache, which may be nil.
func (c *Compiler) Cache() *Cache {
	return c.cache
}

// Compile builds the input model for the widget called widgetName. The root
// schema must describe an object.
func (c *Compiler) Compile(raw []byte, widgetName string) (*Model, error) {
	if c.cache == nil {
		return c.build(raw, widgetName)
	}
	key, err := cacheKey(raw, widgetName)
	if err != nil {
		return nil, err
	}
	return c.cache.getOrCreate(key, func() (*Model, error) {
		return c.build(raw, widgetName)
	})
}

func (c *Compiler) build(raw []byte, widgetName string) (*Model, error) {
	root, err := jsonschema.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "compile input model for %q", widgetName)
	}
	name := naming.ModelName(widgetName)
	if root.Kind != schema.KindObject {
		return nil, widgeterr.NewValidationError(name, []widgeterr.Issue{{
			Message: "input schema root must be an object, got " + root.String(),
			Keyword: "type",
		}})
	}

	m := buildModel(name, root)
	m.Title = naming.ArgumentsTitle(widgetName)
	m.raw = append(json.RawMessage(nil), raw...)

	if c.constraints {
		constraints, err := jsonschema.CompileConstraints(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "compile input model for %q", widgetName)
		}
		m.constraints = constraints
	}
	return m, nil
}

func buildModel(name string, node *schema.Node) *Model {
	m := &Model{
		Name:        name,
		Title:       node.Title,
		Description: node.Description,
		AllowExtra:  node.AllowsExtra(),
		node:        node,
	}
	for _, prop := range node.Properties {
		m.Fields = append(m.Fields, Field{
			Name:        prop.Name,
			Title:       prop.Schema.Title,
			Description: prop.Schema.Description,
			Type:        buildType(naming.NestedName(name, prop.Name), prop.Schema),
			Required:    node.IsRequired(prop.Name),
			Default:     prop.Schema.Default,
			HasDefault:  prop.Schema.HasDefault,
		})
	}
	return m
}

func buildType(name string, node *schema.Node) *Type {
	if node == nil {
		return &Type{Kind: schema.KindAny}
	}
	t := &Type{
		Kind:     node.Kind,
		Base:     node.Base,
		Nullable: node.Nullable,
		Format:   node.Format,
	}
	switch node.Kind {
	case schema.KindObject:
		if len(node.Properties) > 0 || node.AdditionalProperties != nil {
			t.Model = buildModel(name, node)
		}
	case schema.KindArray:
		if node.Items != nil {
			t.Elem = buildType(name+"Item", node.Items)
		}
	case schema.KindEnum, schema.KindConst:
		t.Values = append([]any(nil), node.Values...)
	case schema.KindUnion:
		for idx, variant := range node.Variants {
			t.Variants = append(t.Variants, buildType(name+"Option"+strconv.Itoa(idx+1), variant))
		}
	}
	return t
}
