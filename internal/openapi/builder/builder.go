// Package builder assembles the kin-openapi model of the widget tool catalog.
package builder

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-widgettools/pkg/model"
	"github.com/goliatone/go-widgettools/pkg/schema"
	"github.com/goliatone/go-widgettools/pkg/tool"
)

const (
	componentName   = "WidgetComponent"
	errorName       = "ToolError"
	refPrefix       = "#/components/schemas/"
	defaultTitle    = "Widget tools"
	defaultVersion  = "1.0.0"
	toolsTag        = "widgets"
	jsonContentType = "application/json"
)

// Info is the document's info block.
type Info struct {
	Title       string
	Version     string
	Description string
}

// Build returns a validated document with one POST operation per tool.
func Build(ctx context.Context, descs []*tool.Descriptor, info Info) (*openapi3.T, error) {
	if info.Title == "" {
		info.Title = defaultTitle
	}
	if info.Version == "" {
		info.Version = defaultVersion
	}

	b := &builder{schemas: openapi3.Schemas{}}
	b.schemas[componentName] = openapi3.NewSchemaRef("", widgetComponentSchema())
	b.schemas[errorName] = openapi3.NewSchemaRef("", toolErrorSchema())

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       info.Title,
			Version:     info.Version,
			Description: info.Description,
		},
		Paths:      openapi3.NewPaths(),
		Components: &openapi3.Components{Schemas: b.schemas},
		Tags:       openapi3.Tags{{Name: toolsTag, Description: "Widget rendering tools"}},
	}

	for _, d := range descs {
		if d == nil || d.Model == nil {
			continue
		}
		doc.Paths.Set("/tools/"+d.ToolName, &openapi3.PathItem{Post: b.operation(d)})
	}

	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, errors.Wrap(err, "openapi: validate document")
	}
	return doc, nil
}

type builder struct {
	schemas openapi3.Schemas
}

func (b *builder) operation(d *tool.Descriptor) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = d.ToolName
	op.Summary = d.Summary()
	op.Description = d.Description
	op.Tags = []string{toolsTag}
	op.RequestBody = &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().
			WithRequired(true).
			WithDescription(d.Signature()).
			WithJSONSchemaRef(b.modelRef(d.Model)),
	}
	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(200, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("Rendered widget tree").
			WithJSONSchemaRef(openapi3.NewSchemaRef(refPrefix+componentName, b.schemas[componentName].Value))}),
		openapi3.WithStatus(422, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("Arguments failed validation or the widget failed to render").
			WithJSONSchemaRef(openapi3.NewSchemaRef(refPrefix+errorName, b.schemas[errorName].Value))}),
	)
	return op
}

// modelRef registers m as a component schema once and returns a reference.
func (b *builder) modelRef(m *model.Model) *openapi3.SchemaRef {
	if existing, ok := b.schemas[m.Name]; ok {
		return openapi3.NewSchemaRef(refPrefix+m.Name, existing.Value)
	}

	s := openapi3.NewObjectSchema()
	s.Title = m.Title
	s.Description = m.Description
	s.AdditionalProperties = openapi3.AdditionalProperties{Has: boolPtr(m.AllowExtra)}
	b.schemas[m.Name] = openapi3.NewSchemaRef("", s)

	for _, f := range m.Fields {
		prop := b.typeRef(f.Type)
		if f.Description != "" || f.HasDefault {
			prop = annotate(prop, f)
		}
		s.Properties[f.Name] = prop
		if f.Required {
			s.Required = append(s.Required, f.Name)
		}
	}
	return openapi3.NewSchemaRef(refPrefix+m.Name, s)
}

func (b *builder) typeRef(t *model.Type) *openapi3.SchemaRef {
	if t == nil {
		return openapi3.NewSchemaRef("", &openapi3.Schema{})
	}

	var s *openapi3.Schema
	switch t.Kind {
	case schema.KindString:
		s = openapi3.NewStringSchema()
	case schema.KindNumber:
		s = &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeNumber}}
	case schema.KindInteger:
		s = &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeInteger}}
	case schema.KindBoolean:
		s = openapi3.NewBoolSchema()
	case schema.KindNull:
		s = &openapi3.Schema{Nullable: true}
	case schema.KindArray:
		s = openapi3.NewArraySchema()
		s.Items = b.typeRef(t.Elem)
	case schema.KindObject:
		if t.Model != nil {
			ref := b.modelRef(t.Model)
			if !t.Nullable {
				return ref
			}
			return openapi3.NewSchemaRef("", &openapi3.Schema{Nullable: true, AllOf: openapi3.SchemaRefs{ref}})
		}
		s = openapi3.NewObjectSchema()
		s.AdditionalProperties = openapi3.AdditionalProperties{Has: boolPtr(true)}
	case schema.KindEnum, schema.KindConst:
		s = &openapi3.Schema{Enum: append([]any(nil), t.Values...)}
		if typ := baseType(t.Base); typ != "" {
			s.Type = &openapi3.Types{typ}
		}
	case schema.KindUnion:
		s = &openapi3.Schema{}
		for _, v := range t.Variants {
			s.AnyOf = append(s.AnyOf, b.typeRef(v))
		}
	default:
		s = &openapi3.Schema{}
	}
	if t.Format != "" && s.Type != nil && s.Type.Is(openapi3.TypeString) {
		s.Format = t.Format
	}
	if t.Nullable {
		s.Nullable = true
	}
	return openapi3.NewSchemaRef("", s)
}

// annotate attaches field level documentation. Component references are
// wrapped so the shared component stays untouched.
func annotate(ref *openapi3.SchemaRef, f model.Field) *openapi3.SchemaRef {
	var s *openapi3.Schema
	if ref.Ref != "" {
		s = &openapi3.Schema{AllOf: openapi3.SchemaRefs{ref}}
	} else {
		s = ref.Value
	}
	s.Description = f.Description
	if f.HasDefault {
		s.Default = f.Default
	}
	return openapi3.NewSchemaRef("", s)
}

func baseType(kind schema.Kind) string {
	switch kind {
	case schema.KindString:
		return openapi3.TypeString
	case schema.KindNumber:
		return openapi3.TypeNumber
	case schema.KindInteger:
		return openapi3.TypeInteger
	case schema.KindBoolean:
		return openapi3.TypeBoolean
	default:
		return ""
	}
}

func widgetComponentSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	s.Description = "A UI component. Nested components are listed under children."
	s.Required = []string{"type"}
	s.AdditionalProperties = openapi3.AdditionalProperties{Has: boolPtr(true)}
	s.Properties["type"] = openapi3.NewSchemaRef("", openapi3.NewStringSchema())
	s.Properties["key"] = openapi3.NewSchemaRef("", openapi3.NewStringSchema())

	child := openapi3.NewObjectSchema()
	child.Required = []string{"type"}
	child.AdditionalProperties = openapi3.AdditionalProperties{Has: boolPtr(true)}
	children := openapi3.NewArraySchema()
	children.Items = openapi3.NewSchemaRef("", child)
	s.Properties["children"] = openapi3.NewSchemaRef("", children)
	return s
}

func toolErrorSchema() *openapi3.Schema {
	issue := openapi3.NewObjectSchema()
	issue.Required = []string{"message"}
	issue.Properties["path"] = openapi3.NewSchemaRef("", openapi3.NewStringSchema())
	issue.Properties["message"] = openapi3.NewSchemaRef("", openapi3.NewStringSchema())
	issue.Properties["keyword"] = openapi3.NewSchemaRef("", openapi3.NewStringSchema())

	issues := openapi3.NewArraySchema()
	issues.Items = openapi3.NewSchemaRef("", issue)

	s := openapi3.NewObjectSchema()
	s.Required = []string{"kind", "message"}
	s.Properties["kind"] = openapi3.NewSchemaRef("", openapi3.NewStringSchema().WithEnum(
		"ValidationError", "RenderError", "ParseError", "TypeError", "ConfigError", "Error"))
	s.Properties["message"] = openapi3.NewSchemaRef("", openapi3.NewStringSchema())
	s.Properties["issues"] = openapi3.NewSchemaRef("", issues)
	return s
}

func boolPtr(v bool) *bool {
	return &v
}
