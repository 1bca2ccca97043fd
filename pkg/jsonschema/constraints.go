package jsonschema

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-widgettools/pkg/widgeterr"
)

const constraintsResource = "widget://input-schema.json"

// Constraints checks JSON Schema keywords (pattern, bounds, lengths, formats)
// against instance values.
type Constraints struct {
	schema *sjsonschema.Schema
}

// CompileConstraints compiles raw as a Draft 2020-12 schema unless it declares
// its own $schema.
func CompileConstraints(raw []byte) (*Constraints, error) {
	compiler := sjsonschema.NewCompiler()
	compiler.Draft = sjsonschema.Draft2020
	compiler.AssertFormat = true

	if err := compiler.AddResource(constraintsResource, bytes.NewReader(raw)); err != nil {
		return nil, widgeterr.Parse(err, "jsonschema: add constraint schema")
	}
	compiled, err := compiler.Compile(constraintsResource)
	if err != nil {
		return nil, widgeterr.Parse(err, "jsonschema: compile constraint schema")
	}
	return &Constraints{schema: compiled}, nil
}

// Check validates value and returns every leaf violation. The value is
// normalized through JSON first so Go numeric types compare as JSON numbers.
func (c *Constraints) Check(value any) ([]widgeterr.Issue, error) {
	if c == nil || c.schema == nil {
		return nil, nil
	}
	instance, err := toJSONValue(value)
	if err != nil {
		return nil, errors.Wrap(err, "jsonschema: normalize instance")
	}

	err = c.schema.Validate(instance)
	if err == nil {
		return nil, nil
	}
	var verr *sjsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, errors.Wrap(err, "jsonschema: validate instance")
	}

	var issues []widgeterr.Issue
	collectLeaves(verr, &issues)
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return issues, nil
}

func collectLeaves(verr *sjsonschema.ValidationError, out *[]widgeterr.Issue) {
	if len(verr.Causes) == 0 {
		*out = append(*out, widgeterr.Issue{
			Path:    FieldPathFromPointer(verr.InstanceLocation),
			Message: verr.Message,
			Keyword: lastSegment(verr.KeywordLocation),
		})
		return
	}
	for _, cause := range verr.Causes {
		collectLeaves(cause, out)
	}
}

// FieldPathFromPointer turns "/events/0/title" into "events.0.title".
func FieldPathFromPointer(pointer string) string {
	trimmed := strings.Trim(strings.TrimPrefix(pointer, "#"), "/")
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "/")
	for i, part := range parts {
		parts[i] = unescapeJSONPointer(part)
	}
	return strings.Join(parts, ".")
}

func lastSegment(pointer string) string {
	if idx := strings.LastIndex(pointer, "/"); idx >= 0 {
		return pointer[idx+1:]
	}
	return pointer
}

func toJSONValue(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
