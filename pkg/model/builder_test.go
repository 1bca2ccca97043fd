package model

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-widgettools/pkg/schema"
	"github.com/goliatone/go-widgettools/pkg/widgeterr"
)

const flightSchema = `{
	"type": "object",
	"properties": {
		"number": {"type": "string"},
		"date": {"type": "string"},
		"progress": {"type": "string", "description": "Percent of the route flown"},
		"airline": {
			"type": "object",
			"properties": {"name": {"type": "string"}, "logo": {"type": "string"}},
			"required": ["name", "logo"],
			"additionalProperties": false
		},
		"seats": {"type": "integer", "minimum": 0, "default": 180},
		"cabin": {"type": "string", "enum": ["economy", "business"]},
		"tags": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["number", "date", "airline"],
	"additionalProperties": false
}`

func TestCompileFieldContract(t *testing.T) {
	schemas := []string{
		flightSchema,
		`{"type": "object", "properties": {}}`,
		`{"type": "object", "properties": {"a": {"type": "string"}, "b": {}}, "required": ["b"]}`,
		`{"properties": {"x": {"type": ["number", "null"]}, "y": {"const": 3}}, "required": ["x", "y"]}`,
	}
	for idx, raw := range schemas {
		m, err := NewCompiler().Compile([]byte(raw), "Contract")
		require.NoError(t, err, "schema %d", idx)

		var doc struct {
			Properties map[string]json.RawMessage `json:"properties"`
			Required   []string                   `json:"required"`
		}
		require.NoError(t, json.Unmarshal([]byte(raw), &doc))

		want := make([]string, 0, len(doc.Properties))
		for key := range doc.Properties {
			want = append(want, key)
		}
		got := m.FieldNames()
		sort.Strings(want)
		sort.Strings(got)
		if len(want) == 0 {
			assert.Empty(t, got)
		} else {
			assert.Equal(t, want, got, "schema %d", idx)
		}

		required := map[string]bool{}
		for _, name := range doc.Required {
			required[name] = true
		}
		for _, f := range m.Fields {
			assert.Equal(t, required[f.Name], f.Required, "schema %d field %s", idx, f.Name)
		}
	}
}

func TestCompileNamesAndTypes(t *testing.T) {
	m, err := NewCompiler().Compile([]byte(flightSchema), "Flight Tracker")
	require.NoError(t, err)

	assert.Equal(t, "FlightTrackerModel", m.Name)
	assert.Equal(t, "FlightTrackerArguments", m.Title)
	assert.Equal(t, []string{"number", "date", "progress", "airline", "seats", "cabin", "tags"}, m.FieldNames())
	assert.Equal(t, []string{"number", "date", "airline"}, m.RequiredNames())

	airline, ok := m.Field("airline")
	require.True(t, ok)
	require.NotNil(t, airline.Type.Model)
	assert.Equal(t, "FlightTrackerModelAirline", airline.Type.Model.Name)
	assert.Equal(t, "FlightTrackerModelAirline", airline.Type.String())

	progress, _ := m.Field("progress")
	assert.Equal(t, "Percent of the route flown", progress.Description)
	assert.False(t, progress.HasDefault)

	seats, _ := m.Field("seats")
	assert.Equal(t, "int64", seats.Type.String())
	assert.True(t, seats.HasDefault)
	assert.Equal(t, float64(180), seats.Default)

	cabin, _ := m.Field("cabin")
	assert.Equal(t, schema.KindEnum, cabin.Type.Kind)
	assert.Equal(t, `"economy"|"business"`, cabin.Type.String())

	tags, _ := m.Field("tags")
	assert.Equal(t, "[]string", tags.Type.String())
	assert.NotEmpty(t, m.RawSchema())
}

func TestCompileArrayOfObjects(t *testing.T) {
	m, err := NewCompiler().Compile([]byte(`{
		"type": "object",
		"properties": {
			"events": {"type": "array", "items": {"type": "object", "properties": {"id": {"type": "string"}}}},
			"loose": {"type": "array"}
		}
	}`), "Create Event")
	require.NoError(t, err)

	events, _ := m.Field("events")
	require.NotNil(t, events.Type.Elem)
	assert.Equal(t, "CreateEventModelEventsItem", events.Type.Elem.Model.Name)
	assert.Equal(t, "[]CreateEventModelEventsItem", events.Type.String())

	loose, _ := m.Field("loose")
	assert.Nil(t, loose.Type.Elem)
	assert.Equal(t, "[]any", loose.Type.String())
}

func TestCompileRejectsNonObjectRoot(t *testing.T) {
	_, err := NewCompiler().Compile([]byte(`{"type": "string"}`), "Broken")
	require.Error(t, err)
	assert.True(t, errors.Is(err, widgeterr.ErrValidation))

	_, err = NewCompiler().Compile([]byte(`{"type": `), "Broken")
	require.Error(t, err)
	assert.True(t, errors.Is(err, widgeterr.ErrParse))
}

func TestCompilerCache(t *testing.T) {
	cache := NewCache()
	compiler := NewCompiler(WithCache(cache))

	first, err := compiler.Compile([]byte(`{"type":"object","properties":{"a":{"type":"string"},"b":{"type":"integer"}}}`), "Cached")
	require.NoError(t, err)
	reordered := `{
		"properties": {"b": {"type": "integer"}, "a": {"type": "string"}},
		"type": "object"
	}`
	second, err := compiler.Compile([]byte(reordered), "Cached")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Misses())
	assert.Equal(t, 1, cache.Hits())

	other, err := compiler.Compile([]byte(reordered), "Other")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, cache.Misses())
	assert.Equal(t, 2, cache.Len())

	cache.Reset()
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, 0, cache.Hits())
}

func TestCompilerWithoutCache(t *testing.T) {
	compiler := NewCompiler(WithCache(nil))
	assert.Nil(t, compiler.Cache())

	a, err := compiler.Compile([]byte(flightSchema), "Flight Tracker")
	require.NoError(t, err)
	b, err := compiler.Compile([]byte(flightSchema), "Flight Tracker")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, a.FieldNames(), b.FieldNames())
}
