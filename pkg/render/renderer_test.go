package render

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-widgettools/pkg/model"
	"github.com/goliatone/go-widgettools/pkg/render/template"
	"github.com/goliatone/go-widgettools/pkg/testsupport"
	"github.com/goliatone/go-widgettools/pkg/widgeterr"
	"github.com/goliatone/go-widgettools/pkg/widgets"
)

const cardSchema = `{
	"type": "object",
	"properties": {
		"title": {"type": "string"},
		"description": {"type": "string"},
		"width": {"type": "number"}
	},
	"required": ["title"],
	"additionalProperties": false
}`

const cardTemplate = `{"type": "Card", "children": [
	{"type": "Title", "value": {{ title|tojson }}},
	{"type": "Text", "value": "{{ description }}"}
]}`

func cardWidget(tpl string) *widgets.Definition {
	return &widgets.Definition{
		Name:        "Simple Card",
		Version:     "1.0",
		InputSchema: json.RawMessage(cardSchema),
		Template:    tpl,
	}
}

func newRenderer(t *testing.T, options ...Option) *Renderer {
	t.Helper()
	r, err := New(options...)
	require.NoError(t, err)
	return r
}

func TestRenderBundledWidgetsMatchPreview(t *testing.T) {
	r := newRenderer(t)

	cases := map[string]string{
		"Create Event.widget":   "create_event.json",
		"Flight Tracker.widget": "flight_tracker.json",
	}
	for file, sample := range cases {
		t.Run(file, func(t *testing.T) {
			def := testsupport.MustLoadWidget(t, file)

			node, err := r.Render(def, testsupport.MustReadSample(t, sample))
			require.NoError(t, err)

			if diff := testsupport.CompareTree(def.Preview(), map[string]any(node)); diff != "" {
				t.Fatalf("rendered tree mismatch (-preview +rendered):\n%s", diff)
			}
			assert.Equal(t, "Card", node.Type())
		})
	}
}

func TestRenderMissingOptionalRendersEmpty(t *testing.T) {
	node, err := newRenderer(t).Render(cardWidget(cardTemplate), map[string]any{"title": "Hello"})
	require.NoError(t, err)

	children := node.Children()
	require.Len(t, children, 2)
	assert.Equal(t, "Hello", children[0]["value"])
	assert.Equal(t, "", children[1]["value"])
	assert.Equal(t, "Card with 2 children", node.Summary())
	assert.Equal(t, 3, node.Count())
}

func TestRenderCompilesTemplateOnce(t *testing.T) {
	r := newRenderer(t)
	def := cardWidget(cardTemplate)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Render(def, map[string]any{"title": "Hello"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, r.Templates().Compiles())
	assert.Equal(t, 7, r.Templates().Hits())
	assert.Equal(t, 1, r.Templates().Len())
	assert.Equal(t, 1, r.Compiler().Cache().Misses())
}

func TestRenderPropagatesValidationErrors(t *testing.T) {
	_, err := newRenderer(t).Render(cardWidget(cardTemplate), map[string]any{"description": 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, widgeterr.ErrValidation))
	assert.False(t, errors.Is(err, widgeterr.ErrRender))

	var verr *widgeterr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"title", "description"}, verr.Paths())
}

func TestRenderFailures(t *testing.T) {
	tests := map[string]string{
		"syntax":        `{% for x in %}`,
		"not json":      `{"type": "Card", {{ title }}}`,
		"not an object": `[{{ title|tojson }}]`,
		"no type":       `{"kind": {{ title|tojson }}}`,
		"trailing":      `{"type": "Card"} {"type": "Card"}`,
	}
	for name, tpl := range tests {
		t.Run(name, func(t *testing.T) {
			node, err := newRenderer(t).Render(cardWidget(tpl), map[string]any{"title": "Hello"})
			require.Error(t, err)
			assert.Nil(t, node)
			assert.True(t, errors.Is(err, widgeterr.ErrRender))

			var rerr *widgeterr.RenderError
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, "Simple Card", rerr.Widget)
			assert.Equal(t, widgeterr.KindRender, widgeterr.KindOf(err))
		})
	}
}

func TestRenderNarrowsIntegralNumbers(t *testing.T) {
	def := cardWidget(`{"type": "Box", "width": {{ width }}, "label": "{{ width }}px"}`)
	node, err := newRenderer(t).Render(def, map[string]any{"title": "x", "width": 30.0})
	require.NoError(t, err)
	assert.Equal(t, float64(30), node["width"])
	assert.Equal(t, "30px", node["label"])
}

func TestRenderWithInjectedEngine(t *testing.T) {
	var seen map[string]any
	engine := template.EngineFunc(func(source string) (template.Template, error) {
		return template.TemplateFunc(func(ctx map[string]any) (string, error) {
			seen = ctx
			return `{"type": "Stub"}`, nil
		}), nil
	})
	compiler := model.NewCompiler()
	r := newRenderer(t, WithEngine(engine), WithCompiler(compiler), WithTemplateCache(NewTemplateCache()))

	node, err := r.Render(cardWidget("ignored"), map[string]any{"title": "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "Stub", node.Type())
	assert.Same(t, compiler, r.Compiler())

	assert.Equal(t, map[string]any{
		"title":       "Hello",
		"description": nil,
		"width":       nil,
		"undefined":   nil,
	}, seen)
}

func TestRenderRequiresDefinition(t *testing.T) {
	_, err := newRenderer(t).Render(nil, nil)
	assert.Error(t, err)
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, map[string]any{"undefined": nil}, Flatten(nil))
}
