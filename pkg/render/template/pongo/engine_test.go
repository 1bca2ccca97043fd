package pongo

import (
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, engine *Engine, source string, data map[string]any) string {
	t.Helper()
	tpl, err := engine.Compile(source)
	require.NoError(t, err)
	out, err := tpl.Execute(data)
	require.NoError(t, err)
	return out
}

func TestEngineToJSON(t *testing.T) {
	engine, err := New()
	require.NoError(t, err)

	out := execute(t, engine, `{"title": {{ title|tojson }}, "n": {{ n|tojson }}, "missing": {{ nothing|tojson }}, "tags": {{ tags|tojson }}}`, map[string]any{
		"title":   `Q1 "roadmap" <review> & more`,
		"n":       int64(30),
		"nothing": nil,
		"tags":    []any{"a", true},
	})
	assert.Equal(t, `{"title": "Q1 \"roadmap\" <review> & more", "n": 30, "missing": null, "tags": ["a",true]}`, out)
}

func TestEngineDoesNotEscape(t *testing.T) {
	engine, err := New()
	require.NoError(t, err)

	out := execute(t, engine, `{{ value }}|{{ empty }}`, map[string]any{"value": "<b>&</b>", "empty": nil})
	assert.Equal(t, "<b>&</b>|", out)
}

func TestEngineLoopAndConditionals(t *testing.T) {
	engine, err := New()
	require.NoError(t, err)

	out := execute(t, engine, `[{% for e in events %}{% if e.isNew %}"new"{% else %}{{ e.id|tojson }}{% endif %}{% if not forloop.Last %},{% endif %}{% endfor %}]`, map[string]any{
		"events": []any{
			map[string]any{"id": "a", "isNew": false},
			map[string]any{"id": "b", "isNew": true},
			map[string]any{"id": "c", "isNew": false},
		},
	})
	assert.Equal(t, `["a","new","c"]`, out)
}

func TestEngineFilters(t *testing.T) {
	engine, err := New(WithFilter("shout", func(input any, _ any) (any, error) {
		s, _ := input.(string)
		return strings.ToUpper(s) + "!", nil
	}))
	require.NoError(t, err)

	out := execute(t, engine, `{{ a|sanitize }}|{{ b|trim }}|{{ c|lowerfirst }}|{{ d|shout }}|{{ e|sanitize_ugc }}`, map[string]any{
		"a": `<script>alert(1)</script>hello`,
		"b": "  padded  ",
		"c": "  Title",
		"d": "hey",
		"e": `<b>bold</b><script>x</script>`,
	})
	assert.Equal(t, "hello|padded|  title|HEY!|<b>bold</b>", out)
}

func TestEngineGlobalsAndIncludes(t *testing.T) {
	files := fstest.MapFS{
		"badge.tpl": {Data: []byte(`{"type": "Badge", "label": {{ label|tojson }}}`)},
	}
	engine, err := New(WithFS(files), WithGlobalData(map[string]any{"theme": "dark"}))
	require.NoError(t, err)

	out := execute(t, engine, `{"theme": {{ theme|tojson }}, "child": {% include "badge.tpl" %}}`, map[string]any{"label": "New"})
	assert.Equal(t, `{"theme": "dark", "child": {"type": "Badge", "label": "New"}}`, out)

	out = execute(t, engine, `{{ theme }}`, map[string]any{"theme": "light"})
	assert.Equal(t, "light", out)
}

func TestEngineErrors(t *testing.T) {
	engine, err := New()
	require.NoError(t, err)

	_, err = engine.Compile(`{% if %}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pongo: parse template")

	_, err = engine.Compile(`{{ value|nosuchfilter }}`)
	require.Error(t, err)
}

func TestEngineConcurrentExecute(t *testing.T) {
	engine, err := New()
	require.NoError(t, err)
	tpl, err := engine.Compile(`{{ n|tojson }}`)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			out, err := tpl.Execute(map[string]any{"n": n})
			assert.NoError(t, err)
			assert.NotEmpty(t, out)
		}(i)
	}
	wg.Wait()
}
