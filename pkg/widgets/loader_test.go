package widgets

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-widgettools/pkg/widgeterr"
)

func widgetJSON(t *testing.T, name string, drop ...string) []byte {
	t.Helper()
	doc := map[string]any{
		"name":    name,
		"version": "1.0",
		"jsonSchema": map[string]any{
			"type":       "object",
			"properties": map[string]any{"title": map[string]any{"type": "string"}},
			"required":   []any{"title"},
		},
		"outputJsonPreview": map[string]any{"type": "Card", "children": []any{}},
		"template":          `{"type": "Card", "children": [{"type": "Title", "value": {{ title|tojson }}}]}`,
	}
	for _, key := range drop {
		delete(doc, key)
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return raw
}

func memLoader(t *testing.T, files map[string][]byte) (*Loader, *bytes.Buffer) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/widgets", 0o755))
	for path, data := range files {
		require.NoError(t, afero.WriteFile(fsys, path, data, 0o644))
	}
	var buf bytes.Buffer
	return NewLoader(WithFs(fsys), WithLogger(log.New(&buf))), &buf
}

func TestLoadBundledWidget(t *testing.T) {
	def, err := NewLoader().Load(filepath.Join("..", "..", "widgets", "Flight Tracker.widget"))
	require.NoError(t, err)

	assert.Equal(t, "Flight Tracker", def.Name)
	assert.Equal(t, "1.0", def.Version)
	assert.Equal(t, "flight_tracker", def.ToolName())
	assert.Equal(t, "FlightTracker", def.TypeName())
	assert.Equal(t, "Card", def.OutputPreview["type"])
	assert.Contains(t, def.Template, "{{ airline.logo|tojson }}")
	assert.True(t, json.Valid(def.InputSchema))
	assert.Empty(t, def.EncodedWidget)
}

func TestLoadMissingFields(t *testing.T) {
	loader, _ := memLoader(t, map[string][]byte{
		"/widgets/broken.widget": widgetJSON(t, "Broken", "template", "version"),
	})

	_, err := loader.Load("/widgets/broken.widget")
	require.Error(t, err)
	assert.True(t, errors.Is(err, widgeterr.ErrValidation))
	assert.Equal(t, "Widget file /widgets/broken.widget missing required fields: version, template", err.Error())

	var verr *widgeterr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"version", "template"}, verr.Paths())
}

func TestLoadTemplateMustBeString(t *testing.T) {
	doc := map[string]any{}
	require.NoError(t, json.Unmarshal(widgetJSON(t, "Typed"), &doc))
	doc["template"] = 42
	raw, _ := json.Marshal(doc)

	loader, _ := memLoader(t, map[string][]byte{"/widgets/typed.widget": raw})
	_, err := loader.Load("/widgets/typed.widget")
	require.Error(t, err)
	assert.True(t, errors.Is(err, widgeterr.ErrType))
	assert.Contains(t, err.Error(), "Widget template must be a string")

	doc["template"] = nil
	raw, _ = json.Marshal(doc)
	require.NoError(t, afero.WriteFile(loader.fs, "/widgets/typed.widget", raw, 0o644))
	_, err = loader.Load("/widgets/typed.widget")
	assert.True(t, errors.Is(err, widgeterr.ErrType))
}

func TestLoadParseAndStructureErrors(t *testing.T) {
	doc := map[string]any{}
	require.NoError(t, json.Unmarshal(widgetJSON(t, "Shape"), &doc))
	doc["jsonSchema"] = "not an object"
	doc["encodedWidget"] = 7
	shape, _ := json.Marshal(doc)

	loader, _ := memLoader(t, map[string][]byte{
		"/widgets/syntax.widget": []byte(`{"name": "Syntax",`),
		"/widgets/array.widget":  []byte(`[]`),
		"/widgets/shape.widget":  shape,
	})

	_, err := loader.Load("/widgets/syntax.widget")
	assert.True(t, errors.Is(err, widgeterr.ErrParse))

	_, err = loader.Load("/widgets/array.widget")
	assert.True(t, errors.Is(err, widgeterr.ErrParse))

	_, err = loader.Load("/widgets/shape.widget")
	require.Error(t, err)
	var verr *widgeterr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, []string{"jsonSchema", "encodedWidget"}, verr.Paths())
	assert.Contains(t, err.Error(), "is invalid")

	_, err = loader.Load("/widgets/missing.widget")
	require.Error(t, err)
	assert.Equal(t, widgeterr.KindUnknown, widgeterr.KindOf(err))
}

func TestDiscoverEmptyDirectoryWarns(t *testing.T) {
	loader, buf := memLoader(t, map[string][]byte{"/widgets/readme.md": []byte("# nothing")})

	defs, err := loader.Discover("/widgets")
	require.NoError(t, err)
	assert.NotNil(t, defs)
	assert.Empty(t, defs)
	assert.Contains(t, buf.String(), "No widget definitions found in /widgets")
}

func TestDiscoverConfigErrors(t *testing.T) {
	loader, _ := memLoader(t, map[string][]byte{"/widgets/file.txt": []byte("x")})

	tests := map[string]string{
		"":                  "widgets_dir argument is required",
		"/nope":             "Widgets directory does not exist: /nope",
		"/widgets/file.txt": "Widgets directory is not a directory: /widgets/file.txt",
	}
	for dir, msg := range tests {
		_, err := loader.Discover(dir)
		require.Error(t, err, dir)
		assert.True(t, errors.Is(err, widgeterr.ErrConfig), dir)
		assert.Equal(t, widgeterr.KindConfig, widgeterr.KindOf(err))
		assert.Contains(t, err.Error(), msg)
	}
}

func TestDiscoverSortedAndRecursive(t *testing.T) {
	loader, _ := memLoader(t, map[string][]byte{
		"/widgets/b.widget":        widgetJSON(t, "Bravo"),
		"/widgets/a.widget":        widgetJSON(t, "Alpha"),
		"/widgets/nested/c.widget": widgetJSON(t, "Charlie"),
		"/widgets/notes.json":      []byte(`{}`),
	})

	defs, err := loader.Discover("/widgets")
	require.NoError(t, err)
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, names)
	assert.Equal(t, "/widgets/nested/c.widget", defs[2].SourcePath)
}

func TestDiscoverFailsFastOnBrokenWidget(t *testing.T) {
	loader, _ := memLoader(t, map[string][]byte{
		"/widgets/a.widget": widgetJSON(t, "Alpha"),
		"/widgets/b.widget": widgetJSON(t, "Bravo", "template"),
	})

	defs, err := loader.Discover("/widgets")
	require.Error(t, err)
	assert.Nil(t, defs)
	assert.True(t, errors.Is(err, widgeterr.ErrValidation))
	assert.Contains(t, err.Error(), "missing required fields")
}

func TestDiscoverSkipsUnresolvablePaths(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/widgets/a.widget", widgetJSON(t, "Alpha"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/widgets/b.widget", widgetJSON(t, "Bravo"), 0o644))

	var buf bytes.Buffer
	loader := NewLoader(WithFs(fsys), WithLogger(log.New(&buf)), WithPathResolver(func(path string) (string, error) {
		if filepath.Base(path) == "b.widget" {
			return "", os.ErrPermission
		}
		return filepath.Clean(path), nil
	}))

	defs, err := loader.Discover("/widgets")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "Alpha", defs[0].Name)
	assert.Contains(t, buf.String(), "cannot be resolved")
}

func TestDiscoverSymlinks(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "widgets")
	outside := filepath.Join(root, "outside")
	require.NoError(t, os.MkdirAll(base, 0o755))
	require.NoError(t, os.MkdirAll(outside, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(base, "a.widget"), widgetJSON(t, "Alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "evil.widget"), widgetJSON(t, "Evil"), 0o644))

	if err := os.Symlink(filepath.Join(outside, "evil.widget"), filepath.Join(base, "b_escape.widget")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(base, "a.widget"), filepath.Join(base, "c_alias.widget")))
	require.NoError(t, os.Symlink(filepath.Join(base, "missing.target"), filepath.Join(base, "d_broken.widget")))

	var buf bytes.Buffer
	defs, err := NewLoader(WithLogger(log.New(&buf))).Discover(base)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "Alpha", defs[0].Name)
	assert.Equal(t, filepath.Join(base, "a.widget"), defs[0].SourcePath)

	logs := buf.String()
	assert.Contains(t, logs, "outside widgets directory")
	assert.Contains(t, logs, "b_escape.widget")
	assert.Contains(t, logs, "d_broken.widget")
	assert.NotContains(t, logs, "c_alias.widget")
}

func TestDiscoverSymlinkedRoot(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "real")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "a.widget"), widgetJSON(t, "Alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(target, "nested", "b.widget"), widgetJSON(t, "Bravo"), 0o644))

	link := filepath.Join(root, "widgets")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	var buf bytes.Buffer
	defs, err := NewLoader(WithLogger(log.New(&buf))).Discover(link)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "Alpha", defs[0].Name)
	assert.Equal(t, filepath.Join(link, "a.widget"), defs[0].SourcePath)
	assert.Equal(t, "Bravo", defs[1].Name)
	assert.Equal(t, filepath.Join(link, "nested", "b.widget"), defs[1].SourcePath)
	assert.NotContains(t, buf.String(), "No widget definitions")
	assert.NotContains(t, buf.String(), "outside widgets directory")
}

func TestFindByName(t *testing.T) {
	loader, _ := memLoader(t, map[string][]byte{
		"/widgets/a.widget": widgetJSON(t, "Alpha"),
		"/widgets/b.widget": widgetJSON(t, "Bravo"),
	})

	def, err := loader.FindByName("/widgets", "Bravo")
	require.NoError(t, err)
	assert.Equal(t, "/widgets/b.widget", def.SourcePath)

	_, err = loader.FindByName("/widgets", "Zulu")
	assert.True(t, errors.Is(err, ErrWidgetNotFound))
}

func TestDefinitionAccessorsCopy(t *testing.T) {
	loader, _ := memLoader(t, map[string][]byte{"/widgets/a.widget": widgetJSON(t, "Alpha")})
	def, err := loader.Load("/widgets/a.widget")
	require.NoError(t, err)

	preview := def.Preview()
	preview["type"] = "Changed"
	assert.Equal(t, "Card", def.OutputPreview["type"])

	schema := def.Schema()
	schema[0] = ' '
	assert.Equal(t, byte('{'), def.InputSchema[0])
}

func TestFileSchemaListsRequiredFields(t *testing.T) {
	s := FileSchema()
	assert.ElementsMatch(t, requiredFields, s.Required)
	_, ok := s.Properties.Get("encodedWidget")
	assert.True(t, ok)
}
