package config

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-widgettools/pkg/widgeterr"
)

func memFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for path, data := range files {
		require.NoError(t, afero.WriteFile(fsys, path, []byte(data), 0o644))
	}
	return fsys
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv(EnvWidgetsDir, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvDuplicates, "")

	cfg, err := Load(memFs(t, nil), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(memFs(t, nil), "/etc/widgettools.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, widgeterr.ErrConfig))
	assert.Contains(t, err.Error(), "config file does not exist: /etc/widgettools.yaml")
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	t.Setenv(EnvWidgetsDir, "")
	t.Setenv(EnvDuplicates, "")
	t.Setenv(EnvLogLevel, "debug")

	fsys := memFs(t, map[string]string{
		DefaultFileName: `
widgets-dir: ./custom
duplicates: error
log-level: warn
server:
  name: my-widgets
`,
	})

	cfg, err := Load(fsys, "")
	require.NoError(t, err)
	assert.Equal(t, "./custom", cfg.WidgetsDir)
	assert.Equal(t, "*.widget", cfg.Pattern)
	assert.Equal(t, "error", cfg.Duplicates)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "my-widgets", cfg.Server.Name)
	assert.Equal(t, "0.1.0", cfg.Server.Version)

	t.Setenv(EnvWidgetsDir, "/srv/widgets")
	cfg, err = Load(fsys, "")
	require.NoError(t, err)
	assert.Equal(t, "/srv/widgets", cfg.WidgetsDir)
}

func TestLoadRejectsInvalidFiles(t *testing.T) {
	cases := map[string]struct {
		body string
		kind widgeterr.Kind
		msg  string
	}{
		"unknown key": {body: "widget-dir: ./x\n", kind: widgeterr.KindConfig, msg: "invalid configuration"},
		"bad enum":    {body: "duplicates: ignore\n", kind: widgeterr.KindConfig, msg: "duplicates"},
		"wrong type":  {body: "pattern: [a, b]\n", kind: widgeterr.KindConfig, msg: "pattern"},
		"not yaml":    {body: "widgets-dir: [unterminated\n", kind: widgeterr.KindParse, msg: "parse yaml"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(memFs(t, map[string]string{"/cfg.yaml": tc.body}), "/cfg.yaml")
			require.Error(t, err)
			assert.Equal(t, tc.kind, widgeterr.KindOf(err))
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestApplyEnvIgnoresEmptyValues(t *testing.T) {
	cfg := Default()
	env := map[string]string{EnvWidgetsDir: "", EnvLogLevel: "error"}
	cfg.applyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	assert.Equal(t, "widgets", cfg.WidgetsDir)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestSchemaDescribesKeys(t *testing.T) {
	raw, err := json.Marshal(Schema())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"widgets-dir", "pattern", "duplicates", "log-level", "server"} {
		assert.Contains(t, props, key)
	}
	assert.Equal(t, false, doc["additionalProperties"])
}
