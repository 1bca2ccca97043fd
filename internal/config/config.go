// Package config loads the widgettools configuration file.
//
// Precedence is defaults < file < environment < command flags; flags are
// applied by the CLI after Load returns.
package config

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
	"github.com/invopop/jsonschema"
	"github.com/spf13/afero"
	"github.com/xeipuuv/gojsonschema"

	"github.com/goliatone/go-widgettools/pkg/widgeterr"
)

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "widgettools.yaml"

// Environment variables consulted by Load.
const (
	EnvWidgetsDir = "WIDGETTOOLS_WIDGETS_DIR"
	EnvLogLevel   = "WIDGETTOOLS_LOG_LEVEL"
	EnvDuplicates = "WIDGETTOOLS_DUPLICATES"
)

// Config is the widgettools configuration.
type Config struct {
	WidgetsDir string `json:"widgets-dir,omitempty" mapstructure:"widgets-dir" jsonschema:"description=Directory scanned for widget files"`
	Pattern    string `json:"pattern,omitempty" mapstructure:"pattern" jsonschema:"description=File name glob selecting widget files"`
	Duplicates string `json:"duplicates,omitempty" mapstructure:"duplicates" jsonschema:"enum=overwrite,enum=error,description=What to do when two widgets produce the same tool name"`
	LogLevel   string `json:"log-level,omitempty" mapstructure:"log-level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,enum=fatal,description=Minimum log level"`
	Server     Server `json:"server,omitempty" mapstructure:"server" jsonschema:"description=MCP server identity"`
}

// Server identifies the MCP server to clients.
type Server struct {
	Name    string `json:"name,omitempty" mapstructure:"name" jsonschema:"minLength=1"`
	Version string `json:"version,omitempty" mapstructure:"version" jsonschema:"minLength=1"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		WidgetsDir: "widgets",
		Pattern:    "*.widget",
		Duplicates: "overwrite",
		LogLevel:   "info",
		Server: Server{
			Name:    "mcp-chatkit-widget",
			Version: "0.1.0",
		},
	}
}

// Load reads the configuration at path from fsys. An empty path falls back to
// DefaultFileName and tolerates its absence; an explicit path must exist.
func Load(fsys afero.Fs, path string) (*Config, error) {
	cfg := Default()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := afero.ReadFile(fsys, path)
	switch {
	case err == nil:
		if err := cfg.merge(data); err != nil {
			return nil, errors.Wrapf(err, "config %s", path)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case errors.Is(err, os.ErrNotExist):
		return nil, widgeterr.Configf("config file does not exist: %s", path)
	default:
		return nil, widgeterr.Configf("config file is not readable: %s: %v", path, err)
	}

	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) merge(data []byte) error {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return widgeterr.Parse(err, "parse yaml")
	}
	if raw == nil {
		return nil
	}
	if err := validate(raw); err != nil {
		return err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      c,
		ErrorUnused: true,
	})
	if err != nil {
		return errors.Wrap(err, "config decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return widgeterr.Configf("decode: %v", err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvWidgetsDir); ok && v != "" {
		c.WidgetsDir = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvDuplicates); ok && v != "" {
		c.Duplicates = v
	}
}

// Schema returns the JSON Schema of the configuration file.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	s := reflector.Reflect(&Config{})
	s.Title = "widgettools configuration"
	return s
}

var schemaOnce = sync.OnceValues(func() (string, error) {
	s := Schema()
	s.Version = ""
	b, err := json.Marshal(s)
	return string(b), err
})

func validate(raw map[string]any) error {
	schema, err := schemaOnce()
	if err != nil {
		return err
	}
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewGoLoader(raw))
	if err != nil {
		return widgeterr.Parse(err, "validate")
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, resErr := range result.Errors() {
		msgs = append(msgs, resErr.String())
	}
	return widgeterr.Configf("invalid configuration: %s", strings.Join(msgs, "; "))
}
