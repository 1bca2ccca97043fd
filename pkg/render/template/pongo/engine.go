// Package pongo implements the template engine contract with pongo2.
//
// Widget templates emit JSON, so autoescaping is disabled for every compiled
// source and values are expected to pass through the tojson filter.
package pongo

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/flosch/pongo2/v6"
	"github.com/spf13/afero"

	"github.com/goliatone/go-widgettools/pkg/render/template"
)

// FilterFunc is a template filter expressed on plain Go values.
type FilterFunc func(input any, param any) (any, error)

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	files      fs.FS
	globalData map[string]any
	filters    map[string]FilterFunc
}

// WithFS lets templates include or extend files from files.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.files = files
	}
}

// WithGlobalData seeds values visible to every template execution.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// WithFilter registers an extra filter. pongo2 filters are process wide, so a
// name that is already registered keeps its first definition.
func WithFilter(name string, fn FilterFunc) Option {
	return func(cfg *config) {
		name = strings.TrimSpace(name)
		if name == "" || fn == nil {
			return
		}
		if cfg.filters == nil {
			cfg.filters = make(map[string]FilterFunc)
		}
		cfg.filters[name] = fn
	}
}

// Engine compiles widget templates on its own pongo2 template set.
type Engine struct {
	mu  sync.RWMutex
	set *pongo2.TemplateSet
}

var _ template.Engine = (*Engine)(nil)

// New constructs an Engine.
func New(options ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.files == nil {
		cfg.files = afero.NewIOFS(afero.NewMemMapFs())
	}

	registerDefaultFilters()
	for name, fn := range cfg.filters {
		if err := registerFilter(name, fn); err != nil {
			return nil, errors.Wrapf(err, "pongo: register filter %q", name)
		}
	}

	engine := &Engine{set: pongo2.NewSet("widgettools", pongo2.NewFSLoader(cfg.files))}
	if err := engine.GlobalContext(cfg.globalData); err != nil {
		return nil, errors.Wrap(err, "pongo: apply global data")
	}
	return engine, nil
}

// Compile parses source. Parse errors carry pongo2's line information.
func (e *Engine) Compile(source string) (template.Template, error) {
	if e == nil || e.set == nil {
		return nil, errors.New("pongo: engine is nil")
	}
	e.mu.RLock()
	tpl, err := e.set.FromString("{% autoescape off %}" + source + "{% endautoescape %}")
	e.mu.RUnlock()
	if err != nil {
		return nil, errors.Wrap(err, "pongo: parse template")
	}
	return &compiled{engine: e, tpl: tpl}, nil
}

// GlobalContext merges data into the values every template sees.
func (e *Engine) GlobalContext(data map[string]any) error {
	if e == nil || e.set == nil {
		return errors.New("pongo: engine is nil")
	}
	if len(data) == 0 {
		return nil
	}
	ctx, err := convertToContext(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set.Globals == nil {
		e.set.Globals = make(pongo2.Context)
	}
	e.set.Globals.Update(ctx)
	return nil
}

type compiled struct {
	engine *Engine
	tpl    *pongo2.Template
}

func (c *compiled) Execute(data map[string]any) (string, error) {
	ctx, err := convertToContext(data)
	if err != nil {
		return "", errors.Wrap(err, "pongo: convert data")
	}

	var buf bytes.Buffer
	c.engine.mu.RLock()
	err = c.tpl.ExecuteWriter(ctx, &buf)
	c.engine.mu.RUnlock()
	if err != nil {
		return "", errors.Wrap(err, "pongo: execute template")
	}
	return buf.String(), nil
}

func convertToContext(data map[string]any) (pongo2.Context, error) {
	out := make(pongo2.Context, len(data))
	for key, value := range data {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		converted, err := convertValue(value)
		if err != nil {
			return nil, errors.Wrapf(err, "value %q", key)
		}
		out[key] = converted
	}
	return out, nil
}

// convertValue keeps plain JSON-shaped values as they are and round-trips
// anything else through encoding/json so templates only see maps, slices and
// scalars.
func convertValue(value any) (any, error) {
	switch v := value.(type) {
	case nil, string, bool, int, int64, float64:
		return v, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			converted, err := convertValue(item)
			if err != nil {
				return nil, err
			}
			out[key] = converted
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			converted, err := convertValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, err
		}
		return convertValue(decoded)
	}
}

func registerFilter(name string, fn FilterFunc) error {
	if pongo2.FilterExists(name) {
		return nil
	}
	return pongo2.RegisterFilter(name, func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	})
}
