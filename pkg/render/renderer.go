// Package render turns validated widget input into a UI component tree by
// executing the widget template and decoding its JSON output.
package render

import (
	"bytes"
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/goliatone/go-widgettools/pkg/model"
	"github.com/goliatone/go-widgettools/pkg/render/template"
	"github.com/goliatone/go-widgettools/pkg/render/template/pongo"
	"github.com/goliatone/go-widgettools/pkg/widgeterr"
	"github.com/goliatone/go-widgettools/pkg/widgets"
)

// Renderer renders widget definitions. It is safe for concurrent use.
type Renderer struct {
	compiler  *model.Compiler
	engine    template.Engine
	templates *TemplateCache
	logger    *log.Logger
}

// New constructs a Renderer. Without options it compiles models with a
// private cache and templates with the pongo2 engine.
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{logger: log.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.compiler == nil {
		r.compiler = model.NewCompiler()
	}
	if r.engine == nil {
		engine, err := pongo.New()
		if err != nil {
			return nil, errors.Wrap(err, "render: default engine")
		}
		r.engine = engine
	}
	if r.templates == nil {
		r.templates = NewTemplateCache()
	}
	return r, nil
}

// Compiler returns the model compiler used by Render.
func (r *Renderer) Compiler() *model.Compiler {
	return r.compiler
}

// Templates returns the template cache used by Render.
func (r *Renderer) Templates() *TemplateCache {
	return r.templates
}

// Render validates args against the widget's input model and executes its
// template. Schema and validation errors are returned unchanged; template
// failures and malformed output are reported as *widgeterr.RenderError. No
// partial tree is returned on error.
func (r *Renderer) Render(def *widgets.Definition, args map[string]any) (Node, error) {
	if def == nil {
		return nil, errors.New("render: widget definition is required")
	}

	m, err := r.compiler.Compile(def.InputSchema, def.Name)
	if err != nil {
		return nil, err
	}
	inst, err := m.Validate(args)
	if err != nil {
		return nil, err
	}

	tpl, err := r.templates.Get(def.Template, r.engine)
	if err != nil {
		return nil, &widgeterr.RenderError{Widget: def.Name, Cause: err}
	}
	out, err := tpl.Execute(Flatten(inst))
	if err != nil {
		return nil, &widgeterr.RenderError{Widget: def.Name, Cause: err}
	}

	node, err := decodeNode(out)
	if err != nil {
		r.logger.Debug("widget template produced invalid output", "widget", def.Name, "output", out)
		return nil, &widgeterr.RenderError{Widget: def.Name, Cause: err}
	}
	return node, nil
}

// Flatten returns the template context for a validated instance: the plain
// field mapping plus an "undefined" key bound to nil. Integral floats are
// narrowed to int64 so templates print 30 rather than 30.000000.
func Flatten(inst *model.Instance) map[string]any {
	ctx := map[string]any{}
	if inst != nil {
		for key, value := range inst.Map() {
			ctx[key] = narrow(value)
		}
	}
	ctx["undefined"] = nil
	return ctx
}

func narrow(value any) any {
	switch v := value.(type) {
	case float64:
		if v == float64(int64(v)) {
			return int64(v)
		}
		return v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return narrow(f)
		}
		return v.String()
	case map[string]any:
		for key, item := range v {
			v[key] = narrow(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = narrow(item)
		}
		return v
	default:
		return v
	}
}

func decodeNode(out string) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(out)))
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "template output is not valid JSON")
	}
	if dec.More() {
		return nil, errors.New("template output has trailing data")
	}

	root, ok := decoded.(map[string]any)
	if !ok {
		return nil, errors.Newf("template output must be a JSON object, got %T", decoded)
	}
	if _, ok := root["type"].(string); !ok {
		return nil, errors.New(`template output root has no string "type"`)
	}
	return Node(root), nil
}
