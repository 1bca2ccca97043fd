package tool

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/goliatone/go-widgettools/pkg/model"
	"github.com/goliatone/go-widgettools/pkg/render"
	"github.com/goliatone/go-widgettools/pkg/widgets"
)

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithCompiler sets the model compiler. Share it with the renderer so both
// hit the same cache.
func WithCompiler(compiler *model.Compiler) Option {
	return func(s *Synthesizer) {
		s.compiler = compiler
	}
}

// WithRenderer sets the renderer descriptors call into.
func WithRenderer(renderer Renderer) Option {
	return func(s *Synthesizer) {
		s.renderer = renderer
	}
}

// Synthesizer turns widget definitions into tool descriptors.
type Synthesizer struct {
	compiler *model.Compiler
	renderer Renderer
}

// NewSynthesizer returns a Synthesizer. Without options it builds a renderer
// sharing one model compiler with the synthesizer.
func NewSynthesizer(options ...Option) (*Synthesizer, error) {
	s := &Synthesizer{}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.compiler == nil {
		s.compiler = model.NewCompiler()
	}
	if s.renderer == nil {
		r, err := render.New(render.WithCompiler(s.compiler))
		if err != nil {
			return nil, errors.Wrap(err, "tool: build renderer")
		}
		s.renderer = r
	}
	return s, nil
}

// Compiler returns the model compiler.
func (s *Synthesizer) Compiler() *model.Compiler {
	return s.compiler
}

// Synthesize compiles the widget's input model and builds its descriptor.
// It fails only when the schema cannot be compiled.
func (s *Synthesizer) Synthesize(def *widgets.Definition) (*Descriptor, error) {
	if def == nil {
		return nil, errors.New("tool: widget definition is required")
	}
	m, err := s.compiler.Compile(def.InputSchema, def.Name)
	if err != nil {
		return nil, err
	}

	params := make([]Param, 0, len(m.Fields))
	for _, f := range m.Fields {
		p := Param{
			Name:        f.Name,
			Description: f.Description,
			Type:        f.Type,
			Required:    f.Required,
		}
		if !f.Required {
			p.Default = f.Default
			p.HasDefault = f.HasDefault
		}
		params = append(params, p)
	}

	name := def.TypeName()
	return &Descriptor{
		Name:        name,
		ToolName:    def.ToolName(),
		Description: description(def.Name),
		Params:      params,
		Returns:     Returns,
		Model:       m,
		Widget:      def,
		renderer:    s.renderer,
	}, nil
}

// SynthesizeAll synthesizes every definition, stopping at the first failure.
func (s *Synthesizer) SynthesizeAll(defs []*widgets.Definition) ([]*Descriptor, error) {
	out := make([]*Descriptor, 0, len(defs))
	for _, def := range defs {
		desc, err := s.Synthesize(def)
		if err != nil {
			return nil, err
		}
		out = append(out, desc)
	}
	return out, nil
}

func description(name string) string {
	return fmt.Sprintf("Generate a %s widget.\n\n"+
		"This tool creates a %s widget with the provided data.\n"+
		"The input must conform to the widget's JSON schema.", name, name)
}
