package render

import (
	"github.com/charmbracelet/log"

	"github.com/goliatone/go-widgettools/pkg/model"
	"github.com/goliatone/go-widgettools/pkg/render/template"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithCompiler shares a model compiler, and so its cache, with other
// components.
func WithCompiler(compiler *model.Compiler) Option {
	return func(r *Renderer) {
		r.compiler = compiler
	}
}

// WithEngine replaces the template engine.
func WithEngine(engine template.Engine) Option {
	return func(r *Renderer) {
		r.engine = engine
	}
}

// WithTemplateCache injects the compiled template cache.
func WithTemplateCache(cache *TemplateCache) Option {
	return func(r *Renderer) {
		r.templates = cache
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
