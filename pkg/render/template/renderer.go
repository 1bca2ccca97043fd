package template

// Engine compiles template sources.
type Engine interface {
	Compile(source string) (Template, error)
}

// Template is a compiled template. Implementations must be safe for
// concurrent Execute calls.
type Template interface {
	Execute(ctx map[string]any) (string, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(source string) (Template, error)

// Compile calls f(source).
func (f EngineFunc) Compile(source string) (Template, error) {
	return f(source)
}

// TemplateFunc adapts a function to the Template interface.
type TemplateFunc func(ctx map[string]any) (string, error)

// Execute calls f(ctx).
func (f TemplateFunc) Execute(ctx map[string]any) (string, error) {
	return f(ctx)
}
