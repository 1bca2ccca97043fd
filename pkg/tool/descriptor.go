// Package tool synthesizes callable tool descriptors from widget definitions.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/goliatone/go-widgettools/pkg/model"
	"github.com/goliatone/go-widgettools/pkg/render"
	"github.com/goliatone/go-widgettools/pkg/widgets"
)

// Returns is the result type every widget tool produces.
const Returns = "WidgetComponent"

// Renderer renders a widget with raw arguments.
type Renderer interface {
	Render(def *widgets.Definition, args map[string]any) (render.Node, error)
}

// Param is one keyword-only parameter of a tool.
type Param struct {
	Name        string
	Description string
	Type        *model.Type
	Required    bool
	Default     any
	HasDefault  bool
}

// TypeName returns the printable parameter type.
func (p Param) TypeName() string {
	return p.Type.String()
}

// Descriptor is a synthesized widget tool. It is immutable once built.
type Descriptor struct {
	// Name is the PascalCase tool identifier, e.g. FlightTracker.
	Name string
	// ToolName is the sanitized name the tool registers under, e.g.
	// flight_tracker.
	ToolName    string
	Description string
	Params      []Param
	Returns     string
	Model       *model.Model
	Widget      *widgets.Definition

	renderer Renderer
}

// Call renders the widget with args. Arguments are passed to the renderer
// unchanged, so validation and render errors surface as they are.
func (d *Descriptor) Call(ctx context.Context, args map[string]any) (render.Node, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if d.renderer == nil {
		return nil, errors.Newf("tool %s has no renderer", d.Name)
	}
	return d.renderer.Render(d.Widget, args)
}

// Param returns the named parameter.
func (d *Descriptor) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Signature prints the tool as a keyword-only call signature:
//
//	FlightTracker(*, number string, progress *string = null) -> WidgetComponent
func (d *Descriptor) Signature() string {
	parts := make([]string, 0, len(d.Params)+1)
	parts = append(parts, "*")
	for _, p := range d.Params {
		part := p.Name + " " + p.TypeName()
		if !p.Required {
			part += " = " + formatDefault(p.Default)
		}
		parts = append(parts, part)
	}
	return fmt.Sprintf("%s(%s) -> %s", d.Name, strings.Join(parts, ", "), d.Returns)
}

// Summary returns the first line of the description.
func (d *Descriptor) Summary() string {
	line, _, _ := strings.Cut(d.Description, "\n")
	return line
}

// Schema returns the decoded input schema, guaranteed to declare
// "type": "object".
func (d *Descriptor) Schema() map[string]any {
	out := map[string]any{}
	if d.Widget != nil {
		_ = json.Unmarshal(d.Widget.InputSchema, &out)
	}
	if out == nil {
		out = map[string]any{}
	}
	out["type"] = "object"
	return out
}

func formatDefault(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
