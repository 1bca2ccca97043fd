package widgets

import (
	"encoding/json"

	"github.com/goliatone/go-widgettools/pkg/naming"
)

// Definition is one widget loaded from a .widget file. It is read-only after
// loading; accessors hand out copies of mutable data.
type Definition struct {
	Name          string
	Version       string
	InputSchema   json.RawMessage
	OutputPreview map[string]any
	Template      string
	EncodedWidget string
	SourcePath    string
}

// ToolName returns the sanitized tool name the widget registers under.
func (d *Definition) ToolName() string {
	return naming.SanitizeToolName(d.Name)
}

// TypeName returns the PascalCase name of the widget's tool.
func (d *Definition) TypeName() string {
	return naming.ToTypeName(d.ToolName())
}

// Schema returns a copy of the raw input schema.
func (d *Definition) Schema() json.RawMessage {
	return append(json.RawMessage(nil), d.InputSchema...)
}

// Preview returns a deep copy of the expected output preview.
func (d *Definition) Preview() map[string]any {
	out, _ := deepCopy(d.OutputPreview).(map[string]any)
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
