// Package template defines the engine contract the widget renderer relies on.
// Concrete engines live in subpackages so tests can swap them out.
package template
