// Package widgeterr defines the error kinds surfaced by the widget tool
// pipeline. Callers classify failures with errors.Is against the sentinels or
// with KindOf when they need a printable label.
package widgeterr

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinel kinds. Concrete errors are marked with one of these so that
// errors.Is keeps working through wrapping.
var (
	ErrConfig     = errors.New("config error")
	ErrParse      = errors.New("parse error")
	ErrValidation = errors.New("validation error")
	ErrType       = errors.New("type error")
	ErrRender     = errors.New("render error")
)

// Kind is a printable error classification.
type Kind string

const (
	KindConfig     Kind = "ConfigError"
	KindParse      Kind = "ParseError"
	KindValidation Kind = "ValidationError"
	KindType       Kind = "TypeError"
	KindRender     Kind = "RenderError"
	KindUnknown    Kind = "Error"
)

// KindOf reports the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrRender):
		return KindRender
	case errors.Is(err, ErrType):
		return KindType
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrConfig):
		return KindConfig
	default:
		return KindUnknown
	}
}

// Configf builds a ConfigError.
func Configf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrConfig)
}

// Parse wraps cause as a ParseError.
func Parse(cause error, format string, args ...any) error {
	if cause == nil {
		return errors.Mark(errors.Newf(format, args...), ErrParse)
	}
	return errors.Mark(errors.Wrapf(cause, format, args...), ErrParse)
}

// Typef builds a TypeError.
func Typef(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrType)
}

// Issue is a single validation violation.
type Issue struct {
	// Path is the dotted location of the offending value ("" for the root).
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
	// Keyword names the schema rule that failed, when known.
	Keyword string `json:"keyword,omitempty"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// ValidationError enumerates every violation found while checking a subject,
// either a widget definition file or tool call arguments.
type ValidationError struct {
	Subject string
	Summary string
	Issues  []Issue
}

// NewValidationError returns a ValidationError, or nil when issues is empty.
func NewValidationError(subject string, issues []Issue) *ValidationError {
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Subject: subject, Issues: issues}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Summary != "" {
		return e.Summary
	}
	var b strings.Builder
	noun := "errors"
	if len(e.Issues) == 1 {
		noun = "error"
	}
	fmt.Fprintf(&b, "%d validation %s for %s", len(e.Issues), noun, e.Subject)
	for _, issue := range e.Issues {
		b.WriteString("\n  ")
		b.WriteString(issue.String())
	}
	return b.String()
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Paths returns the issue paths in order, without duplicates.
func (e *ValidationError) Paths() []string {
	if e == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(e.Issues))
	out := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if _, ok := seen[issue.Path]; ok {
			continue
		}
		seen[issue.Path] = struct{}{}
		out = append(out, issue.Path)
	}
	return out
}

// RenderError reports a template compile or execution failure for a widget.
type RenderError struct {
	Widget string
	Cause  error
}

func (e *RenderError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("render widget %q failed", e.Widget)
	}
	return fmt.Sprintf("render widget %q: %v", e.Widget, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrRender.
func (e *RenderError) Is(target error) bool {
	return target == ErrRender
}
