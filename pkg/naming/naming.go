// Package naming derives tool and type identifiers from widget display names.
package naming

import (
	"strings"
	"unicode"
)

// SanitizeToolName converts a display name into a lowercase snake_case tool
// name. Spaces and hyphens map to underscores one for one, anything that is
// not a letter, number or underscore is dropped, and a leading numeric
// character gets an underscore prefix. The result may be empty.
func SanitizeToolName(display string) string {
	lowered := strings.ToLower(display)

	var b strings.Builder
	b.Grow(len(lowered) + 1)
	for _, r := range lowered {
		switch {
		case r == ' ' || r == '-':
			b.WriteByte('_')
		case r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		}
	}

	out := b.String()
	if out == "" {
		return out
	}
	if first := []rune(out)[0]; unicode.IsNumber(first) {
		return "_" + out
	}
	return out
}

// ToTypeName converts a snake_case name into PascalCase. Empty segments are
// ignored so repeated underscores do not add capitalization breaks.
func ToTypeName(snake string) string {
	var b strings.Builder
	for _, segment := range strings.Split(snake, "_") {
		if segment == "" {
			continue
		}
		b.WriteString(titleCase(segment))
	}
	return b.String()
}

// ModelName returns the compiled input model name for a widget.
func ModelName(display string) string {
	return ToTypeName(SanitizeToolName(display)) + "Model"
}

// ArgumentsTitle returns the human facing title of a widget's argument model.
func ArgumentsTitle(display string) string {
	return ToTypeName(SanitizeToolName(display)) + "Arguments"
}

// NestedName names a model generated for a nested field of parent.
func NestedName(parent, field string) string {
	return parent + ToTypeName(SanitizeToolName(field))
}

// titleCase upper-cases the first letter of every alphabetic run and
// lower-cases the rest, so "123widget" becomes "123Widget".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
