package tool

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cast"

	"github.com/goliatone/go-widgettools/pkg/model"
	"github.com/goliatone/go-widgettools/pkg/schema"
	"github.com/goliatone/go-widgettools/pkg/widgeterr"
)

// CoerceArgs converts string arguments, as typed on a command line or in a
// prompt, into values matching the descriptor's parameter types. Objects and
// arrays are parsed as JSON. Unknown names pass through as strings so that
// validation can report them.
func CoerceArgs(desc *Descriptor, raw map[string]string) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	var issues []widgeterr.Issue
	for name, text := range raw {
		p, ok := desc.Param(name)
		if !ok {
			out[name] = text
			continue
		}
		value, err := CoerceValue(p.Type, text)
		if err != nil {
			issues = append(issues, widgeterr.Issue{Path: name, Message: err.Error(), Keyword: "type"})
			continue
		}
		out[name] = value
	}
	if verr := widgeterr.NewValidationError(desc.Name+" arguments", sortIssues(issues)); verr != nil {
		return nil, verr
	}
	return out, nil
}

// CoerceValue converts text to a value of type t.
func CoerceValue(t *model.Type, text string) (any, error) {
	if t == nil {
		return parseLoose(text), nil
	}
	if t.Nullable && strings.TrimSpace(text) == "null" {
		return nil, nil
	}
	switch t.Kind {
	case schema.KindString:
		return text, nil
	case schema.KindInteger:
		v, err := cast.ToInt64E(strings.TrimSpace(text))
		if err != nil {
			return nil, errors.Newf("cannot parse %q as integer", text)
		}
		return v, nil
	case schema.KindNumber:
		v, err := cast.ToFloat64E(strings.TrimSpace(text))
		if err != nil {
			return nil, errors.Newf("cannot parse %q as number", text)
		}
		return v, nil
	case schema.KindBoolean:
		v, err := cast.ToBoolE(strings.TrimSpace(text))
		if err != nil {
			return nil, errors.Newf("cannot parse %q as boolean", text)
		}
		return v, nil
	case schema.KindEnum, schema.KindConst:
		for _, allowed := range t.Values {
			if cast.ToString(allowed) == text {
				return allowed, nil
			}
		}
		return parseLoose(text), nil
	case schema.KindArray, schema.KindObject:
		var v any
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return nil, errors.Newf("cannot parse %q as JSON", text)
		}
		return v, nil
	default:
		return parseLoose(text), nil
	}
}

// parseLoose returns the JSON value text encodes, or text itself.
func parseLoose(text string) any {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v
	}
	return text
}

func sortIssues(issues []widgeterr.Issue) []widgeterr.Issue {
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return issues
}
