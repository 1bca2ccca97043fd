package pongo

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

var (
	defaultFiltersOnce sync.Once
	strictPolicy       = bluemonday.StrictPolicy()
	ugcPolicy          = bluemonday.UGCPolicy()
)

func registerDefaultFilters() {
	defaultFiltersOnce.Do(func() {
		filters := map[string]pongo2.FilterFunction{
			"tojson":       filterToJSON,
			"sanitize":     filterSanitize(strictPolicy),
			"sanitize_ugc": filterSanitize(ugcPolicy),
			"trim":         filterTrim,
			"lowerfirst":   filterLowerFirst,
		}
		for name, fn := range filters {
			if !pongo2.FilterExists(name) {
				_ = pongo2.RegisterFilter(name, fn)
			}
		}
	})
}

// filterToJSON encodes the input as a JSON literal. HTML characters are left
// alone; the output is a JSON document, not markup.
func filterToJSON(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(in.Interface()); err != nil {
		return nil, &pongo2.Error{Sender: "filter:tojson", OrigError: err}
	}
	return pongo2.AsSafeValue(strings.TrimSuffix(buf.String(), "\n")), nil
}

func filterSanitize(policy *bluemonday.Policy) pongo2.FilterFunction {
	return func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		if in.IsNil() {
			return pongo2.AsValue(""), nil
		}
		return pongo2.AsValue(policy.Sanitize(in.String())), nil
	}
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

func filterLowerFirst(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	t := in.String()
	for i, r := range t {
		if strings.ContainsRune(" \t\n\r", r) {
			continue
		}
		size := utf8.RuneLen(r)
		return pongo2.AsValue(t[:i] + strings.ToLower(string(r)) + t[i+size:]), nil
	}
	return pongo2.AsValue(t), nil
}
