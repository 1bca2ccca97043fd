// Package prompt collects widget tool arguments interactively.
package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/goliatone/go-widgettools/pkg/model"
	"github.com/goliatone/go-widgettools/pkg/schema"
	"github.com/goliatone/go-widgettools/pkg/tool"
)

const skipOption = "(skip)"

// Option configures a Collector.
type Option func(*Collector)

// WithDriver replaces the terminal driver.
func WithDriver(driver Driver) Option {
	return func(c *Collector) {
		if driver != nil {
			c.driver = driver
		}
	}
}

// Collector asks for each parameter of a tool in declaration order.
type Collector struct {
	driver Driver
}

// NewCollector returns a Collector that prompts on the terminal unless a
// driver is supplied.
func NewCollector(options ...Option) *Collector {
	c := &Collector{driver: &SurveyDriver{}}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Collect prompts for the arguments of desc. Optional values left blank are
// omitted so the model default applies. Nested objects with declared fields
// are prompted field by field; other objects and arrays are entered as JSON.
func (c *Collector) Collect(ctx context.Context, desc *tool.Descriptor) (map[string]any, error) {
	if desc == nil || desc.Model == nil {
		return nil, errors.New("prompt: tool descriptor with a model is required")
	}
	if err := c.driver.Info(ctx, desc.Summary()); err != nil {
		return nil, err
	}
	return c.collectModel(ctx, desc.Model, "")
}

func (c *Collector) collectModel(ctx context.Context, m *model.Model, prefix string) (map[string]any, error) {
	out := make(map[string]any, len(m.Fields))
	for _, f := range m.Fields {
		value, ok, err := c.collectField(ctx, f, prefix+f.Name)
		if err != nil {
			return nil, err
		}
		if ok {
			out[f.Name] = value
		}
	}
	return out, nil
}

func (c *Collector) collectField(ctx context.Context, f model.Field, path string) (any, bool, error) {
	t := f.Type
	if t == nil {
		return c.jsonValue(ctx, f, path)
	}
	help := helpText(f)

	switch {
	case t.Kind == schema.KindBoolean:
		def, _ := f.Default.(bool)
		v, err := c.driver.Confirm(ctx, ConfirmConfig{Message: label(f, path), Default: def, Help: help})
		return v, err == nil, err

	case (t.Kind == schema.KindEnum || t.Kind == schema.KindConst) && len(t.Values) > 0:
		options := make([]string, 0, len(t.Values)+1)
		for _, v := range t.Values {
			options = append(options, display(v))
		}
		if !f.Required {
			options = append(options, skipOption)
		}
		idx, err := c.driver.Select(ctx, SelectConfig{
			Message:      label(f, path),
			Options:      options,
			DefaultIndex: indexOf(options, display(f.Default)),
			Help:         help,
		})
		if err != nil {
			return nil, false, err
		}
		if idx < 0 || idx >= len(t.Values) {
			return nil, false, nil
		}
		return t.Values[idx], true, nil

	case t.Kind == schema.KindArray && t.Elem != nil && t.Elem.Kind == schema.KindEnum:
		options := make([]string, len(t.Elem.Values))
		for i, v := range t.Elem.Values {
			options[i] = display(v)
		}
		picked, err := c.driver.MultiSelect(ctx, SelectConfig{Message: label(f, path), Options: options, Help: help})
		if err != nil {
			return nil, false, err
		}
		values := make([]any, 0, len(picked))
		for _, idx := range picked {
			values = append(values, t.Elem.Values[idx])
		}
		return values, true, nil

	case t.Kind == schema.KindObject && t.Model != nil:
		if !f.Required {
			yes, err := c.driver.Confirm(ctx, ConfirmConfig{Message: "Provide " + path + "?", Help: help})
			if err != nil || !yes {
				return nil, false, err
			}
		}
		v, err := c.collectModel(ctx, t.Model, path+".")
		return v, err == nil, err

	case t.Kind == schema.KindString, t.Kind == schema.KindInteger, t.Kind == schema.KindNumber:
		return c.scalar(ctx, f, path, help)

	default:
		return c.jsonValue(ctx, f, path)
	}
}

func (c *Collector) scalar(ctx context.Context, f model.Field, path, help string) (any, bool, error) {
	cfg := InputConfig{
		Message: label(f, path),
		Help:    help,
		Validator: func(s string) error {
			if s == "" {
				if f.Required {
					return errors.New("a value is required")
				}
				return nil
			}
			_, err := tool.CoerceValue(f.Type, s)
			return err
		},
	}
	if f.HasDefault && f.Default != nil {
		cfg.Default = display(f.Default)
	}

	for {
		text, err := c.driver.Input(ctx, cfg)
		if err != nil {
			return nil, false, err
		}
		if text == "" && !f.Required {
			return nil, false, nil
		}
		if err := cfg.Validator(text); err != nil {
			if infoErr := c.driver.Info(ctx, path+": "+err.Error()); infoErr != nil {
				return nil, false, infoErr
			}
			continue
		}
		v, err := tool.CoerceValue(f.Type, text)
		return v, err == nil, err
	}
}

func (c *Collector) jsonValue(ctx context.Context, f model.Field, path string) (any, bool, error) {
	cfg := TextAreaConfig{Message: label(f, path) + " (JSON)", Help: helpText(f)}
	if f.HasDefault && f.Default != nil {
		if raw, err := json.Marshal(f.Default); err == nil {
			cfg.Default = string(raw)
		}
	}
	for {
		text, err := c.driver.TextArea(ctx, cfg)
		if err != nil {
			return nil, false, err
		}
		text = strings.TrimSpace(text)
		if text == "" && !f.Required {
			return nil, false, nil
		}
		var v any
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			if infoErr := c.driver.Info(ctx, path+": enter valid JSON"); infoErr != nil {
				return nil, false, infoErr
			}
			continue
		}
		return v, true, nil
	}
}

func label(f model.Field, path string) string {
	if f.Required {
		return path
	}
	return path + " (optional)"
}

func helpText(f model.Field) string {
	typ := f.Type.String()
	if f.Description == "" {
		return typ
	}
	return fmt.Sprintf("%s (%s)", f.Description, typ)
}

func display(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
