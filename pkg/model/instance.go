package model

import (
	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"
)

// Instance holds validated arguments. Integers are int64, numbers float64 and
// nested objects map[string]any.
type Instance struct {
	model  *Model
	values map[string]any
}

// Model returns the model the instance was validated against.
func (i *Instance) Model() *Model {
	return i.model
}

// Get returns a top-level value.
func (i *Instance) Get(name string) (any, bool) {
	value, ok := i.values[name]
	return value, ok
}

// Map returns a deep copy of the validated values.
func (i *Instance) Map() map[string]any {
	out, _ := cloneValue(i.values).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out
}

// Decode copies the validated values into out, which must be a pointer to a
// struct or map. Struct fields are matched by their json tag.
func (i *Instance) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "model: build decoder")
	}
	if err := decoder.Decode(i.Map()); err != nil {
		return errors.Wrapf(err, "model: decode %s", i.model.Name)
	}
	return nil
}
