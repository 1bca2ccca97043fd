// Package model compiles a widget's JSON Schema into a typed, validating
// input model. A Model lists its fields in source order; nested objects and
// array elements compile into their own named models so tool signatures and
// validation errors can reference them. Compiled models are cached by the
// normalized schema content plus the widget name. Validation is strict about
// unknown keys unless the object schema opens additionalProperties.
package model
