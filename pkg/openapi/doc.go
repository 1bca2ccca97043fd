// Package openapi describes the widget tool catalog as an OpenAPI 3 document.
// The kin-openapi model stays behind internal/openapi; callers get the
// validated document as JSON or YAML.
package openapi
