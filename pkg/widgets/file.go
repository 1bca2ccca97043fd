package widgets

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/goliatone/go-widgettools/pkg/widgeterr"
)

// File is the on-disk layout of a .widget file.
type File struct {
	Name              string         `json:"name" jsonschema:"minLength=1,description=Display name of the widget"`
	Version           string         `json:"version" jsonschema:"description=Widget file format version"`
	JSONSchema        map[string]any `json:"jsonSchema" jsonschema:"description=JSON Schema of the widget input"`
	OutputJSONPreview map[string]any `json:"outputJsonPreview" jsonschema:"description=Expected render output for the sample input"`
	Template          string         `json:"template" jsonschema:"description=Template producing the widget tree as JSON"`
	EncodedWidget     string         `json:"encodedWidget,omitempty" jsonschema:"description=Opaque encoded widget payload"`
}

// requiredFields lists the keys every widget file must carry, in report order.
var requiredFields = []string{"name", "version", "jsonSchema", "outputJsonPreview", "template"}

// FileSchema returns the JSON Schema of the widget file format.
func FileSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(&File{})
	schema.ID = "https://github.com/goliatone/go-widgettools/widget.schema.json"
	schema.Title = "Widget definition"
	return schema
}

var fileSchemaOnce = sync.OnceValues(func() (string, error) {
	s := FileSchema()
	// gojsonschema predates 2020-12; the reflected schema only uses keywords
	// older drafts share.
	s.Version = ""
	b, err := json.Marshal(s)
	return string(b), err
})

// validateStructure checks data against FileSchema and returns every issue.
func validateStructure(data []byte) ([]widgeterr.Issue, error) {
	schema, err := fileSchemaOnce()
	if err != nil {
		return nil, err
	}
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}

	issues := make([]widgeterr.Issue, 0, len(result.Errors()))
	for _, resErr := range result.Errors() {
		path := resErr.Field()
		if path == "(root)" {
			path = ""
		}
		issues = append(issues, widgeterr.Issue{
			Path:    strings.TrimPrefix(path, "(root)."),
			Message: resErr.Description(),
			Keyword: resErr.Type(),
		})
	}
	return issues, nil
}
