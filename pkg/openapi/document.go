package openapi

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-widgettools/internal/openapi/builder"
	"github.com/goliatone/go-widgettools/pkg/tool"
)

// Info is the document's info block.
type Info = builder.Info

// Document is a validated OpenAPI document.
type Document struct {
	raw   []byte
	paths []string
}

// Build describes every tool as a POST /tools/{tool_name} operation. The
// document is validated before it is returned.
func Build(ctx context.Context, descs []*tool.Descriptor, info Info) (*Document, error) {
	doc, err := builder.Build(ctx, descs, info)
	if err != nil {
		return nil, err
	}
	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "openapi: marshal document")
	}
	return &Document{raw: raw, paths: doc.Paths.InMatchingOrder()}, nil
}

// Raw returns the document as compact JSON.
func (d *Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// JSON returns the document as indented JSON.
func (d *Document) JSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, d.raw, "", "  "); err != nil {
		return nil, errors.Wrap(err, "openapi: indent document")
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// YAML returns the document as block-style YAML with key order preserved.
func (d *Document) YAML() ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(d.raw, &node); err != nil {
		return nil, errors.Wrap(err, "openapi: decode document")
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, errors.Wrap(err, "openapi: encode yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "openapi: encode yaml")
	}
	return buf.Bytes(), nil
}

// Paths returns the documented paths.
func (d *Document) Paths() []string {
	return append([]string(nil), d.paths...)
}

// Decode unmarshals the document into out.
func (d *Document) Decode(out any) error {
	return json.Unmarshal(d.raw, out)
}

// blockStyle clears the flow style JSON input leaves on every node. Quoting
// on scalars is dropped too; the encoder re-adds it where YAML needs it.
func blockStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		blockStyle(child)
	}
}
