// Package widgettools turns declarative .widget files into callable tools and
// registers them with a tool registry such as an MCP server.
//
// The simplest entry point discovers a directory and registers every widget:
//
//	server := mcpserver.New()
//	tools, err := widgettools.RegisterWidgetTools(server, "./widgets")
package widgettools

import (
	"context"

	"github.com/goliatone/go-widgettools/pkg/mcpserver"
	"github.com/goliatone/go-widgettools/pkg/registry"
	"github.com/goliatone/go-widgettools/pkg/render"
	"github.com/goliatone/go-widgettools/pkg/tool"
	"github.com/goliatone/go-widgettools/pkg/widgets"
)

// Definition aliases widgets.Definition for callers of the root package.
type Definition = widgets.Definition

// Tool aliases tool.Descriptor.
type Tool = tool.Descriptor

// Node aliases render.Node, the rendered widget tree.
type Node = render.Node

// Registry aliases registry.Registry, the sink tools are registered into.
type Registry = registry.Registry

// RegisterWidgetTools discovers widgetsDir, synthesizes a tool per widget and
// registers each one with reg under its sanitized name. Nothing is registered
// when any widget fails to load or synthesize.
func RegisterWidgetTools(reg Registry, widgetsDir string, options ...registry.Option) ([]*Tool, error) {
	coordinator, err := registry.NewCoordinator(options...)
	if err != nil {
		return nil, err
	}
	return coordinator.RegisterAll(widgetsDir, reg)
}

// LoadTools registers every widget under widgetsDir into a fresh in-memory set.
func LoadTools(widgetsDir string, options ...registry.Option) (*registry.Set, error) {
	set := registry.NewSet()
	if _, err := RegisterWidgetTools(set, widgetsDir, options...); err != nil {
		return nil, err
	}
	return set, nil
}

// NewMCPServer builds an MCP server exposing every widget under widgetsDir.
func NewMCPServer(widgetsDir string, serverOptions []mcpserver.Option, options ...registry.Option) (*mcpserver.Server, error) {
	server := mcpserver.New(serverOptions...)
	if _, err := RegisterWidgetTools(server, widgetsDir, options...); err != nil {
		return nil, err
	}
	return server, nil
}

// Render loads the widget file at path and renders it with args.
func Render(ctx context.Context, path string, args map[string]any) (Node, error) {
	def, err := widgets.NewLoader().Load(path)
	if err != nil {
		return nil, err
	}
	synth, err := tool.NewSynthesizer()
	if err != nil {
		return nil, err
	}
	desc, err := synth.Synthesize(def)
	if err != nil {
		return nil, err
	}
	return desc.Call(ctx, args)
}
