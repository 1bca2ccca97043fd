// Package mcpserver exposes widget tools on a Model Context Protocol server.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/goliatone/go-widgettools/pkg/registry"
	"github.com/goliatone/go-widgettools/pkg/tool"
	"github.com/goliatone/go-widgettools/pkg/widgeterr"
)

// DefaultName is the implementation name advertised to clients.
const DefaultName = "mcp-chatkit-widget"

// DefaultVersion is the implementation version advertised to clients.
const DefaultVersion = "0.1.0"

// ErrToolNotFound is returned by CallTool for unknown tool names.
var ErrToolNotFound = errors.New("tool not found")

// Option configures a Server.
type Option func(*Server)

// WithImplementation overrides the advertised name and version.
func WithImplementation(name, version string) Option {
	return func(s *Server) {
		if name != "" {
			s.impl.Name = name
		}
		if version != "" {
			s.impl.Version = version
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server adapts an mcp.Server to the registry contract. Registered tools are
// also kept for in-process dispatch through CallTool.
type Server struct {
	impl   *mcp.Implementation
	server *mcp.Server
	logger *log.Logger

	mu       sync.RWMutex
	handlers map[string]mcp.ToolHandler
	tools    map[string]*mcp.Tool
}

var _ registry.Registry = (*Server)(nil)

// New creates a Server.
func New(options ...Option) *Server {
	s := &Server{
		impl:     &mcp.Implementation{Name: DefaultName, Version: DefaultVersion},
		logger:   log.Default(),
		handlers: make(map[string]mcp.ToolHandler),
		tools:    make(map[string]*mcp.Tool),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	s.server = mcp.NewServer(s.impl, nil)
	return s
}

// Register adds d as an MCP tool named name, replacing any earlier tool with
// the same name.
func (s *Server) Register(name string, d *tool.Descriptor) {
	t := &mcp.Tool{
		Name:        name,
		Description: d.Description,
		InputSchema: d.Schema(),
	}
	if d.Widget != nil {
		t.Title = d.Widget.Name
	}
	h := s.handler(name, d)
	s.server.AddTool(t, h)

	s.mu.Lock()
	s.handlers[name] = h
	s.tools[name] = t
	s.mu.Unlock()
}

// Tools returns the registered tools sorted by name.
func (s *Server) Tools() []*mcp.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*mcp.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CallTool invokes a registered tool in process, bypassing any transport.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	s.mu.RLock()
	h, ok := s.handlers[name]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrToolNotFound, "%q", name)
	}

	var raw json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return nil, errors.Wrap(err, "marshal tool arguments")
		}
		raw = b
	}
	return h(ctx, &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Name: name, Arguments: raw},
	})
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// Run serves over transport until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("Serving widget tools", "name", s.impl.Name, "tools", len(s.Tools()))
	return s.server.Run(ctx, transport)
}

func (s *Server) handler(name string, d *tool.Descriptor) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := decodeArguments(req)
		if err != nil {
			return errorResult(err), nil
		}
		s.logger.Debug("Calling widget tool", "tool", name, "args", len(args))

		node, err := d.Call(ctx, args)
		if err != nil {
			switch widgeterr.KindOf(err) {
			case widgeterr.KindValidation, widgeterr.KindRender, widgeterr.KindParse, widgeterr.KindType:
				s.logger.Debug("Widget tool failed", "tool", name, "kind", widgeterr.KindOf(err), "err", err)
				return errorResult(err), nil
			default:
				return nil, err
			}
		}

		text, err := json.Marshal(node)
		if err != nil {
			return nil, errors.Wrapf(err, "marshal %s result", name)
		}
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: string(text)}},
			StructuredContent: map[string]any(node),
		}, nil
	}
}

func decodeArguments(req *mcp.CallToolRequest) (map[string]any, error) {
	args := map[string]any{}
	if req == nil || req.Params == nil || len(bytes.TrimSpace(req.Params.Arguments)) == 0 {
		return args, nil
	}
	dec := json.NewDecoder(bytes.NewReader(req.Params.Arguments))
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return nil, widgeterr.Parse(err, "tool arguments must be a JSON object")
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(widgeterr.KindOf(err)) + ": " + err.Error()}},
		IsError: true,
	}
}
