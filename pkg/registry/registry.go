// Package registry registers synthesized widget tools with a tool host.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/goliatone/go-widgettools/pkg/render"
	"github.com/goliatone/go-widgettools/pkg/tool"
)

// ErrToolNotFound is returned when a tool name is not registered.
var ErrToolNotFound = errors.New("tool not found")

// Registry is the narrow contract a tool host exposes for registration.
// Registering a name that is already present replaces the earlier tool.
type Registry interface {
	Register(name string, t *tool.Descriptor)
}

// Set is an in-memory Registry. It is safe for concurrent use.
type Set struct {
	mu    sync.RWMutex
	tools map[string]*tool.Descriptor
}

var _ Registry = (*Set)(nil)

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{tools: make(map[string]*tool.Descriptor)}
}

// Register stores t under name, replacing any earlier entry.
func (s *Set) Register(name string, t *tool.Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[name] = t
}

// Get retrieves a tool by name.
func (s *Set) Get(name string) (*tool.Descriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tools[name]
	if !ok {
		return nil, errors.Wrapf(ErrToolNotFound, "%q", name)
	}
	return t, nil
}

// Has reports whether name is registered.
func (s *Set) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tools[name]
	return ok
}

// Names returns the registered names in sorted order.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the registered tools sorted by name.
func (s *Set) List() []*tool.Descriptor {
	names := s.Names()

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*tool.Descriptor, 0, len(names))
	for _, name := range names {
		if t, ok := s.tools[name]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of registered tools.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tools)
}

// Call invokes the named tool.
func (s *Set) Call(ctx context.Context, name string, args map[string]any) (render.Node, error) {
	t, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return t.Call(ctx, args)
}
