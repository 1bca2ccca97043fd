package render

import (
	"sync"

	"github.com/goliatone/go-widgettools/pkg/render/template"
)

// TemplateCache holds compiled templates keyed by source text. Each distinct
// source is compiled at most once, including under concurrent access.
type TemplateCache struct {
	mu        sync.Mutex
	templates map[string]template.Template
	compiles  int
	hits      int
}

// NewTemplateCache returns an empty cache.
func NewTemplateCache() *TemplateCache {
	return &TemplateCache{templates: make(map[string]template.Template)}
}

// Get returns the compiled template for source, compiling it with engine on
// first use. Failed compilations are not cached.
func (c *TemplateCache) Get(source string, engine template.Engine) (template.Template, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tpl, ok := c.templates[source]; ok {
		c.hits++
		return tpl, nil
	}
	tpl, err := engine.Compile(source)
	if err != nil {
		return nil, err
	}
	c.compiles++
	c.templates[source] = tpl
	return tpl, nil
}

// Compiles reports how many sources have been compiled.
func (c *TemplateCache) Compiles() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compiles
}

// Hits reports how many lookups were served from the cache.
func (c *TemplateCache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

// Len reports the number of cached templates.
func (c *TemplateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.templates)
}
