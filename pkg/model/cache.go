package model

import (
	"encoding/json"
	"sync"

	"github.com/goliatone/go-widgettools/pkg/widgeterr"
)

// Cache memoizes compiled models keyed by normalized schema content and
// widget name. It is safe for concurrent use; each key is built at most once.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Model
	hits    int
	misses  int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Model)}
}

// Hits reports lookups served from the cache.
func (c *Cache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

// Misses reports lookups that compiled a model.
func (c *Cache) Misses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.misses
}

// Len reports the number of cached models.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Reset drops every entry and zeroes the counters.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Model)
	c.hits, c.misses = 0, 0
}

func (c *Cache) getOrCreate(key string, build func() (*Model, error)) (*Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.entries[key]; ok {
		c.hits++
		return m, nil
	}
	c.misses++
	m, err := build()
	if err != nil {
		return nil, err
	}
	if c.entries == nil {
		c.entries = make(map[string]*Model)
	}
	c.entries[key] = m
	return m, nil
}

// cacheKey re-encodes raw through a generic value so key order and
// whitespace do not matter.
func cacheKey(raw []byte, widgetName string) (string, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", widgeterr.Parse(err, "model: decode input schema for %q", widgetName)
	}
	normalized, err := json.Marshal(decoded)
	if err != nil {
		return "", widgeterr.Parse(err, "model: normalize input schema for %q", widgetName)
	}
	return widgetName + "\x00" + string(normalized), nil
}
