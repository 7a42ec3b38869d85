// Context provides thread-safe key-value storage for the chart's extended state.
//
//go:generate go test ./... -race
package primitives

import "sync"

// Context is a thread-safe key-value store backed by sync.Map.
// The machine goroutine is the only writer; any goroutine may read.
// Snapshot/Restore iterate the map for serialization.
type Context struct {
	data sync.Map
}

// NewContext creates a new Context with an empty map.
func NewContext() *Context {
	return &Context{}
}

// Get retrieves a value by key.
func (c *Context) Get(key string) (any, bool) {
	return c.data.Load(key)
}

// GetString returns the string stored under key, or "" when absent or not a string.
func (c *Context) GetString(key string) string {
	v, ok := c.data.Load(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetFloat returns the number stored under key as float64.
// Integers are widened; anything else reads as 0.
func (c *Context) GetFloat(key string) float64 {
	v, ok := c.data.Load(key)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// Set stores a value by key.
func (c *Context) Set(key string, val any) {
	c.data.Store(key, val)
}

// Delete removes a key-value pair.
func (c *Context) Delete(key string) {
	c.data.Delete(key)
}

// Snapshot returns a serializable copy of the context data for persistence.
func (c *Context) Snapshot() map[string]any {
	snap := map[string]any{}
	c.data.Range(func(k, v any) bool {
		snap[k.(string)] = v
		return true
	})
	return snap
}

// Restore replaces the context data from a snapshot map.
func (c *Context) Restore(snap map[string]any) {
	c.data.Range(func(k, v any) bool {
		c.data.Delete(k)
		return true
	})
	for k, v := range snap {
		c.data.Store(k, v)
	}
}
