package store

import "sync"

// Catalog maps index names to their swap handles. Readers resolve an index
// by name once per request; builders publish rebuilt stores through Set.
type Catalog struct {
	mu      sync.RWMutex
	handles map[string]*Handle
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{handles: make(map[string]*Handle)}
}

// Get returns the handle for an index name, if published.
func (c *Catalog) Get(name string) (*Handle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.handles[name]
	return h, ok
}

// Set publishes a store under an index name, swapping the existing handle
// in place so held references keep reading the latest store. Returns the
// replaced store, if any.
func (c *Catalog) Set(name string, s Store) Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.handles[name]; ok {
		return h.Swap(s)
	}
	c.handles[name] = NewHandle(s)
	return nil
}

// Names lists published index names.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.handles))
	for name := range c.handles {
		names = append(names, name)
	}
	return names
}
