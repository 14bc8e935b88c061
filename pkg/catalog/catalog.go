// Package catalog provides the case-insensitive name->type tables consumed
// by the attachment engine. Two independent catalogs exist per engine, one
// per capability family, so a name may legitimately exist in one and not the
// other.
package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
)

// Catalog maps type names to descriptors for one capability family.
// Safe for concurrent use.
type Catalog struct {
	capability domain.Capability

	mu    sync.RWMutex
	types map[string]*domain.Descriptor
}

// New creates an empty catalog for the given capability family.
func New(cap domain.Capability) *Catalog {
	return &Catalog{
		capability: cap,
		types:      make(map[string]*domain.Descriptor),
	}
}

// Capability returns the family this catalog serves.
func (c *Catalog) Capability() domain.Capability {
	return c.capability
}

// Register adds a descriptor under the given name. Registration is
// idempotent: the first registration wins and attaches the canonical name to
// the descriptor; a later registration under the same name (case-insensitive)
// is a silent no-op. A nil Parent defaults to the family root.
func (c *Catalog) Register(name string, desc *domain.Descriptor) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || desc == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.types[key]; exists {
		return
	}

	desc.Name = strings.TrimSpace(name)
	desc.Capability = c.capability
	if desc.Parent == nil {
		desc.Parent = domain.Root(c.capability)
	}
	c.types[key] = desc
}

// Unregister removes the entry for the name. Safe to call on a name that was
// never registered.
func (c *Catalog) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.types, strings.ToLower(strings.TrimSpace(name)))
}

// Find returns the descriptor registered under the name, reporting absence
// without failing.
func (c *Catalog) Find(name string) (*domain.Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	desc, ok := c.types[strings.ToLower(strings.TrimSpace(name))]
	return desc, ok
}

// Get returns the descriptor registered under the name, or a
// *domain.CatalogLookupError when absent. Used where absence is a caller
// error, not a normal path.
func (c *Catalog) Get(name string) (*domain.Descriptor, error) {
	desc, ok := c.Find(name)
	if !ok {
		return nil, &domain.CatalogLookupError{Capability: c.capability, Name: name}
	}
	return desc, nil
}

// Contains reports whether every given name is registered, short-circuiting
// on the first absent one.
func (c *Catalog) Contains(names ...string) bool {
	for _, name := range names {
		if _, ok := c.Find(name); !ok {
			return false
		}
	}
	return true
}

// Names returns the canonical names of all registered types, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.types))
	for _, desc := range c.types {
		names = append(names, desc.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered types.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.types)
}
