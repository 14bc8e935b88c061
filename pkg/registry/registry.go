// Package registry holds the per-node side tables: live instances keyed by
// (node identity, type name) and the cancellation sets for active
// subscriptions. The registry exclusively owns both; instances never outlive
// their identity entry, and host nodes are never mutated to carry engine
// state.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
)

// entry is everything the engine tracks for one node identity.
type entry struct {
	instances map[string]domain.Instance
	handles   []*domain.Handle
}

// Registry is the process-wide node side table. Insertion and removal for a
// given identity happen under one mutex hold, so reentrant calls triggered
// from event handlers never observe partial states.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NodeSnapshot is an inspection view of one identity's entry.
type NodeSnapshot struct {
	NodeID        string   `json:"node_id"`
	Types         []string `json:"types"`
	Subscriptions int      `json:"subscriptions"`
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Instance returns the memoized instance for (identity, typeName), if any.
func (r *Registry) Instance(identity, typeName string) (domain.Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[key(identity)]
	if !ok {
		return nil, false
	}
	inst, ok := e.instances[key(typeName)]
	return inst, ok
}

// Put registers an instance under (identity, typeName). The first instance
// for a pair wins; a duplicate Put is ignored so that reentrant resolution
// can never replace a live instance.
func (r *Registry) Put(identity, typeName string, inst domain.Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.ensure(key(identity))
	tk := key(typeName)
	if _, exists := e.instances[tk]; exists {
		return
	}
	e.instances[tk] = inst
}

// Drop removes a single (identity, typeName) pair, used to roll back a
// failed attach. The identity entry survives if it still holds instances or
// handles.
func (r *Registry) Drop(identity, typeName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ik := key(identity)
	e, ok := r.entries[ik]
	if !ok {
		return
	}
	delete(e.instances, key(typeName))
	if len(e.instances) == 0 && len(e.handles) == 0 {
		delete(r.entries, ik)
	}
}

// AddHandle appends a cancellation handle to the identity's set.
func (r *Registry) AddHandle(identity string, h *domain.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.ensure(key(identity))
	e.handles = append(e.handles, h)
}

// TrimHandles truncates the identity's cancellation set to its first n
// handles, discarding any appended after that point. Used to roll back
// subscriptions a failed attach allocated; the caller cancels them first.
// The identity entry is removed when neither instances nor handles survive.
func (r *Registry) TrimHandles(identity string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ik := key(identity)
	e, ok := r.entries[ik]
	if !ok {
		return
	}
	if n < 0 {
		n = 0
	}
	if n < len(e.handles) {
		e.handles = e.handles[:n]
	}
	if len(e.instances) == 0 && len(e.handles) == 0 {
		delete(r.entries, ik)
	}
}

// Handles returns a copy of the identity's cancellation set.
func (r *Registry) Handles(identity string) []*domain.Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[key(identity)]
	if !ok {
		return nil
	}
	out := make([]*domain.Handle, len(e.handles))
	copy(out, e.handles)
	return out
}

// Remove purges the identity's entire entry (instances and handles) in one
// step and reports how many instances it held. It does not cancel handles;
// the teardown pipeline cancels before purging.
func (r *Registry) Remove(identity string) (instances int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ik := key(identity)
	e, ok := r.entries[ik]
	if !ok {
		return 0
	}
	delete(r.entries, ik)
	return len(e.instances)
}

// Identities returns all identities with a live entry, sorted.
func (r *Registry) Identities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns an inspection view of the whole registry, ordered by
// identity.
func (r *Registry) Snapshot() []NodeSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]NodeSnapshot, 0, len(r.entries))
	for id, e := range r.entries {
		types := make([]string, 0, len(e.instances))
		for _, inst := range e.instances {
			types = append(types, inst.Descriptor().Name)
		}
		sort.Strings(types)
		out = append(out, NodeSnapshot{
			NodeID:        id,
			Types:         types,
			Subscriptions: len(e.handles),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

// Len returns the number of identities with a live entry.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// ensure returns the entry for an already-normalized key, creating it if
// needed. Caller must hold the write lock.
func (r *Registry) ensure(ik string) *entry {
	e, ok := r.entries[ik]
	if !ok {
		e = &entry{instances: make(map[string]domain.Instance)}
		r.entries[ik] = e
	}
	return e
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
