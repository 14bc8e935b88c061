// Package runtime implements the core attachment engine: declarative type
// resolution against the two capability catalogs, memoized find-or-create
// construction, subtree enhancement, and the mutation-driven teardown
// pipeline.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/catalog"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
)

// Engine is the attachment engine. It owns nothing of the host tree; all
// per-node state lives in the registry side tables. Operations are
// synchronous and run to completion; the only asynchronous boundary is the
// teardown pipeline's mutation delivery.
type Engine struct {
	behaviors  *catalog.Catalog
	components *catalog.Catalog
	registry   *registry.Registry

	journal ports.Journal
	hooks   []domain.LifecycleHooks
	logger  *slog.Logger
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithJournal enables the attachment journal.
func WithJournal(j ports.Journal) EngineOption {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithLifecycleHooks registers observability hooks. May be given more than
// once; all registered hooks fire.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = append(e.hooks, hooks)
	}
}

// NewEngine creates an engine bound to the given catalogs and registry.
func NewEngine(behaviors, components *catalog.Catalog, reg *registry.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		behaviors:  behaviors,
		components: components,
		registry:   reg,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the node registry (for inspection surfaces).
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Journal returns the configured journal, or nil.
func (e *Engine) Journal() ports.Journal {
	return e.journal
}

// Resolve returns the instance bound to (node, typeName), constructing it on
// first request. Resolution consults the node's declared bindings: the
// exclusive-interaction attribute is checked first (and wins when a name
// appears in both attributes), then the visual-behavior token list. A name
// matching neither binding, or matching a binding with no catalog entry,
// fails with *domain.TypecastError.
func (e *Engine) Resolve(ctx context.Context, node domain.Node, typeName string) (domain.Instance, error) {
	identity, err := domain.Identity(node)
	if err != nil {
		return nil, err
	}
	typeName = strings.TrimSpace(typeName)
	if typeName == "" {
		return nil, domain.NewAssertionError("type name must not be empty")
	}

	cat, err := e.catalogFor(node, identity, typeName)
	if err != nil {
		return nil, err
	}

	desc, ok := cat.Find(typeName)
	if !ok {
		return nil, &domain.TypecastError{NodeID: identity, TypeName: typeName}
	}

	if inst, ok := e.registry.Instance(identity, desc.Name); ok {
		return inst, nil
	}
	return e.attach(ctx, node, identity, desc)
}

// attach runs the construct -> validate -> apply -> initialize lifecycle and
// memoizes the instance. The registry entry is inserted before apply, so
// reentrant resolution triggered from apply or init observes the memoized
// instance instead of constructing a second one. A failed apply or init
// rolls the entry back and cancels any handles the failed attach allocated.
func (e *Engine) attach(ctx context.Context, node domain.Node, identity string, desc *domain.Descriptor) (domain.Instance, error) {
	if desc.New == nil {
		return nil, domain.NewAssertionError("type %q has no constructor", desc.Name)
	}

	inst := desc.New()
	if inst == nil {
		return nil, domain.NewAssertionError("constructor for %q returned nil", desc.Name)
	}

	if err := inst.Mount(e, inst, node, desc); err != nil {
		return nil, err
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}

	preHandles := len(e.registry.Handles(identity))
	e.registry.Put(identity, desc.Name, inst)

	if err := e.finishAttach(inst); err != nil {
		e.rollback(identity, desc.Name, preHandles)
		return nil, fmt.Errorf("failed to attach %q to node %q: %w", desc.Name, identity, err)
	}

	e.logger.Debug("instance attached", "node_id", identity, "type", desc.Name, "capability", desc.Capability)
	e.emitAttach(ctx, identity, desc)
	return inst, nil
}

func (e *Engine) finishAttach(inst domain.Instance) error {
	if err := inst.Apply(); err != nil {
		return err
	}
	return inst.Init()
}

// rollback drops a failed attach: handles allocated during it are canceled
// and removed from the identity's set, and the memoized instance is dropped.
// Nothing of the failed attach survives in the registry, so inspection
// surfaces never report a phantom entry.
func (e *Engine) rollback(identity, typeName string, preHandles int) {
	handles := e.registry.Handles(identity)
	for i := preHandles; i < len(handles); i++ {
		handles[i].Cancel()
	}
	e.registry.TrimHandles(identity, preHandles)
	e.registry.Drop(identity, typeName)
}

// catalogFor picks the catalog the node's declared bindings point at for the
// requested name.
func (e *Engine) catalogFor(node domain.Node, identity, typeName string) (*catalog.Catalog, error) {
	if declared, ok := node.Attr(domain.AttrComponent); ok &&
		strings.EqualFold(strings.TrimSpace(declared), typeName) {
		return e.components, nil
	}
	if domain.HasToken(node, domain.AttrBehavior, typeName) {
		return e.behaviors, nil
	}
	return nil, &domain.TypecastError{NodeID: identity, TypeName: typeName}
}

// Enhance brings a whole subtree under management: it resolves the node's
// exclusive-interaction binding (if any) and every visual-behavior token,
// then recurses into all element descendants. Idempotent; memoized instances
// are not constructed twice.
func (e *Engine) Enhance(ctx context.Context, node domain.Node) error {
	if !node.IsElement() {
		return nil
	}

	if declared, ok := node.Attr(domain.AttrComponent); ok && strings.TrimSpace(declared) != "" {
		if _, err := e.Resolve(ctx, node, strings.TrimSpace(declared)); err != nil {
			return err
		}
	}
	for _, token := range domain.Tokens(node, domain.AttrBehavior) {
		if _, err := e.Resolve(ctx, node, token); err != nil {
			return err
		}
	}

	for _, child := range node.Children() {
		if err := e.Enhance(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

// Detach purges the registry entry for the node's identity. It does not
// cancel subscriptions; the teardown pipeline cancels them before calling
// Detach as its final step.
func (e *Engine) Detach(ctx context.Context, node domain.Node) {
	identity, err := domain.Identity(node)
	if err != nil {
		return // unidentified nodes never made it into the registry
	}
	e.detachIdentity(ctx, identity)
}

func (e *Engine) detachIdentity(ctx context.Context, identity string) (instances int) {
	removed := e.registry.Remove(identity)
	if removed == 0 {
		return 0
	}
	e.logger.Debug("registry entry purged", "node_id", identity, "instances", removed)
	for _, h := range e.hooks {
		if h.OnDetach != nil {
			h.OnDetach(ctx, &domain.DetachEvent{NodeID: identity, Instances: removed})
		}
	}
	return removed
}

// RegisterSubscription allocates a cancellation handle appended to the
// node's subscription set. Callers bind the handle to whatever undoes the
// subscription; the teardown pipeline cancels the whole set when the node
// leaves the tree.
func (e *Engine) RegisterSubscription(node domain.Node) (*domain.Handle, error) {
	identity, err := domain.Identity(node)
	if err != nil {
		return nil, err
	}
	h := domain.NewHandle()
	e.registry.AddHandle(identity, h)
	return h, nil
}

// FindType implements domain.Runtime catalog access for polymorphic type
// matching.
func (e *Engine) FindType(cap domain.Capability, name string) (*domain.Descriptor, bool) {
	switch cap {
	case domain.CapabilityBehavior:
		return e.behaviors.Find(name)
	case domain.CapabilityComponent:
		return e.components.Find(name)
	default:
		return nil, false
	}
}

func (e *Engine) emitAttach(ctx context.Context, identity string, desc *domain.Descriptor) {
	evt := &domain.AttachEvent{NodeID: identity, TypeName: desc.Name, Capability: desc.Capability}
	for _, h := range e.hooks {
		if h.OnAttach != nil {
			h.OnAttach(ctx, evt)
		}
	}
	if e.journal != nil {
		entry := domain.JournalEntry{
			Type:      domain.JournalAttach,
			NodeID:    identity,
			TypeName:  desc.Name,
			Timestamp: time.Now().UTC(),
		}
		if err := e.journal.Append(ctx, entry); err != nil {
			e.logger.Warn("failed to append journal entry", "node_id", identity, "err", err)
		}
	}
}

var _ domain.Runtime = (*Engine)(nil)
