package behavior

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// Base carries the state shared by every behavior object: the bound node,
// the registered descriptor, and the runtime it resolves parents and
// subscriptions through. It implements the full domain.Instance contract
// with Match left abstract; the family roots (Visual, Interaction) supply
// the canonical Match and the family-specific Validate.
type Base struct {
	rt   domain.Runtime
	self domain.Instance
	node domain.Node
	desc *domain.Descriptor
}

// Mount binds the instance. It is the construct step of the lifecycle and is
// not re-entrant: mounting a mounted instance fails.
func (b *Base) Mount(rt domain.Runtime, self domain.Instance, node domain.Node, desc *domain.Descriptor) error {
	if b.self != nil {
		return domain.NewAssertionError("instance is already mounted")
	}
	if rt == nil || self == nil || node == nil {
		return domain.NewAssertionError("mount requires a runtime, a self reference and a node")
	}
	if desc == nil || desc.Name == "" {
		return domain.NewAssertionError("type was instantiated without a registered descriptor")
	}
	if _, err := domain.Identity(node); err != nil {
		return err
	}

	b.rt = rt
	b.self = self
	b.node = node
	b.desc = desc
	return nil
}

// Validate performs the base check: the node carries a non-empty identity.
// Family roots add their binding checks on top.
func (b *Base) Validate() error {
	if b.node == nil {
		return domain.NewAssertionError("instance is not mounted")
	}
	_, err := domain.Identity(b.node)
	return err
}

// Apply mirrors the marker attributes onto their presentation counterparts
// and wires the declared event handlers, each through a cancellation handle
// so the whole node tears down in bulk.
func (b *Base) Apply() error {
	for _, marker := range b.self.Markers() {
		presentation := domain.MarkerPrefix + marker
		if _, ok := b.node.Attr(marker); ok {
			b.node.SetAttr(presentation, "true")
		} else {
			b.node.RemoveAttr(presentation)
		}
	}

	for name, fn := range b.self.Handlers() {
		if err := b.Subscribe(name, fn); err != nil {
			return err
		}
	}
	return nil
}

// Init is the overridable startup hook. The default does nothing.
func (b *Base) Init() error {
	return nil
}

// Subscribe wires one event handler through a fresh cancellation handle. The
// wrapped handler checks the handle before firing, so canceled subscriptions
// never run even when the host removes listeners lazily.
func (b *Base) Subscribe(event string, fn domain.HandlerFunc) error {
	h, err := b.rt.RegisterSubscription(b.node)
	if err != nil {
		return err
	}

	remove := b.node.Listen(event, func(evt domain.Event) {
		if h.Canceled() {
			return
		}
		fn(evt)
	})
	h.Bind(remove)
	return nil
}

// Node returns the bound node.
func (b *Base) Node() domain.Node {
	return b.node
}

// Descriptor returns the bound type descriptor.
func (b *Base) Descriptor() *domain.Descriptor {
	return b.desc
}

// Runtime returns the attachment runtime the instance was mounted with.
func (b *Base) Runtime() domain.Runtime {
	return b.rt
}

// Handlers declares no handlers by default.
func (b *Base) Handlers() map[string]domain.HandlerFunc {
	return nil
}

// Markers returns the default marker set.
func (b *Base) Markers() []string {
	return domain.DefaultMarkers
}

// Match is abstract on the base type; the family roots supply the canonical
// implementation and leaf types never override it.
func (b *Base) Match(domain.Node, *domain.Descriptor) (*domain.Descriptor, bool, error) {
	return nil, false, domain.ErrAbstractMethod
}

// Is reports whether the node satisfies this instance's own type. Derived
// from the family's Match; leaf types never override it.
func (b *Base) Is(n domain.Node) (*domain.Descriptor, bool, error) {
	if b.self == nil {
		return nil, false, domain.NewAssertionError("instance is not mounted")
	}
	return b.self.Match(n, b.desc)
}

// Parent walks the live ancestor chain outward from the immediate parent,
// testing each element through the family's Match against the named type,
// and resolves the first match. An empty typeName queries the instance's own
// type. Resolution goes through the runtime, so repeated parent queries hit
// the memoized instance rather than constructing again. Returns nil, nil
// when the tree root is reached without a match.
func (b *Base) Parent(ctx context.Context, typeName string) (domain.Instance, error) {
	if b.self == nil {
		return nil, domain.NewAssertionError("instance is not mounted")
	}

	target := b.desc
	if typeName != "" {
		found, ok := b.rt.FindType(b.desc.Capability, typeName)
		if !ok {
			return nil, &domain.CatalogLookupError{Capability: b.desc.Capability, Name: typeName}
		}
		target = found
	}

	for anc := b.node.Parent(); anc != nil; anc = anc.Parent() {
		if !anc.IsElement() {
			continue
		}
		desc, ok, err := b.self.Match(anc, target)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		return b.rt.Resolve(ctx, anc, desc.Name)
	}
	return nil, nil
}
