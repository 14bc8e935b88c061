package domain

// Capability tags a behavior type with its family. The hierarchy is data,
// not language subclassing: polymorphic queries are explicit predicate
// checks over the Parent relation.
type Capability string

const (
	// CapabilityGeneral is the single root of the capability hierarchy.
	CapabilityGeneral Capability = "general"
	// CapabilityBehavior marks visual-behavior types; a node may bind any
	// number of them simultaneously.
	CapabilityBehavior Capability = "behavior"
	// CapabilityComponent marks exclusive-interaction types; a node may bind
	// at most one.
	CapabilityComponent Capability = "component"
)

// Descriptor describes a registered behavior type: its canonical name
// (attached by the catalog at first registration), its capability family,
// its position in the capability hierarchy, and the factory producing fresh
// instances.
type Descriptor struct {
	// Name is the canonical registered name. Empty until the descriptor is
	// attached to a catalog entry; constructing an instance from an unnamed
	// descriptor fails the Mount assertion.
	Name string

	// Capability is the family the descriptor belongs to. Set by the catalog
	// on registration.
	Capability Capability

	// Parent is the descriptor this type descends from. Registration
	// defaults it to the family root when nil.
	Parent *Descriptor

	// New constructs an un-mounted instance of the type.
	New func() Instance
}

// Hierarchy roots. They are data-only: never registered, never instantiated.
var (
	// RootGeneral is the single root every descriptor descends from.
	RootGeneral = &Descriptor{Name: "Object", Capability: CapabilityGeneral}
	// RootBehavior is the visual-behavior family root.
	RootBehavior = &Descriptor{Name: "Behavior", Capability: CapabilityBehavior, Parent: RootGeneral}
	// RootComponent is the exclusive-interaction family root.
	RootComponent = &Descriptor{Name: "Component", Capability: CapabilityComponent, Parent: RootGeneral}
)

// Root returns the family root for a capability.
func Root(cap Capability) *Descriptor {
	switch cap {
	case CapabilityBehavior:
		return RootBehavior
	case CapabilityComponent:
		return RootComponent
	default:
		return RootGeneral
	}
}

// InheritsFrom reports whether d is other or a descendant of other in the
// capability hierarchy.
func (d *Descriptor) InheritsFrom(other *Descriptor) bool {
	for cur := d; cur != nil; cur = cur.Parent {
		if cur == other {
			return true
		}
	}
	return false
}

// Depth returns the distance from d to the hierarchy root. Deeper
// descriptors are more specific.
func (d *Descriptor) Depth() int {
	depth := 0
	for cur := d; cur.Parent != nil; cur = cur.Parent {
		depth++
	}
	return depth
}

// MoreSpecific returns the deeper of the two descriptors, preferring d on
// ties. A nil argument yields the other descriptor.
func MoreSpecific(d, other *Descriptor) *Descriptor {
	if d == nil {
		return other
	}
	if other == nil {
		return d
	}
	if other.Depth() > d.Depth() {
		return other
	}
	return d
}
