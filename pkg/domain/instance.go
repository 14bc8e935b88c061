package domain

import "context"

// Runtime is the narrow view of the attachment engine that instances need:
// memoized resolution (for parent lookups), subscription registration (for
// bulk-cancelable event wiring), and catalog access (for polymorphic type
// matching). The engine implements it; tests may substitute fakes.
type Runtime interface {
	// Resolve returns the memoized instance for (node, typeName),
	// constructing it on first request.
	Resolve(ctx context.Context, node Node, typeName string) (Instance, error)

	// RegisterSubscription allocates a cancellation handle appended to the
	// node's subscription set. The handle is invalidated in bulk when the
	// node leaves the tree.
	RegisterSubscription(node Node) (*Handle, error)

	// FindType looks up a registered descriptor in the catalog of the given
	// capability family.
	FindType(cap Capability, name string) (*Descriptor, bool)
}

// Instance is a live behavior object bound to exactly one node. The
// lifecycle is strictly ordered and no step is re-entrant for a given
// instance: Mount (construct), Validate, Apply, Init. Only the engine drives
// it; plugin types embed behavior.Visual or behavior.Interaction and
// override Init (and optionally Handlers/Markers).
type Instance interface {
	// Mount binds the instance to its runtime, node and descriptor. The
	// self argument is the outermost value, so that Base can dispatch
	// overridden hooks (Is, Handlers, Markers) polymorphically.
	// Fails with *AssertionError when the descriptor was never attached to a
	// registered catalog entry or the node carries no identity.
	Mount(rt Runtime, self Instance, node Node, desc *Descriptor) error

	// Validate checks the node's declared bindings against the descriptor.
	Validate() error

	// Apply attaches derived presentation state (marker mirroring) and wires
	// the type's declared event handlers through cancellation handles.
	Apply() error

	// Init is the caller-overridable startup hook. Default is a no-op.
	Init() error

	// Node returns the bound node.
	Node() Node

	// Descriptor returns the bound type descriptor.
	Descriptor() *Descriptor

	// Match reports whether the given node satisfies the target type under
	// this instance's capability family, returning the most specific
	// matching descriptor declared on the node. Abstract on the base type;
	// each family root supplies the canonical implementation. Leaf types
	// never override it.
	Match(n Node, target *Descriptor) (*Descriptor, bool, error)

	// Is reports whether the given node satisfies this instance's own type.
	// Derived from Match; leaf types never override it.
	Is(n Node) (*Descriptor, bool, error)

	// Parent walks the live ancestor chain outward from the immediate
	// parent and returns the resolved instance of the first ancestor typed
	// under the named type in this instance's family. An empty typeName
	// queries the instance's own type. Returns nil, nil when the tree root
	// is reached without a match.
	Parent(ctx context.Context, typeName string) (Instance, error)

	// Handlers returns the event handlers the type declares; Apply wires
	// each one through a cancellation handle.
	Handlers() map[string]HandlerFunc

	// Markers returns the boolean marker attributes mirrored during Apply.
	Markers() []string
}

// DefaultMarkers is the fixed default set of boolean marker attributes
// mirrored onto presentation markers. Types may extend it via Markers.
var DefaultMarkers = []string{"disabled", "readonly", "required", "invalid", "hidden"}

// MarkerPrefix is prepended to a marker attribute to form its presentation
// counterpart (disabled -> aria-disabled).
const MarkerPrefix = "aria-"
