package domain

import "strings"

// Attribute names read by the engine. The engine never invents attributes on
// managed nodes beyond the presentation markers mirrored during Apply.
const (
	// AttrID is the stable, caller-assigned node identity.
	AttrID = "id"
	// AttrBehavior holds a space-separated list of visual-behavior type names.
	AttrBehavior = "data-behavior"
	// AttrComponent holds at most one exclusive-interaction type name.
	AttrComponent = "data-component"
)

// EventDestroy is dispatched directly on a node when the teardown pipeline
// detects its removal, before subscriptions are canceled.
const EventDestroy = "espalier:destroy"

// Event is a notification dispatched on a node.
type Event struct {
	Name    string
	Target  Node
	Payload any
}

// HandlerFunc handles an event dispatched on a node.
type HandlerFunc func(Event)

// Node abstracts an element of the host document tree. The host owns the
// tree and may mutate it at any time; the engine only reads structure and
// attributes, and mirrors presentation markers. All per-node engine state
// lives in side tables keyed by identity, never on the node itself.
type Node interface {
	// ID returns the raw value of the identity attribute ("" if unset).
	ID() string

	// IsElement reports whether the node is an element (text and other
	// non-element nodes never participate in attachment).
	IsElement() bool

	// Attr returns the value of the named attribute.
	Attr(name string) (string, bool)

	// SetAttr sets an attribute. Used only for presentation markers.
	SetAttr(name, value string)

	// RemoveAttr removes an attribute if present.
	RemoveAttr(name string)

	// Attrs returns a copy of all attributes on the node.
	Attrs() map[string]string

	// Parent returns the parent node, or nil at the tree root.
	Parent() Node

	// Children returns the node's children in document order.
	Children() []Node

	// Dispatch delivers an event to listeners registered on this node.
	Dispatch(evt Event)

	// Listen registers a handler for the named event and returns a function
	// that removes exactly that registration.
	Listen(name string, fn HandlerFunc) (remove func())
}

// Identity returns the case-normalized identity of a node. Every managed
// node must carry a non-empty identity before first attachment.
func Identity(n Node) (string, error) {
	id := strings.TrimSpace(n.ID())
	if id == "" {
		return "", NewAssertionError("node is missing a non-empty identity")
	}
	return strings.ToLower(id), nil
}

// Tokens splits the named attribute into its whitespace-separated tokens.
// Returns nil when the attribute is absent or empty.
func Tokens(n Node, attr string) []string {
	raw, ok := n.Attr(attr)
	if !ok {
		return nil
	}
	return strings.Fields(raw)
}

// HasToken reports whether the named attribute contains the token,
// case-insensitively.
func HasToken(n Node, attr, token string) bool {
	for _, t := range Tokens(n, attr) {
		if strings.EqualFold(t, token) {
			return true
		}
	}
	return false
}
