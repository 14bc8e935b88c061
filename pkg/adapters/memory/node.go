package memory

import (
	"github.com/aretw0/espalier/pkg/domain"
)

// Node is one element or text node of an in-memory Document. It implements
// domain.Node. All state is guarded by the owning document's lock; event
// handlers run outside it, so handlers may mutate the tree re-entrantly.
type Node struct {
	doc     *Document
	element bool
	text    string

	attrs    map[string]string
	parent   *Node
	children []*Node

	listeners    map[string]map[int]domain.HandlerFunc
	nextListener int
}

// ID returns the identity attribute value.
func (n *Node) ID() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.attrs[domain.AttrID]
}

// IsElement reports whether this is an element node.
func (n *Node) IsElement() bool {
	return n.element
}

// Text returns the content of a text node.
func (n *Node) Text() string {
	return n.text
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	v, ok := n.attrs[name]
	return v, ok
}

// SetAttr sets an attribute.
func (n *Node) SetAttr(name, value string) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	n.attrs[name] = value
}

// RemoveAttr removes an attribute if present.
func (n *Node) RemoveAttr(name string) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	delete(n.attrs, name)
}

// Attrs returns a copy of all attributes.
func (n *Node) Attrs() map[string]string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	out := make(map[string]string, len(n.attrs))
	for k, v := range n.attrs {
		out[k] = v
	}
	return out
}

// Parent returns the parent node, or nil at the root.
func (n *Node) Parent() domain.Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Children returns the node's children in document order.
func (n *Node) Children() []domain.Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	out := make([]domain.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// AppendChild attaches a child to this node, detaching it from any previous
// parent first. Both the removal and the addition are recorded for the
// mutation feed.
func (n *Node) AppendChild(child *Node) {
	if child == nil || child == n {
		return
	}
	if p := child.parentNode(); p != nil {
		p.RemoveChild(child)
	}

	n.doc.mu.Lock()
	child.parent = n
	n.children = append(n.children, child)
	n.doc.mu.Unlock()

	n.doc.record(domain.MutationRecord{Target: n, Added: []domain.Node{child}})
}

// RemoveChild detaches a child. A node that is not a child of n is left
// untouched. The removal is recorded for the mutation feed; cleanup of the
// removed subtree happens asynchronously when the batch flushes.
func (n *Node) RemoveChild(child *Node) {
	n.doc.mu.Lock()
	idx := -1
	for i, c := range n.children {
		if c == child {
			idx = i
			break
		}
	}
	if idx < 0 {
		n.doc.mu.Unlock()
		return
	}
	n.children = append(n.children[:idx], n.children[idx+1:]...)
	child.parent = nil
	n.doc.mu.Unlock()

	n.doc.record(domain.MutationRecord{Target: n, Removed: []domain.Node{child}})
}

// Remove detaches this node from its parent, if any.
func (n *Node) Remove() {
	if p := n.parentNode(); p != nil {
		p.RemoveChild(n)
	}
}

func (n *Node) parentNode() *Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.parent
}

// Listen registers a handler for the named event and returns its removal
// function.
func (n *Node) Listen(name string, fn domain.HandlerFunc) func() {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	if n.listeners == nil {
		n.listeners = make(map[string]map[int]domain.HandlerFunc)
	}
	if n.listeners[name] == nil {
		n.listeners[name] = make(map[int]domain.HandlerFunc)
	}
	id := n.nextListener
	n.nextListener++
	n.listeners[name][id] = fn

	return func() {
		n.doc.mu.Lock()
		defer n.doc.mu.Unlock()
		if set, ok := n.listeners[name]; ok {
			delete(set, id)
		}
	}
}

// Dispatch delivers an event to this node's listeners. Handlers run outside
// the document lock and may re-enter the engine or mutate the tree.
func (n *Node) Dispatch(evt domain.Event) {
	if evt.Target == nil {
		evt.Target = n
	}

	n.doc.mu.Lock()
	set := n.listeners[evt.Name]
	fns := make([]domain.HandlerFunc, 0, len(set))
	for _, fn := range set {
		fns = append(fns, fn)
	}
	n.doc.mu.Unlock()

	for _, fn := range fns {
		fn(evt)
	}
}
