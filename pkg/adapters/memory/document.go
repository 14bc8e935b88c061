// Package memory provides the in-memory reference host: a DOM-like document
// tree with attributes, per-node events, structural mutation, and a batched
// asynchronous mutation feed, plus an in-memory attachment journal. It is
// the default host for tests, examples, and the CLI.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
)

// DefaultBatchWindow is how long the feed coalesces mutations before
// flushing a batch. Small enough to be invisible, large enough to batch a
// burst of removals into one delivery.
const DefaultBatchWindow = 2 * time.Millisecond

// Document is an in-memory DOM-like tree. It implements ports.MutationFeed:
// structural changes are recorded and delivered to watchers in asynchronous
// batches, never synchronously with the mutation itself.
type Document struct {
	mu      sync.Mutex
	root    *Node
	pending []domain.MutationRecord

	subs    map[int]*subscriber
	nextSub int

	notify    chan struct{}
	done      chan struct{}
	window    time.Duration
	flushOnce sync.Once
	closeOnce sync.Once
}

type subscriber struct {
	ch   chan []domain.MutationRecord
	done chan struct{}
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithBatchWindow overrides the mutation coalescing window.
func WithBatchWindow(window time.Duration) DocumentOption {
	return func(d *Document) {
		d.window = window
	}
}

// NewDocument creates a document whose root element carries the identity
// "root".
func NewDocument(opts ...DocumentOption) *Document {
	d := &Document{
		subs:   make(map[int]*subscriber),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		window: DefaultBatchWindow,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.root = &Node{
		doc:     d,
		element: true,
		attrs:   map[string]string{domain.AttrID: "root"},
	}
	return d
}

// Root returns the document root.
func (d *Document) Root() *Node {
	return d.root
}

// CreateElement creates a detached element node. Attach it with AppendChild.
func (d *Document) CreateElement(id string, attrs map[string]string) *Node {
	n := &Node{
		doc:     d,
		element: true,
		attrs:   make(map[string]string, len(attrs)+1),
	}
	for k, v := range attrs {
		n.attrs[k] = v
	}
	if id != "" {
		n.attrs[domain.AttrID] = id
	}
	return n
}

// CreateText creates a detached text node.
func (d *Document) CreateText(text string) *Node {
	return &Node{doc: d, text: text, attrs: map[string]string{}}
}

// FindByID returns the first element in document order whose identity
// matches, case-insensitively, or nil.
func (d *Document) FindByID(id string) *Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return findByID(d.root, id)
}

func findByID(n *Node, id string) *Node {
	if n.element && strings.EqualFold(n.attrs[domain.AttrID], id) {
		return n
	}
	for _, c := range n.children {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// Watch implements ports.MutationFeed. The returned channel delivers batches
// of mutation records until ctx is canceled.
func (d *Document) Watch(ctx context.Context) (<-chan []domain.MutationRecord, error) {
	d.flushOnce.Do(func() {
		go d.flushLoop()
	})

	sub := &subscriber{
		ch:   make(chan []domain.MutationRecord, 16),
		done: make(chan struct{}),
	}
	out := make(chan []domain.MutationRecord)

	d.mu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = sub
	d.mu.Unlock()

	// Forwarder owns the output channel, so broadcast never races a close.
	go func() {
		defer func() {
			d.mu.Lock()
			delete(d.subs, id)
			d.mu.Unlock()
			close(sub.done)
			close(out)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case batch := <-sub.ch:
				select {
				case out <- batch:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Flush delivers all pending mutation records to watchers immediately,
// without waiting for the batch window. Intended for tests and hosts that
// control their own scheduling.
func (d *Document) Flush() {
	d.broadcast(d.takePending())
}

// Close stops the background flusher. The tree stays usable and Flush still
// delivers pending mutations explicitly, but automatic batch delivery ends.
// Idempotent.
func (d *Document) Close() {
	d.closeOnce.Do(func() { close(d.done) })
}

func (d *Document) flushLoop() {
	for {
		select {
		case <-d.done:
			return
		case <-d.notify:
			select {
			case <-d.done:
				return
			default:
			}
			// Coalesce a burst of mutations into one batch.
			time.Sleep(d.window)
			d.broadcast(d.takePending())
		}
	}
}

func (d *Document) takePending() []domain.MutationRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	batch := d.pending
	d.pending = nil
	return batch
}

func (d *Document) broadcast(batch []domain.MutationRecord) {
	if len(batch) == 0 {
		return
	}

	d.mu.Lock()
	subs := make([]*subscriber, 0, len(d.subs))
	for _, s := range d.subs {
		subs = append(subs, s)
	}
	d.mu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- batch:
		case <-s.done:
		}
	}
}

// record queues a mutation and nudges the flusher.
func (d *Document) record(rec domain.MutationRecord) {
	d.mu.Lock()
	d.pending = append(d.pending, rec)
	d.mu.Unlock()

	select {
	case d.notify <- struct{}{}:
	default:
	}
}
