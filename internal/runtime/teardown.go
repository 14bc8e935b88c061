package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// pipelineState is the teardown pipeline's two-state machine.
type pipelineState int

const (
	stateStopped pipelineState = iota
	stateObserving
)

// Pipeline reacts to structural tree mutations: for every element removed
// from the tree it dispatches the destroy notification, cancels the node's
// subscription set, and purges its registry entry. It never mutates the tree
// itself. Cleanup is eventual, not synchronous with removal: mutation
// batches arrive on a later turn than the structural change.
type Pipeline struct {
	engine *Engine
	feed   ports.MutationFeed
	logger *slog.Logger

	mu     sync.Mutex
	state  pipelineState
	cancel context.CancelFunc
	done   chan struct{}
}

// PipelineOption configures the Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets a structured logger.
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates a stopped pipeline bound to an engine and a feed.
func NewPipeline(engine *Engine, feed ports.MutationFeed, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		engine: engine,
		feed:   feed,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start moves the pipeline into the observing state, consuming mutation
// batches until the context is canceled or Stop is called. Starting an
// observing pipeline is a no-op.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == stateObserving {
		return nil
	}

	watchCtx, cancel := context.WithCancel(ctx)
	batches, err := p.feed.Watch(watchCtx)
	if err != nil {
		cancel()
		return err
	}

	p.state = stateObserving
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.observe(watchCtx, batches, p.done)
	return nil
}

// Stop moves the pipeline back to the stopped state and waits for the
// observer to drain. Returns domain.ErrNotObserving when the pipeline is not
// observing.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	if p.state != stateObserving {
		p.mu.Unlock()
		return domain.ErrNotObserving
	}
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done
	return nil
}

// Observing reports whether the pipeline is consuming the feed.
func (p *Pipeline) Observing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == stateObserving
}

// observe consumes the feed until the context is canceled or the feed
// closes. It owns the transition back to stopped, so a pipeline whose watch
// died on its own (parent context canceled, feed gone) reports Observing()
// false and can be started again.
func (p *Pipeline) observe(ctx context.Context, batches <-chan []domain.MutationRecord, done chan struct{}) {
	defer func() {
		close(done)
		p.mu.Lock()
		if p.done == done {
			p.state = stateStopped
			p.cancel = nil
			p.done = nil
		}
		p.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-batches:
			if !ok {
				return
			}
			p.process(ctx, batch)
		}
	}
}

func (p *Pipeline) process(ctx context.Context, batch []domain.MutationRecord) {
	for _, rec := range batch {
		for _, removed := range rec.Removed {
			p.cleanup(ctx, removed)
		}
	}
}

// cleanup tears down a removed node and its element descendants. Hosts
// report only the removed subtree root, so the walk covers everything the
// registry may still track underneath it.
func (p *Pipeline) cleanup(ctx context.Context, node domain.Node) {
	if !node.IsElement() {
		return
	}

	for _, child := range node.Children() {
		p.cleanup(ctx, child)
	}

	// Destroy notification fires before any cleanup, so external listeners
	// still observe live subscriptions and instances.
	node.Dispatch(domain.Event{Name: domain.EventDestroy, Target: node})

	identity, err := domain.Identity(node)
	if err != nil {
		return // unidentified nodes carry no registry state
	}

	handles := p.engine.Registry().Handles(identity)
	for _, h := range handles {
		h.Cancel()
	}

	instances := p.engine.detachIdentity(ctx, identity)
	if instances == 0 && len(handles) == 0 {
		return // never managed, nothing to audit
	}
	p.logger.Debug("node destroyed", "node_id", identity, "subscriptions", len(handles))
	p.emitDestroy(ctx, identity, len(handles))
}

func (p *Pipeline) emitDestroy(ctx context.Context, identity string, subscriptions int) {
	evt := &domain.DestroyEvent{NodeID: identity, Subscriptions: subscriptions}
	for _, h := range p.engine.hooks {
		if h.OnDestroy != nil {
			h.OnDestroy(ctx, evt)
		}
	}
	if j := p.engine.Journal(); j != nil {
		entry := domain.JournalEntry{
			Type:      domain.JournalDestroy,
			NodeID:    identity,
			Timestamp: time.Now().UTC(),
		}
		if err := j.Append(ctx, entry); err != nil {
			p.logger.Warn("failed to append journal entry", "node_id", identity, "err", err)
		}
	}
}
