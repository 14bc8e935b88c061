package espalier

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/pkg/catalog"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
)

// Engine is the high-level entry point for the Espalier library. It wraps
// the internal attachment runtime and teardown pipeline and provides a
// simplified API for consumers: register types, enhance subtrees, observe
// removals.
type Engine struct {
	runtime  *runtime.Engine
	pipeline *runtime.Pipeline

	behaviors  *catalog.Catalog
	components *catalog.Catalog
	registry   *registry.Registry

	feed    ports.MutationFeed
	journal ports.Journal
	hooks   []domain.LifecycleHooks
	logger  *slog.Logger
	Name    string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks. May be given more than
// once; all registered hooks fire.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = append(e.hooks, hooks)
	}
}

// WithJournal enables the attachment journal.
func WithJournal(j ports.Journal) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithName labels the engine in log output. Useful when a process runs
// several engines against different trees.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// New initializes an Engine bound to the host's mutation feed. The feed may
// be nil for hosts without structural mutation, in which case Observe fails
// and teardown is the caller's responsibility.
func New(feed ports.MutationFeed, opts ...Option) (*Engine, error) {
	eng := &Engine{
		feed:       feed,
		behaviors:  catalog.New(domain.CapabilityBehavior),
		components: catalog.New(domain.CapabilityComponent),
		registry:   registry.New(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("engine", eng.Name)
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
	}
	if eng.journal != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithJournal(eng.journal))
	}
	for _, hooks := range eng.hooks {
		runtimeOpts = append(runtimeOpts, runtime.WithLifecycleHooks(hooks))
	}

	eng.runtime = runtime.NewEngine(eng.behaviors, eng.components, eng.registry, runtimeOpts...)
	if feed != nil {
		eng.pipeline = runtime.NewPipeline(eng.runtime, feed, runtime.WithPipelineLogger(eng.logger))
	}
	return eng, nil
}

// RegisterBehavior registers a visual-behavior type under the given name.
// The parent names an already registered behavior this type descends from;
// empty means the family root. Registration is idempotent.
func (e *Engine) RegisterBehavior(name, parent string, factory func() domain.Instance) error {
	return register(e.behaviors, name, parent, factory)
}

// RegisterComponent registers an exclusive-interaction type under the given
// name. The parent names an already registered component this type descends
// from; empty means the family root. Registration is idempotent.
func (e *Engine) RegisterComponent(name, parent string, factory func() domain.Instance) error {
	return register(e.components, name, parent, factory)
}

func register(cat *catalog.Catalog, name, parent string, factory func() domain.Instance) error {
	desc := &domain.Descriptor{New: factory}
	if parent != "" {
		parentDesc, err := cat.Get(parent)
		if err != nil {
			return err
		}
		desc.Parent = parentDesc
	}
	cat.Register(name, desc)
	return nil
}

// Resolve returns the instance bound to (node, typeName), constructing it on
// first request.
func (e *Engine) Resolve(ctx context.Context, node domain.Node, typeName string) (domain.Instance, error) {
	return e.runtime.Resolve(ctx, node, typeName)
}

// Enhance brings a whole subtree under management, resolving every declared
// binding on the node and its element descendants. Idempotent.
func (e *Engine) Enhance(ctx context.Context, node domain.Node) error {
	return e.runtime.Enhance(ctx, node)
}

// Detach tears a node down synchronously: its subscription set is canceled
// and its registry entry purged. Hosts without a mutation feed call this when
// they remove a node; hosts with a feed normally leave teardown to Observe.
func (e *Engine) Detach(ctx context.Context, node domain.Node) {
	if identity, err := domain.Identity(node); err == nil {
		for _, h := range e.registry.Handles(identity) {
			h.Cancel()
		}
	}
	e.runtime.Detach(ctx, node)
}

// Observe starts the teardown pipeline: removed nodes are destroyed, their
// subscriptions canceled and their registry entries purged, asynchronously
// with the removal itself. Fails when the engine has no mutation feed.
func (e *Engine) Observe(ctx context.Context) error {
	if e.pipeline == nil {
		return domain.NewAssertionError("engine has no mutation feed to observe")
	}
	return e.pipeline.Start(ctx)
}

// Stop halts the teardown pipeline. Returns domain.ErrNotObserving when the
// pipeline is not observing, including when its watch already ended on its
// own.
func (e *Engine) Stop() error {
	if e.pipeline == nil {
		return domain.ErrNotObserving
	}
	return e.pipeline.Stop()
}

// Observing reports whether the teardown pipeline is consuming the feed.
func (e *Engine) Observing() bool {
	return e.pipeline != nil && e.pipeline.Observing()
}

// Behaviors returns the registered visual-behavior type names, sorted.
func (e *Engine) Behaviors() []string {
	return e.behaviors.Names()
}

// Components returns the registered exclusive-interaction type names, sorted.
func (e *Engine) Components() []string {
	return e.components.Names()
}

// Snapshot returns the registry contents for inspection surfaces.
func (e *Engine) Snapshot() []registry.NodeSnapshot {
	return e.registry.Snapshot()
}

// Journal returns the configured attachment journal, or nil.
func (e *Engine) Journal() ports.Journal {
	return e.journal
}
