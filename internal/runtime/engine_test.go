package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/behavior"
	"github.com/aretw0/espalier/pkg/catalog"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panel struct{ behavior.Visual }

type tabPanel struct {
	behavior.Visual
	inits int
}

func (p *tabPanel) Init() error {
	p.inits++
	return nil
}

type tab struct{ behavior.Visual }

type draggable struct{ behavior.Visual }

type brokenInit struct{ behavior.Visual }

func (b *brokenInit) Init() error {
	return errors.New("init exploded")
}

type brokenMenu struct {
	behavior.Visual
	clicks int
}

func (b *brokenMenu) Handlers() map[string]domain.HandlerFunc {
	return map[string]domain.HandlerFunc{
		"click": func(domain.Event) { b.clicks++ },
	}
}

func (b *brokenMenu) Init() error {
	return errors.New("init exploded")
}

type uploader struct {
	behavior.Interaction
	clicks int
}

func (u *uploader) Handlers() map[string]domain.HandlerFunc {
	return map[string]domain.HandlerFunc{
		"click": func(domain.Event) { u.clicks++ },
	}
}

type widgetVisual struct{ behavior.Visual }

type widgetComponent struct{ behavior.Interaction }

type fixture struct {
	engine     *runtime.Engine
	behaviors  *catalog.Catalog
	components *catalog.Catalog
	registry   *registry.Registry
	doc        *memory.Document
}

func newFixture(docOpts []memory.DocumentOption, engineOpts ...runtime.EngineOption) *fixture {
	behaviors := catalog.New(domain.CapabilityBehavior)
	components := catalog.New(domain.CapabilityComponent)

	panelDesc := &domain.Descriptor{New: func() domain.Instance { return &panel{} }}
	behaviors.Register("Panel", panelDesc)
	behaviors.Register("TabPanel", &domain.Descriptor{
		Parent: panelDesc,
		New:    func() domain.Instance { return &tabPanel{} },
	})
	behaviors.Register("Tab", &domain.Descriptor{New: func() domain.Instance { return &tab{} }})
	behaviors.Register("Draggable", &domain.Descriptor{New: func() domain.Instance { return &draggable{} }})
	behaviors.Register("Broken", &domain.Descriptor{New: func() domain.Instance { return &brokenInit{} }})
	behaviors.Register("BrokenMenu", &domain.Descriptor{New: func() domain.Instance { return &brokenMenu{} }})
	behaviors.Register("Widget", &domain.Descriptor{New: func() domain.Instance { return &widgetVisual{} }})

	components.Register("Uploader", &domain.Descriptor{New: func() domain.Instance { return &uploader{} }})
	components.Register("Widget", &domain.Descriptor{New: func() domain.Instance { return &widgetComponent{} }})

	reg := registry.New()
	return &fixture{
		engine:     runtime.NewEngine(behaviors, components, reg, engineOpts...),
		behaviors:  behaviors,
		components: components,
		registry:   reg,
		doc:        memory.NewDocument(docOpts...),
	}
}

func TestEngine_ResolveMemoizes(t *testing.T) {
	f := newFixture(nil)
	node := f.doc.CreateElement("panel1", map[string]string{domain.AttrBehavior: "TabPanel"})
	f.doc.Root().AppendChild(node)

	first, err := f.engine.Resolve(context.Background(), node, "TabPanel")
	require.NoError(t, err)

	second, err := f.engine.Resolve(context.Background(), node, "tabpanel")
	require.NoError(t, err)

	assert.Same(t, first, second, "resolution is find-or-create, never construct twice")
	assert.Equal(t, 1, first.(*tabPanel).inits)
}

func TestEngine_ResolveMultipleBehaviors(t *testing.T) {
	f := newFixture(nil)
	node := f.doc.CreateElement("n1", map[string]string{domain.AttrBehavior: "TabPanel Draggable"})
	f.doc.Root().AppendChild(node)

	p, err := f.engine.Resolve(context.Background(), node, "TabPanel")
	require.NoError(t, err)
	d, err := f.engine.Resolve(context.Background(), node, "Draggable")
	require.NoError(t, err)

	assert.IsType(t, &tabPanel{}, p)
	assert.IsType(t, &draggable{}, d)

	_, ok := f.registry.Instance("n1", "TabPanel")
	assert.True(t, ok)
	_, ok = f.registry.Instance("n1", "Draggable")
	assert.True(t, ok)
}

func TestEngine_ExclusiveBindingWinsTies(t *testing.T) {
	f := newFixture(nil)
	node := f.doc.CreateElement("n1", map[string]string{
		domain.AttrBehavior:  "Widget",
		domain.AttrComponent: "Widget",
	})
	f.doc.Root().AppendChild(node)

	inst, err := f.engine.Resolve(context.Background(), node, "Widget")
	require.NoError(t, err)
	assert.IsType(t, &widgetComponent{}, inst,
		"a name declared in both bindings resolves through the exclusive catalog")
}

func TestEngine_ResolveUndeclaredName(t *testing.T) {
	f := newFixture(nil)
	node := f.doc.CreateElement("n1", map[string]string{domain.AttrComponent: "Uploader"})
	f.doc.Root().AppendChild(node)

	_, err := f.engine.Resolve(context.Background(), node, "Tab")

	var tce *domain.TypecastError
	require.ErrorAs(t, err, &tce, "registered but undeclared names fail the typecast")
	assert.Equal(t, "n1", tce.NodeID)
	assert.Equal(t, "Tab", tce.TypeName)
}

func TestEngine_ResolveDeclaredButUnregisteredName(t *testing.T) {
	f := newFixture(nil)
	node := f.doc.CreateElement("n1", map[string]string{domain.AttrBehavior: "Ghost"})
	f.doc.Root().AppendChild(node)

	_, err := f.engine.Resolve(context.Background(), node, "Ghost")

	var tce *domain.TypecastError
	require.ErrorAs(t, err, &tce)
}

func TestEngine_ResolveRequiresIdentity(t *testing.T) {
	f := newFixture(nil)
	node := f.doc.CreateElement("", map[string]string{domain.AttrBehavior: "Tab"})

	_, err := f.engine.Resolve(context.Background(), node, "Tab")

	var ae *domain.AssertionError
	require.ErrorAs(t, err, &ae)
}

func TestEngine_RollbackOnFailedInit(t *testing.T) {
	f := newFixture(nil)
	node := f.doc.CreateElement("n1", map[string]string{domain.AttrBehavior: "Broken"})
	f.doc.Root().AppendChild(node)

	_, err := f.engine.Resolve(context.Background(), node, "Broken")
	require.ErrorContains(t, err, "failed to attach")

	_, ok := f.registry.Instance("n1", "Broken")
	assert.False(t, ok, "a failed attach leaves no memoized instance behind")
	assert.Zero(t, f.registry.Len())
}

func TestEngine_RollbackRemovesFailedAttachHandles(t *testing.T) {
	f := newFixture(nil)
	node := f.doc.CreateElement("m1", map[string]string{domain.AttrBehavior: "BrokenMenu"})
	f.doc.Root().AppendChild(node)

	_, err := f.engine.Resolve(context.Background(), node, "BrokenMenu")
	require.ErrorContains(t, err, "failed to attach")

	assert.Zero(t, f.registry.Len(), "handles wired before the failure must not keep the entry alive")
	assert.Empty(t, f.registry.Handles("m1"))
	assert.Empty(t, f.registry.Snapshot())
}

func TestEngine_Enhance(t *testing.T) {
	f := newFixture(nil)
	root := f.doc.Root()
	panelNode := f.doc.CreateElement("panel1", map[string]string{domain.AttrBehavior: "TabPanel"})
	tabNode := f.doc.CreateElement("tab1", map[string]string{domain.AttrBehavior: "Tab"})
	uploadNode := f.doc.CreateElement("upload1", map[string]string{domain.AttrComponent: "Uploader"})
	root.AppendChild(panelNode)
	panelNode.AppendChild(tabNode)
	panelNode.AppendChild(uploadNode)

	require.NoError(t, f.engine.Enhance(context.Background(), root))

	inst, ok := f.registry.Instance("panel1", "TabPanel")
	require.True(t, ok)
	_, ok = f.registry.Instance("tab1", "Tab")
	assert.True(t, ok)
	_, ok = f.registry.Instance("upload1", "Uploader")
	assert.True(t, ok)

	// Enhancing again is idempotent: memoized instances are reused.
	require.NoError(t, f.engine.Enhance(context.Background(), root))
	assert.Equal(t, 1, inst.(*tabPanel).inits)
}

func TestEngine_HandlerWiring(t *testing.T) {
	f := newFixture(nil)
	node := f.doc.CreateElement("u1", map[string]string{domain.AttrComponent: "Uploader"})
	f.doc.Root().AppendChild(node)

	inst, err := f.engine.Resolve(context.Background(), node, "Uploader")
	require.NoError(t, err)
	up := inst.(*uploader)

	node.Dispatch(domain.Event{Name: "click"})
	assert.Equal(t, 1, up.clicks)

	for _, h := range f.registry.Handles("u1") {
		h.Cancel()
	}
	node.Dispatch(domain.Event{Name: "click"})
	assert.Equal(t, 1, up.clicks, "canceled subscriptions never fire again")
}

func TestEngine_MarkerMirroring(t *testing.T) {
	f := newFixture(nil)
	node := f.doc.CreateElement("n1", map[string]string{
		domain.AttrBehavior: "Tab",
		"disabled":          "",
	})
	f.doc.Root().AppendChild(node)

	_, err := f.engine.Resolve(context.Background(), node, "Tab")
	require.NoError(t, err)

	v, ok := node.Attr("aria-disabled")
	require.True(t, ok)
	assert.Equal(t, "true", v)

	_, ok = node.Attr("aria-hidden")
	assert.False(t, ok, "absent markers clear their presentation counterpart")
}

func TestInstance_ParentQuery(t *testing.T) {
	f := newFixture(nil)
	a := f.doc.CreateElement("a", map[string]string{domain.AttrBehavior: "TabPanel"})
	b := f.doc.CreateElement("b", nil)
	c := f.doc.CreateElement("c", map[string]string{domain.AttrBehavior: "Tab"})
	f.doc.Root().AppendChild(a)
	a.AppendChild(b)
	b.AppendChild(c)

	inst, err := f.engine.Resolve(context.Background(), c, "Tab")
	require.NoError(t, err)

	t.Run("finds nearest typed ancestor under the queried type", func(t *testing.T) {
		parent, err := inst.Parent(context.Background(), "Panel")
		require.NoError(t, err)
		require.NotNil(t, parent, "untyped ancestors are skipped, not a dead end")
		assert.Equal(t, "TabPanel", parent.Descriptor().Name,
			"the most specific declared subtype wins")
		assert.Equal(t, "a", parent.Node().ID())
	})

	t.Run("memoizes the resolved ancestor", func(t *testing.T) {
		first, err := inst.Parent(context.Background(), "Panel")
		require.NoError(t, err)
		second, err := inst.Parent(context.Background(), "Panel")
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("returns nil at the root without a match", func(t *testing.T) {
		parent, err := inst.Parent(context.Background(), "")
		require.NoError(t, err)
		assert.Nil(t, parent, "no Tab ancestors exist")
	})

	t.Run("fails loudly for an unregistered query type", func(t *testing.T) {
		_, err := inst.Parent(context.Background(), "Ghost")
		var cle *domain.CatalogLookupError
		require.ErrorAs(t, err, &cle)
	})
}

func TestEngine_LifecycleHooksAndJournal(t *testing.T) {
	journal := memory.NewJournal()
	var attached []string
	f := newFixture(nil,
		runtime.WithJournal(journal),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnAttach: func(_ context.Context, evt *domain.AttachEvent) {
				attached = append(attached, evt.TypeName)
			},
		}),
	)
	node := f.doc.CreateElement("n1", map[string]string{domain.AttrBehavior: "Tab"})
	f.doc.Root().AppendChild(node)

	_, err := f.engine.Resolve(context.Background(), node, "Tab")
	require.NoError(t, err)

	assert.Equal(t, []string{"Tab"}, attached)

	entries, err := journal.Entries(context.Background(), "n1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.JournalAttach, entries[0].Type)
	assert.Equal(t, "Tab", entries[0].TypeName)
}
