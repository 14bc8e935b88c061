package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubInstance satisfies domain.Instance for registry bookkeeping tests.
type stubInstance struct {
	desc *domain.Descriptor
}

func (s *stubInstance) Mount(domain.Runtime, domain.Instance, domain.Node, *domain.Descriptor) error {
	return nil
}
func (s *stubInstance) Validate() error                                 { return nil }
func (s *stubInstance) Apply() error                                    { return nil }
func (s *stubInstance) Init() error                                     { return nil }
func (s *stubInstance) Node() domain.Node                               { return nil }
func (s *stubInstance) Descriptor() *domain.Descriptor                  { return s.desc }
func (s *stubInstance) Match(domain.Node, *domain.Descriptor) (*domain.Descriptor, bool, error) {
	return nil, false, domain.ErrAbstractMethod
}
func (s *stubInstance) Is(domain.Node) (*domain.Descriptor, bool, error) {
	return nil, false, domain.ErrAbstractMethod
}
func (s *stubInstance) Parent(context.Context, string) (domain.Instance, error) { return nil, nil }
func (s *stubInstance) Handlers() map[string]domain.HandlerFunc         { return nil }
func (s *stubInstance) Markers() []string                               { return domain.DefaultMarkers }

func stub(name string) *stubInstance {
	return &stubInstance{desc: &domain.Descriptor{Name: name}}
}

func TestRegistry_PutAndInstance(t *testing.T) {
	r := registry.New()

	inst := stub("TabPanel")
	r.Put("Panel1", "TabPanel", inst)

	got, ok := r.Instance("panel1", "tabpanel")
	require.True(t, ok, "keys are case-normalized")
	assert.Same(t, inst, got)

	_, ok = r.Instance("panel1", "Other")
	assert.False(t, ok)
}

func TestRegistry_PutFirstWins(t *testing.T) {
	r := registry.New()

	first := stub("Tab")
	second := stub("Tab")
	r.Put("n1", "Tab", first)
	r.Put("n1", "Tab", second)

	got, ok := r.Instance("n1", "Tab")
	require.True(t, ok)
	assert.Same(t, first, got, "a duplicate Put never replaces a live instance")
}

func TestRegistry_Remove(t *testing.T) {
	r := registry.New()
	r.Put("n1", "Foo", stub("Foo"))
	r.Put("n1", "Bar", stub("Bar"))
	r.AddHandle("n1", domain.NewHandle())

	removed := r.Remove("N1")
	assert.Equal(t, 2, removed)
	assert.Zero(t, r.Len())
	assert.Nil(t, r.Handles("n1"))

	assert.Zero(t, r.Remove("n1"), "removing an absent identity is a no-op")
}

func TestRegistry_Drop(t *testing.T) {
	r := registry.New()
	r.Put("n1", "Foo", stub("Foo"))
	r.Put("n1", "Bar", stub("Bar"))

	r.Drop("n1", "Foo")
	_, ok := r.Instance("n1", "Foo")
	assert.False(t, ok)
	_, ok = r.Instance("n1", "Bar")
	assert.True(t, ok)

	r.Drop("n1", "Bar")
	assert.Zero(t, r.Len(), "empty entries are garbage collected")
}

func TestRegistry_TrimHandles(t *testing.T) {
	r := registry.New()

	h1 := domain.NewHandle()
	h2 := domain.NewHandle()
	r.AddHandle("n1", h1)
	r.AddHandle("n1", h2)

	r.TrimHandles("N1", 1)
	handles := r.Handles("n1")
	require.Len(t, handles, 1)
	assert.Contains(t, handles, h1)

	r.TrimHandles("n1", 0)
	assert.Zero(t, r.Len(), "an entry with no instances and no handles is garbage collected")

	r.Put("n2", "Tab", stub("Tab"))
	r.AddHandle("n2", domain.NewHandle())
	r.TrimHandles("n2", 0)
	assert.Empty(t, r.Handles("n2"))
	_, ok := r.Instance("n2", "Tab")
	assert.True(t, ok, "trimming handles never touches live instances")

	r.TrimHandles("ghost", 0)
}

func TestRegistry_Handles(t *testing.T) {
	r := registry.New()

	h1 := domain.NewHandle()
	h2 := domain.NewHandle()
	r.AddHandle("n1", h1)
	r.AddHandle("N1", h2)

	handles := r.Handles("n1")
	require.Len(t, handles, 2)
	assert.Contains(t, handles, h1)
	assert.Contains(t, handles, h2)
}

func TestRegistry_Snapshot(t *testing.T) {
	r := registry.New()
	r.Put("b", "Zeta", stub("Zeta"))
	r.Put("a", "Tab", stub("Tab"))
	r.Put("a", "Panel", stub("Panel"))
	r.AddHandle("a", domain.NewHandle())

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].NodeID)
	assert.Equal(t, []string{"Panel", "Tab"}, snap[0].Types)
	assert.Equal(t, 1, snap[0].Subscriptions)
	assert.Equal(t, "b", snap[1].NodeID)

	assert.Equal(t, []string{"a", "b"}, r.Identities())
}
