package behavior

import (
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Interaction is the root of the exclusive-interaction family. At most one
// interaction type binds to a node, through the single-token binding
// attribute. Network-facing component types are expected to embed it.
type Interaction struct {
	Base
}

// Validate requires, beyond the base identity check, that the registered
// type name equals the node's exclusive-interaction attribute value,
// case-insensitively.
func (c *Interaction) Validate() error {
	if err := c.Base.Validate(); err != nil {
		return err
	}
	declared, ok := c.Node().Attr(domain.AttrComponent)
	if !ok || !strings.EqualFold(strings.TrimSpace(declared), c.Descriptor().Name) {
		return domain.NewAssertionError(
			"node %q does not declare exclusive interaction %q", c.Node().ID(), c.Descriptor().Name)
	}
	return nil
}

// Match implements the canonical exclusive-family query: the node satisfies
// the target when its single declared interaction token resolves to a
// registered descriptor that is, or descends from, the target.
func (c *Interaction) Match(n domain.Node, target *domain.Descriptor) (*domain.Descriptor, bool, error) {
	if c.Runtime() == nil {
		return nil, false, domain.NewAssertionError("instance is not mounted")
	}
	if target == nil {
		return nil, false, domain.NewAssertionError("match requires a target descriptor")
	}

	declared, ok := n.Attr(domain.AttrComponent)
	if !ok {
		return nil, false, nil
	}
	desc, ok := c.Runtime().FindType(domain.CapabilityComponent, strings.TrimSpace(declared))
	if !ok || !desc.InheritsFrom(target) {
		return nil, false, nil
	}
	return desc, true, nil
}
