package behavior

import (
	"github.com/aretw0/espalier/pkg/domain"
)

// Visual is the root of the visual-behavior family. A node may bind any
// number of visual behaviors simultaneously through the space-separated
// token list in its binding attribute.
type Visual struct {
	Base
}

// Validate requires, beyond the base identity check, that the registered
// type name appears in the node's visual-behavior token list.
func (v *Visual) Validate() error {
	if err := v.Base.Validate(); err != nil {
		return err
	}
	if !domain.HasToken(v.Node(), domain.AttrBehavior, v.Descriptor().Name) {
		return domain.NewAssertionError(
			"node %q does not declare visual behavior %q", v.Node().ID(), v.Descriptor().Name)
	}
	return nil
}

// Match implements the canonical visual-family query: the node satisfies the
// target when any of its declared behavior tokens resolves to a registered
// descriptor that is, or descends from, the target. The most specific match
// wins.
func (v *Visual) Match(n domain.Node, target *domain.Descriptor) (*domain.Descriptor, bool, error) {
	if v.Runtime() == nil {
		return nil, false, domain.NewAssertionError("instance is not mounted")
	}
	if target == nil {
		return nil, false, domain.NewAssertionError("match requires a target descriptor")
	}

	var best *domain.Descriptor
	for _, token := range domain.Tokens(n, domain.AttrBehavior) {
		desc, ok := v.Runtime().FindType(domain.CapabilityBehavior, token)
		if ok && desc.InheritsFrom(target) {
			best = domain.MoreSpecific(best, desc)
		}
	}
	return best, best != nil, nil
}
