/*
Package behavior provides the base type hierarchy for plugin authors.

Concrete types embed one of the two family roots and override Init (and
optionally Handlers or Markers):

	type TabPanel struct {
		behavior.Visual
	}

	func (p *TabPanel) Init() error {
		// startup logic
		return nil
	}

The engine drives the lifecycle in strict order: Mount (construct), Validate,
Apply, Init. Plugin code never calls lifecycle steps directly; it requests
instances through the engine's Resolve or Enhance entry points.
*/
package behavior
