/*
Package espalier binds typed behavior objects to the nodes of an
externally-owned, mutable tree. Nodes declare what they want through
attributes; the engine resolves those declarations against registered type
catalogs, constructs instances on demand, memoizes them per node identity,
and tears everything down when nodes leave the tree.

# Concept

Espalier never owns the tree. The host (a DOM, an in-memory document, any
attributed node structure) mutates it freely; the engine maintains side
tables keyed by node identity and reacts to structural removals through the
host's mutation feed. This keeps the core embeddable in any interface: a
browser-like runtime, a server-side renderer, or a test harness.

Two capability families exist. Visual behaviors stack: a node may declare
any number of them in its space-separated "data-behavior" attribute.
Exclusive interactions do not: a node declares at most one in its
"data-component" attribute.

# Usage

Register types, enhance a subtree, observe removals:

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/espalier"
		"github.com/aretw0/espalier/pkg/adapters/memory"
		"github.com/aretw0/espalier/pkg/behavior"
		"github.com/aretw0/espalier/pkg/domain"
	)

	type TabPanel struct {
		behavior.Visual
	}

	func (p *TabPanel) Init() error {
		log.Println("panel ready on", p.Node().ID())
		return nil
	}

	func main() {
		doc := memory.NewDocument()
		eng, err := espalier.New(doc)
		if err != nil {
			log.Fatal(err)
		}

		eng.RegisterBehavior("TabPanel", "", func() domain.Instance { return &TabPanel{} })

		ctx := context.Background()
		if err := eng.Observe(ctx); err != nil {
			log.Fatal(err)
		}
		defer eng.Stop()

		panel := doc.CreateElement("panel1", map[string]string{domain.AttrBehavior: "TabPanel"})
		doc.Root().AppendChild(panel)

		if err := eng.Enhance(ctx, doc.Root()); err != nil {
			log.Fatal(err)
		}
	}
*/
package espalier
