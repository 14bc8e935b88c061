package main

import (
	"sort"
	"strings"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/behavior"
	"github.com/aretw0/espalier/pkg/domain"
)

// declarations is what a document declares: the distinct behavior and
// component names, plus per-node binding details for reporting.
type declarations struct {
	behaviors  map[string]struct{}
	components map[string]struct{}
	nodes      []nodeReport
}

type nodeReport struct {
	id        string
	behaviors []string
	component string
	depth     int
}

func collectDeclarations(root domain.Node) *declarations {
	d := &declarations{
		behaviors:  make(map[string]struct{}),
		components: make(map[string]struct{}),
	}
	d.walk(root, 0)
	return d
}

func (d *declarations) walk(n domain.Node, depth int) {
	if !n.IsElement() {
		return
	}

	report := nodeReport{id: n.ID(), depth: depth}
	for _, token := range domain.Tokens(n, domain.AttrBehavior) {
		d.behaviors[token] = struct{}{}
		report.behaviors = append(report.behaviors, token)
	}
	if declared, ok := n.Attr(domain.AttrComponent); ok && strings.TrimSpace(declared) != "" {
		name := strings.TrimSpace(declared)
		d.components[name] = struct{}{}
		report.component = name
	}
	d.nodes = append(d.nodes, report)

	for _, child := range n.Children() {
		d.walk(child, depth+1)
	}
}

func (d *declarations) behaviorNames() []string {
	return sortedKeys(d.behaviors)
}

func (d *declarations) componentNames() []string {
	return sortedKeys(d.components)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// genericBehavior and genericComponent are passthrough types the CLI binds to
// whatever names a document declares, so the full attachment lifecycle can
// run without compiled-in plugin types.
type genericBehavior struct{ behavior.Visual }

type genericComponent struct{ behavior.Interaction }

// registerDeclared registers a generic type for every name the document
// declares.
func registerDeclared(eng *espalier.Engine, d *declarations) error {
	for _, name := range d.behaviorNames() {
		if err := eng.RegisterBehavior(name, "", func() domain.Instance { return &genericBehavior{} }); err != nil {
			return err
		}
	}
	for _, name := range d.componentNames() {
		if err := eng.RegisterComponent(name, "", func() domain.Instance { return &genericComponent{} }); err != nil {
			return err
		}
	}
	return nil
}
