package memory

import (
	"fmt"
	"os"

	"github.com/aretw0/espalier/pkg/domain"
	"gopkg.in/yaml.v3"
)

// nodeSpec is the YAML shape of one document node.
type nodeSpec struct {
	ID        string            `yaml:"id"`
	Behaviors string            `yaml:"behaviors"`
	Component string            `yaml:"component"`
	Text      string            `yaml:"text"`
	Attrs     map[string]string `yaml:"attrs"`
	Children  []nodeSpec        `yaml:"children"`
}

// ParseDocument builds a Document from a YAML definition. The top-level
// mapping describes the root element; `behaviors` and `component` map to the
// declarative binding attributes:
//
//	id: root
//	children:
//	  - id: panel1
//	    behaviors: "TabPanel"
//	    children:
//	      - id: tab1
//	        behaviors: "Tab"
//	        component: "Uploader"
//	      - text: "plain text node"
func ParseDocument(data []byte, opts ...DocumentOption) (*Document, error) {
	var spec nodeSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse document definition: %w", err)
	}

	doc := NewDocument(opts...)
	applySpec(doc.Root(), spec)
	for _, childSpec := range spec.Children {
		if err := buildNode(doc, doc.Root(), childSpec); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// LoadDocument reads and parses a YAML document definition from disk.
func LoadDocument(path string, opts ...DocumentOption) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}
	return ParseDocument(data, opts...)
}

func buildNode(doc *Document, parent *Node, spec nodeSpec) error {
	if spec.ID == "" && spec.Text != "" && spec.Behaviors == "" && spec.Component == "" && len(spec.Children) == 0 {
		parent.AppendChild(doc.CreateText(spec.Text))
		return nil
	}

	n := doc.CreateElement(spec.ID, nil)
	applySpec(n, spec)
	parent.AppendChild(n)

	for _, childSpec := range spec.Children {
		if err := buildNode(doc, n, childSpec); err != nil {
			return err
		}
	}
	return nil
}

func applySpec(n *Node, spec nodeSpec) {
	for k, v := range spec.Attrs {
		n.SetAttr(k, v)
	}
	if spec.ID != "" {
		n.SetAttr(domain.AttrID, spec.ID)
	}
	if spec.Behaviors != "" {
		n.SetAttr(domain.AttrBehavior, spec.Behaviors)
	}
	if spec.Component != "" {
		n.SetAttr(domain.AttrComponent, spec.Component)
	}
}
