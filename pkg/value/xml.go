package value

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// XMLNode is an XML element together with its subtree.
type XMLNode struct {
	element *etree.Element
}

// ParseXML reads text holding a single root element.
func ParseXML(text string) (*XMLNode, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		return nil, fmt.Errorf("parsing xml: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parsing xml: no root element")
	}
	return &XMLNode{element: root.Copy()}, nil
}

// Name is the element's qualified tag.
func (n *XMLNode) Name() string { return n.element.FullTag() }

// Attr returns the value of the named attribute.
func (n *XMLNode) Attr(name string) (string, bool) {
	a := n.element.SelectAttr(name)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

// Text is the element's trimmed character data.
func (n *XMLNode) Text() string { return strings.TrimSpace(n.element.Text()) }

// Children returns the child elements.
func (n *XMLNode) Children() []*XMLNode {
	children := n.element.ChildElements()
	out := make([]*XMLNode, 0, len(children))
	for _, c := range children {
		out = append(out, &XMLNode{element: c})
	}
	return out
}

// FindElement evaluates an etree path ("./body/id", "//id") below n.
func (n *XMLNode) FindElement(path string) (*XMLNode, bool) {
	found := n.element.FindElement(path)
	if found == nil {
		return nil, false
	}
	return &XMLNode{element: found}, true
}

func (n *XMLNode) StringLiteral() string {
	doc := etree.NewDocument()
	doc.SetRoot(n.element.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

func (n *XMLNode) DisplayableValue() string {
	doc := etree.NewDocument()
	doc.SetRoot(n.element.Copy())
	doc.Indent(4)
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func (n *XMLNode) TypeName() string { return "xml" }
func (n *XMLNode) Native() any      { return n.StringLiteral() }
func (*XMLNode) isValue()           {}

func equalElements(a, b *etree.Element) bool {
	if a.FullTag() != b.FullTag() {
		return false
	}
	if !equalAttrs(a.Attr, b.Attr) {
		return false
	}
	ac, bc := a.ChildElements(), b.ChildElements()
	if len(ac) != len(bc) {
		return false
	}
	if len(ac) == 0 {
		return strings.TrimSpace(a.Text()) == strings.TrimSpace(b.Text())
	}
	for i := range ac {
		if !equalElements(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

func equalAttrs(a, b []etree.Attr) bool {
	if len(a) != len(b) {
		return false
	}
	render := func(attrs []etree.Attr) []string {
		out := make([]string, 0, len(attrs))
		for _, at := range attrs {
			out = append(out, at.FullKey()+"="+at.Value)
		}
		sort.Strings(out)
		return out
	}
	ra, rb := render(a), render(b)
	for i := range ra {
		if ra[i] != rb[i] {
			return false
		}
	}
	return true
}
