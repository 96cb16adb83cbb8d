package syncgraph

import "fmt"

// Template is the build-time declaration of a synchronization node: its name
// and the names of its children. It owns the runtime Node that the Builder
// wires and that dependents claim.
type Template struct {
	name     string
	children []string
	node     *Node
}

// NewTemplate creates a template with no children. Its runtime node starts
// without edges.
func NewTemplate(name string, children ...string) *Template {
	t := &Template{
		name: name,
		node: newNode(name),
	}
	t.children = append(t.children, children...)
	return t
}

// Name returns the template name.
func (t *Template) Name() string {
	return t.name
}

// Children returns a copy of the declared child names, in declaration order.
func (t *Template) Children() []string {
	return append([]string(nil), t.children...)
}

// PushChild appends a child name. Children must be added before the template
// is pushed into a Builder.
func (t *Template) PushChild(name string) {
	t.children = append(t.children, name)
}

// Node returns the runtime node owned by this template.
func (t *Template) Node() *Node {
	return t.node
}

// String implements fmt.Stringer.
func (t *Template) String() string {
	return fmt.Sprintf("Template{name: %q, children: %q}", t.name, t.children)
}
