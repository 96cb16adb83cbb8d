package syncgraph

import (
	"context"
	"errors"
	"slices"

	"github.com/vk/tickgrid/internal/ctxlog"
)

var errConsumed = errors.New("synchronization graph builder was already consumed")

// Binding pairs a dependent with the runtime nodes it claimed.
type Binding[T Claimant] struct {
	Dependent T
	Nodes     []*Node
}

// Builder accumulates templates and dependents, then validates and wires them
// into a runnable graph. A Builder is single use: any call to Wire, successful
// or not, consumes it.
type Builder[T Claimant] struct {
	templates  []*Template
	dependents []T
	consumed   bool
}

// NewBuilder returns an empty builder.
func NewBuilder[T Claimant]() *Builder[T] {
	return &Builder[T]{}
}

// PushNode appends a template. It fails with ErrDuplicateName if a template
// with the same name was already pushed.
func (b *Builder[T]) PushNode(tmpl *Template) error {
	for _, existing := range b.templates {
		if existing.name == tmpl.name {
			return &GraphError{Kind: ErrDuplicateName, Node: tmpl.name}
		}
	}
	b.templates = append(b.templates, tmpl)
	return nil
}

// PushDependency appends a dependent. It fails with ErrDuplicateName if a
// dependent with the same name was already pushed.
func (b *Builder[T]) PushDependency(dep T) error {
	name := dep.Name()
	for _, existing := range b.dependents {
		if existing.Name() == name {
			return &GraphError{Kind: ErrDuplicateName, Dependent: name, DuplicateDependent: true}
		}
	}
	b.dependents = append(b.dependents, dep)
	return nil
}

// Templates returns the pushed templates in registration order.
func (b *Builder[T]) Templates() []*Template {
	return slices.Clone(b.templates)
}

// Wire validates the graph, allocates one single-slot edge per declared
// parent/child pair, pre-charges the edges leaving every entrypoint, and lets
// each dependent claim its nodes, through its own NodeSubmitter routine if it
// has one. On success it returns the dependents in registration order
// together with the nodes each one claimed.
func (b *Builder[T]) Wire(ctx context.Context, entrypoints []string) ([]Binding[T], error) {
	logger := ctxlog.FromContext(ctx)
	if b.consumed {
		return nil, errConsumed
	}
	// Linking mutates the runtime nodes, so even a failed attempt uses the
	// builder up.
	b.consumed = true

	logger.Debug("Wire: validating and linking nodes.", "nodes", len(b.templates), "entrypoints", entrypoints)
	if err := b.link(ctx, entrypoints); err != nil {
		return nil, err
	}

	logger.Debug("Wire: resolving claims.", "dependents", len(b.dependents))
	bindings := make([]Binding[T], 0, len(b.dependents))
	for _, dep := range b.dependents {
		var nodes []*Node
		if custom, ok := any(dep).(NodeSubmitter); ok {
			nodes = custom.SubmitNodes(ctx, slices.Clone(b.templates))
		} else {
			nodes = SubmitNodes(ctx, dep, b.templates)
		}
		if !dep.Filled() {
			return nil, &GraphError{
				Kind:      ErrUnfilledDependency,
				Dependent: dep.Name(),
				Claimed:   slices.Clone(dep.Submitted()),
			}
		}
		bindings = append(bindings, Binding[T]{Dependent: dep, Nodes: nodes})
	}

	logger.Debug("Wire: graph wired successfully.")
	return bindings, nil
}

// link performs structural validation and edge allocation.
func (b *Builder[T]) link(ctx context.Context, entrypoints []string) error {
	logger := ctxlog.FromContext(ctx)

	for i, parent := range b.templates {
		if len(parent.children) == 0 {
			return &GraphError{Kind: ErrNoChildren, Node: parent.name}
		}
		charged := slices.Contains(entrypoints, parent.name)

		for _, childName := range parent.children {
			child := b.lookupOther(i, childName)
			if child == nil {
				return &GraphError{Kind: ErrUnresolvedChild, Node: parent.name, Child: childName}
			}

			e := newEdge(parent.name, child.name)
			if charged {
				e.charge()
			}
			parent.node.children = append(parent.node.children, e)
			child.node.parents = append(child.node.parents, e)
			logger.Debug("Linked edge.", "edge", e.String(), "precharged", charged)
		}
	}
	return nil
}

// lookupOther finds the first template other than the one at index self whose
// name is name.
func (b *Builder[T]) lookupOther(self int, name string) *Template {
	for j, candidate := range b.templates {
		if j == self {
			continue
		}
		if candidate.name == name {
			return candidate
		}
	}
	return nil
}
