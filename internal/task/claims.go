package task

import (
	"context"
	"fmt"
	"slices"

	"github.com/vk/tickgrid/internal/syncgraph"
)

// Claims implements syncgraph.Claimant for tasks that claim nodes by name.
// Embed it in a task and construct it with NewClaims.
type Claims struct {
	name      string
	required  []string
	nodes     map[string]*syncgraph.Node
	submitted []string
}

// NewClaims returns claims for a task called name that requires the given
// node names. Duplicate names are ignored.
func NewClaims(name string, required ...string) Claims {
	c := Claims{
		name:  name,
		nodes: make(map[string]*syncgraph.Node, len(required)),
	}
	for _, r := range required {
		if !slices.Contains(c.required, r) {
			c.required = append(c.required, r)
		}
	}
	return c
}

// Name implements syncgraph.Claimant.
func (c *Claims) Name() string { return c.name }

// Required returns the required node names in declaration order.
func (c *Claims) Required() []string { return slices.Clone(c.required) }

// Submit implements syncgraph.Claimant. The first node offered under a
// required name is kept.
func (c *Claims) Submit(tmpl *syncgraph.Template) syncgraph.SubmissionResult {
	name := tmpl.Name()
	if !slices.Contains(c.required, name) {
		return syncgraph.NotMine
	}
	if _, dup := c.nodes[name]; dup {
		return syncgraph.NotMine
	}
	c.nodes[name] = tmpl.Node()
	return syncgraph.Claimed
}

// PushSubmitted implements syncgraph.Claimant.
func (c *Claims) PushSubmitted(name string) { c.submitted = append(c.submitted, name) }

// Submitted implements syncgraph.Claimant.
func (c *Claims) Submitted() []string { return c.submitted }

// Filled implements syncgraph.Claimant.
func (c *Claims) Filled() bool { return len(c.nodes) == len(c.required) }

// Node returns the claimed node called name. Asking for a node the task never
// declared is a programming error and panics.
func (c *Claims) Node(name string) *syncgraph.Node {
	n, ok := c.nodes[name]
	if !ok {
		panic(fmt.Sprintf("task %q: node %q was not claimed", c.name, name))
	}
	return n
}

// WaitAll waits for the parents of every required node, in declaration order.
func (c *Claims) WaitAll(ctx context.Context) error {
	for _, name := range c.required {
		if err := c.Node(name).WaitForParents(ctx); err != nil {
			return fmt.Errorf("task %q: %w", c.name, err)
		}
	}
	return nil
}

// ReleaseAll releases the children of every required node, in declaration
// order.
func (c *Claims) ReleaseAll(ctx context.Context) error {
	for _, name := range c.required {
		if err := c.Node(name).ReleaseChildren(ctx); err != nil {
			return fmt.Errorf("task %q: %w", c.name, err)
		}
	}
	return nil
}

// Bracket waits on every claimed node, runs work, then releases every claimed
// node. The flow returned by work is returned once the release succeeded.
func (c *Claims) Bracket(ctx context.Context, work func(context.Context) (ControlFlow, error)) (ControlFlow, error) {
	if err := c.WaitAll(ctx); err != nil {
		return Continue(), err
	}
	flow, err := work(ctx)
	if err != nil {
		return flow, err
	}
	if err := c.ReleaseAll(ctx); err != nil {
		return Continue(), err
	}
	return flow, nil
}
