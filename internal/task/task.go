// Package task defines the contract between the executor and the units of
// work it runs: a Task claims synchronization nodes while the graph is being
// built, is initialized once against the object list, and is then ticked
// repeatedly on its own goroutine until the generation ends.
package task

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vk/tickgrid/internal/ctxlog"
	"github.com/vk/tickgrid/internal/objects"
	"github.com/vk/tickgrid/internal/syncgraph"
)

// Task is a unit of concurrent work.
type Task interface {
	syncgraph.Claimant

	// Init is called once, before the first tick, on the executor's
	// goroutine. It is the only place a task may read the object list.
	Init(ctx context.Context, objs *objects.List) error

	// Tick runs one iteration. It is expected to wait on its claimed nodes,
	// do its work and release them, and must be safe to call again right
	// after returning Continue. A returned error is fatal for the generation,
	// except one wrapping syncgraph.ErrHalted.
	Tick(ctx context.Context) (ControlFlow, error)
}

// Closer is implemented by tasks holding resources. The executor calls Close
// once the generation the task belongs to has ended, whether or not Init
// succeeded.
type Closer interface {
	Close() error
}

// Graph is the builder for a task generation.
type Graph = syncgraph.Builder[Task]

// NewGraph returns an empty task graph builder.
func NewGraph() *Graph {
	return syncgraph.NewBuilder[Task]()
}

// Generation is one complete, wired task configuration.
type Generation struct {
	// ID is unique per assembled generation.
	ID string
	// Label is a human readable name, usually the graph name.
	Label    string
	Bindings []syncgraph.Binding[Task]
}

// Tasks returns the tasks of the generation in registration order.
func (g *Generation) Tasks() []Task {
	tasks := make([]Task, 0, len(g.Bindings))
	for _, b := range g.Bindings {
		tasks = append(tasks, b.Dependent)
	}
	return tasks
}

// Assemble validates and wires g and returns the resulting generation.
func Assemble(ctx context.Context, g *Graph, label string, entrypoints []string) (*Generation, error) {
	bindings, err := g.Wire(ctx, entrypoints)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble %q: %w", label, err)
	}
	gen := &Generation{
		ID:       uuid.NewString(),
		Label:    label,
		Bindings: bindings,
	}
	ctxlog.FromContext(ctx).Debug("Generation assembled.", "generation", gen.ID, "label", label, "tasks", len(bindings))
	return gen, nil
}
