// Package grid turns a loaded grid model into runnable pieces: the object
// list shared by every generation and, per graph, a wired task generation.
package grid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vk/tickgrid/internal/ctxlog"
	"github.com/vk/tickgrid/internal/hcl"
	"github.com/vk/tickgrid/internal/model"
	"github.com/vk/tickgrid/internal/objects"
	"github.com/vk/tickgrid/internal/registry"
	"github.com/vk/tickgrid/internal/syncgraph"
	"github.com/vk/tickgrid/internal/task"
)

// ErrUnknownGraph is returned when a graph name is not declared in the grid.
var ErrUnknownGraph = errors.New("unknown graph")

// Assembler builds objects and generations from a grid. It is safe for
// concurrent use: tasks call Assemble from their own goroutines through
// registry.Env.Rebuild.
type Assembler struct {
	grid   *model.Grid
	reg    *registry.Registry
	conv   *hcl.Converter
	logger *slog.Logger
}

// NewAssembler returns an assembler over grid, using the kinds registered in
// reg and evaluating arguments with conv.
func NewAssembler(grid *model.Grid, reg *registry.Registry, conv *hcl.Converter) *Assembler {
	return &Assembler{grid: grid, reg: reg, conv: conv}
}

// SetLogger sets the logger handed to tasks. Without one, tasks get the
// logger of the context Assemble was called with.
func (a *Assembler) SetLogger(l *slog.Logger) {
	a.logger = l
}

// Objects builds every object declared in the grid.
func (a *Assembler) Objects(ctx context.Context) (*objects.List, error) {
	logger := ctxlog.FromContext(ctx)
	list, err := objects.New()
	if err != nil {
		return nil, err
	}

	for _, o := range a.grid.Objects {
		reg, ok := a.reg.Object(o.Kind)
		if !ok {
			return nil, fmt.Errorf("object %q at %s: unknown object kind %q", o.Name, o.FSInformation, o.Kind)
		}
		input := reg.NewInput()
		if err := a.conv.DecodeArguments(ctx, input, o.Arguments); err != nil {
			return nil, fmt.Errorf("object %q at %s: %w", o.Name, o.FSInformation, err)
		}
		obj, err := reg.New(ctx, o.Name, input)
		if err != nil {
			return nil, fmt.Errorf("object %q at %s: %w", o.Name, o.FSInformation, err)
		}
		if err := list.Push(obj); err != nil {
			return nil, err
		}
		logger.Debug("Object built.", "kind", o.Kind, "name", o.Name)
	}
	return list, nil
}

// Assemble builds fresh tasks for the graph called name, wires them and
// returns the resulting generation.
func (a *Assembler) Assemble(ctx context.Context, name string) (*task.Generation, error) {
	def, ok := a.grid.Graph(name)
	if !ok {
		return nil, fmt.Errorf("%w %q, known graphs: %v", ErrUnknownGraph, name, a.grid.GraphNames())
	}
	ctx = ctxlog.With(ctx, "graph", name)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Assembling graph.", "nodes", len(def.Nodes), "tasks", len(def.Tasks))

	g := task.NewGraph()
	for _, n := range def.Nodes {
		if err := g.PushNode(syncgraph.NewTemplate(n.Name, n.Children...)); err != nil {
			return nil, fmt.Errorf("graph %q at %s: %w", name, def.FSInformation, err)
		}
	}

	taskLogger := logger
	if a.logger != nil {
		taskLogger = a.logger.With("graph", name)
	}
	env := registry.Env{Logger: taskLogger, Rebuild: a.Assemble}
	for _, t := range def.Tasks {
		tk, err := a.buildTask(ctx, t, env)
		if err != nil {
			return nil, fmt.Errorf("graph %q: task %q at %s: %w", name, t.Name, t.FSInformation, err)
		}
		if err := g.PushDependency(tk); err != nil {
			return nil, fmt.Errorf("graph %q at %s: %w", name, t.FSInformation, err)
		}
	}

	return task.Assemble(ctx, g, name, def.Entrypoints)
}

func (a *Assembler) buildTask(ctx context.Context, t *model.Task, env registry.Env) (task.Task, error) {
	reg, ok := a.reg.Task(t.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown task kind %q", t.Kind)
	}
	input := reg.NewInput()
	if err := a.conv.DecodeArguments(ctx, input, t.Arguments); err != nil {
		return nil, err
	}
	return reg.New(ctx, registry.TaskSpec{Name: t.Name, Claims: t.Claims, Env: env}, input)
}
