// Package control provides tasks that end a generation: `stop_after` stops
// the executor and `switch_after` replaces the running generation with one
// built from another graph.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vk/tickgrid/internal/objects"
	"github.com/vk/tickgrid/internal/registry"
	"github.com/vk/tickgrid/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// StopInput defines the arguments of the stop_after task.
type StopInput struct {
	After  int    `bggo:"after"`
	Reason string `bggo:"reason,optional"`
}

// SwitchInput defines the arguments of the switch_after task.
type SwitchInput struct {
	After int    `bggo:"after"`
	Graph string `bggo:"graph"`
}

// DefaultReason is the stop reason of a stop_after task without one.
const DefaultReason = "done"

// countdown ends its generation with the flow produced by done on the tick
// numbered after.
type countdown struct {
	task.Claims
	after  int
	done   func(ctx context.Context) (task.ControlFlow, error)
	logger *slog.Logger

	ticks int
}

func newCountdown(spec registry.TaskSpec, after int, done func(context.Context) (task.ControlFlow, error)) (task.Task, error) {
	if after < 1 {
		return nil, fmt.Errorf("'after' must be at least 1, got %d", after)
	}
	logger := spec.Env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &countdown{
		Claims: task.NewClaims(spec.Name, spec.Claims...),
		after:  after,
		done:   done,
		logger: logger.With("task", spec.Name),
	}, nil
}

func (c *countdown) Init(context.Context, *objects.List) error {
	c.ticks = 0
	return nil
}

func (c *countdown) Tick(ctx context.Context) (task.ControlFlow, error) {
	return c.Bracket(ctx, func(ctx context.Context) (task.ControlFlow, error) {
		c.ticks++
		if c.ticks < c.after {
			return task.Continue(), nil
		}
		c.logger.Debug("Countdown elapsed.", "ticks", c.ticks)
		return c.done(ctx)
	})
}

// NewStopAfter returns a task that stops the executor with reason on its
// after-th tick.
func NewStopAfter(spec registry.TaskSpec, in StopInput) (task.Task, error) {
	reason := in.Reason
	if reason == "" {
		reason = DefaultReason
	}
	return newCountdown(spec, in.After, func(context.Context) (task.ControlFlow, error) {
		return task.Stop(reason), nil
	})
}

// NewSwitchAfter returns a task that, on its after-th tick, assembles the
// graph named in the input and asks the executor to run it instead.
func NewSwitchAfter(spec registry.TaskSpec, in SwitchInput) (task.Task, error) {
	if in.Graph == "" {
		return nil, errors.New("'graph' must not be empty")
	}
	if spec.Env.Rebuild == nil {
		return nil, errors.New("graph rebuilding is not available")
	}
	return newCountdown(spec, in.After, func(ctx context.Context) (task.ControlFlow, error) {
		next, err := spec.Env.Rebuild(ctx, in.Graph)
		if err != nil {
			return task.Continue(), fmt.Errorf("failed to build graph %q: %w", in.Graph, err)
		}
		return task.ReplaceWith(next), nil
	})
}

// Register registers the stop_after and switch_after tasks.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("stop_after", &registry.RegisteredTask{
		NewInput: func() any { return new(StopInput) },
		New: func(_ context.Context, spec registry.TaskSpec, input any) (task.Task, error) {
			return NewStopAfter(spec, *input.(*StopInput))
		},
	})
	r.RegisterTask("switch_after", &registry.RegisteredTask{
		NewInput: func() any { return new(SwitchInput) },
		New: func(_ context.Context, spec registry.TaskSpec, input any) (task.Task, error) {
			return NewSwitchAfter(spec, *input.(*SwitchInput))
		},
	})
}
