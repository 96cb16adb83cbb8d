// Package counter provides the `counter` object, a shared integer cell, and
// the `halve` and `increment` tasks that take turns modifying it.
package counter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vk/tickgrid/internal/objects"
	"github.com/vk/tickgrid/internal/registry"
	"github.com/vk/tickgrid/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// ObjectInput defines the arguments of a counter object.
type ObjectInput struct {
	Value int `bggo:"value"`
}

// TaskInput defines the arguments of the halve and increment tasks.
type TaskInput struct {
	Counter string `bggo:"counter"`
}

// Counter is a named integer cell. Clones share the cell.
type Counter struct {
	name string
	cell *cell
}

type cell struct {
	mu    sync.RWMutex
	value int
}

// NewCounter returns a counter holding value.
func NewCounter(name string, value int) *Counter {
	return &Counter{name: name, cell: &cell{value: value}}
}

// ObjectName implements objects.Object.
func (c *Counter) ObjectName() string { return c.name }

// Clone implements objects.Object.
func (c *Counter) Clone() objects.Object {
	return &Counter{name: c.name, cell: c.cell}
}

// Value returns the current value.
func (c *Counter) Value() int {
	c.cell.mu.RLock()
	defer c.cell.mu.RUnlock()
	return c.cell.value
}

// Update replaces the value with fn(value) and returns the new value.
func (c *Counter) Update(fn func(int) int) int {
	c.cell.mu.Lock()
	defer c.cell.mu.Unlock()
	c.cell.value = fn(c.cell.value)
	return c.cell.value
}

// Halve divides v by two unless it already reached 1.
func Halve(v int) int {
	if v == 1 {
		return v
	}
	return v / 2
}

// Increment adds one to v unless it already reached 1.
func Increment(v int) int {
	if v == 1 {
		return v
	}
	return v + 1
}

// stepTask applies step to its counter once per tick, between waiting on
// and releasing its claimed nodes.
type stepTask struct {
	task.Claims
	kind        string
	counterName string
	step        func(int) int
	logger      *slog.Logger

	counter *Counter
}

// NewStepTask returns a task named name that applies step to the counter
// called counterName on every tick.
func NewStepTask(kind string, spec registry.TaskSpec, counterName string, step func(int) int) task.Task {
	logger := spec.Env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &stepTask{
		Claims:      task.NewClaims(spec.Name, spec.Claims...),
		kind:        kind,
		counterName: counterName,
		step:        step,
		logger:      logger.With("task", spec.Name, "kind", kind),
	}
}

func (t *stepTask) Init(_ context.Context, objs *objects.List) error {
	c, ok := objects.CloneByName[*Counter](objs, t.counterName)
	if !ok {
		return fmt.Errorf("no counter object named %q", t.counterName)
	}
	t.counter = c
	t.logger.Debug("Counter acquired.", "counter", t.counterName, "value", c.Value())
	return nil
}

func (t *stepTask) Tick(ctx context.Context) (task.ControlFlow, error) {
	return t.Bracket(ctx, func(context.Context) (task.ControlFlow, error) {
		before := t.counter.Value()
		after := t.counter.Update(t.step)
		if after != before {
			t.logger.Info(fmt.Sprintf("%s: %d", t.kind, after))
		}
		return task.Continue(), nil
	})
}

// Register registers the counter object and its tasks.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterObject("counter", &registry.RegisteredObject{
		NewInput: func() any { return new(ObjectInput) },
		New: func(_ context.Context, name string, input any) (objects.Object, error) {
			in := input.(*ObjectInput)
			if in.Value < 0 {
				return nil, fmt.Errorf("counter value must not be negative, got %d", in.Value)
			}
			return NewCounter(name, in.Value), nil
		},
	})

	for kind, step := range map[string]func(int) int{
		"halve":     Halve,
		"increment": Increment,
	} {
		r.RegisterTask(kind, &registry.RegisteredTask{
			NewInput: func() any { return new(TaskInput) },
			New: func(_ context.Context, spec registry.TaskSpec, input any) (task.Task, error) {
				return NewStepTask(kind, spec, input.(*TaskInput).Counter, step), nil
			},
		})
	}
}
