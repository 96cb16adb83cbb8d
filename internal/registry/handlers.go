package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/tickgrid/internal/objects"
	"github.com/vk/tickgrid/internal/task"
)

// TaskSpec is the declaration of one task in a graph, after its arguments
// were decoded.
type TaskSpec struct {
	Name   string
	Claims []string
	Env    Env
}

// RegisteredTask holds the compiled Go parts of a task kind.
type RegisteredTask struct {
	// NewInput returns a pointer to a fresh input struct. Defaults for
	// optional arguments are set here.
	NewInput func() any
	// New builds the task. input is the value NewInput returned, decoded.
	New func(ctx context.Context, spec TaskSpec, input any) (task.Task, error)
}

// RegisterTask registers the Go factory for a task kind.
func (r *Registry) RegisterTask(kind string, handler *RegisteredTask) {
	if _, exists := r.tasks[kind]; exists {
		panic(fmt.Sprintf("task kind '%s' already registered", kind))
	}
	slog.Debug("Registering task kind.", "kind", kind)
	r.tasks[kind] = handler
}

// RegisteredObject holds the compiled Go parts of an object kind.
type RegisteredObject struct {
	NewInput func() any
	New      func(ctx context.Context, name string, input any) (objects.Object, error)
}

// RegisterObject registers the Go factory for an object kind.
func (r *Registry) RegisterObject(kind string, handler *RegisteredObject) {
	if _, exists := r.objects[kind]; exists {
		panic(fmt.Sprintf("object kind '%s' already registered", kind))
	}
	slog.Debug("Registering object kind.", "kind", kind)
	r.objects[kind] = handler
}
