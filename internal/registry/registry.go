package registry

import (
	"context"
	"log/slog"
	"sort"

	"github.com/vk/tickgrid/internal/task"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Env is what a task factory may capture besides its own arguments.
type Env struct {
	Logger *slog.Logger
	// Rebuild assembles a fresh generation from another graph of the same
	// grid. Tasks use it to produce ReplaceWith signals.
	Rebuild func(ctx context.Context, graph string) (*task.Generation, error)
}

// Registry holds the registered task and object kinds for a single
// application instance.
type Registry struct {
	tasks   map[string]*RegisteredTask
	objects map[string]*RegisteredObject
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		tasks:   make(map[string]*RegisteredTask),
		objects: make(map[string]*RegisteredObject),
	}
}

// Task returns the registered task kind.
func (r *Registry) Task(kind string) (*RegisteredTask, bool) {
	t, ok := r.tasks[kind]
	return t, ok
}

// Object returns the registered object kind.
func (r *Registry) Object(kind string) (*RegisteredObject, bool) {
	o, ok := r.objects[kind]
	return o, ok
}

// TaskKinds returns the registered task kinds, sorted.
func (r *Registry) TaskKinds() []string {
	return sortedKeys(r.tasks)
}

// ObjectKinds returns the registered object kinds, sorted.
func (r *Registry) ObjectKinds() []string {
	return sortedKeys(r.objects)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
