// Package executor runs task generations: one goroutine per task, ticking
// until one of them ends the generation with a Stop or ReplaceWith signal.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vk/tickgrid/internal/ctxlog"
	"github.com/vk/tickgrid/internal/metrics"
	"github.com/vk/tickgrid/internal/objects"
	"github.com/vk/tickgrid/internal/task"
)

// ErrInconsistentSignal is returned when every task goroutine of a generation
// has exited but none of them published a terminal signal.
var ErrInconsistentSignal = errors.New("all tasks stopped but the control signal is still continue")

// InterruptedReason is the stop reason published when the context passed to
// Run is canceled.
const InterruptedReason = "interrupted"

// Executor owns the current generation and drives it.
type Executor struct {
	mu  sync.Mutex
	gen *task.Generation
}

// New returns an executor that will start with gen.
func New(gen *task.Generation) *Executor {
	return &Executor{gen: gen}
}

// BuildAndSubmit wires g and returns an executor for the resulting
// generation. Build errors are returned before any goroutine is started.
func BuildAndSubmit(ctx context.Context, g *task.Graph, label string, entrypoints []string) (*Executor, error) {
	gen, err := task.Assemble(ctx, g, label, entrypoints)
	if err != nil {
		return nil, err
	}
	return New(gen), nil
}

// Generation returns the generation that is running, or will run next.
func (e *Executor) Generation() *task.Generation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

func (e *Executor) swap(next *task.Generation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen = next
}

// Run executes generations until one of them stops. It returns the stop
// reason. A task that fails to initialize, panics or returns a fatal tick
// error makes Run return an error naming the task. Canceling ctx stops the
// running generation with InterruptedReason.
func (e *Executor) Run(ctx context.Context, objs *objects.List) (string, error) {
	logger := ctxlog.FromContext(ctx)

	for {
		gen := e.Generation()
		flow, err := e.runGeneration(ctx, gen, objs)
		if err != nil {
			metrics.GenerationsTotal.WithLabelValues("failed").Inc()
			return "", err
		}

		switch flow.Kind() {
		case task.FlowReplace:
			metrics.GenerationsTotal.WithLabelValues("replace").Inc()
			next := flow.Next()
			logger.Info("Replacing generation.", "from", gen.Label, "from_id", gen.ID, "to", next.Label, "to_id", next.ID)
			e.swap(next)
		case task.FlowStop:
			metrics.GenerationsTotal.WithLabelValues("stop").Inc()
			logger.Info("Executor stopped.", "generation", gen.ID, "reason", flow.Reason())
			return flow.Reason(), nil
		default:
			metrics.GenerationsTotal.WithLabelValues("failed").Inc()
			return "", fmt.Errorf("generation %q (%s): %w", gen.Label, gen.ID, ErrInconsistentSignal)
		}
	}
}

// runGeneration performs the init, spawn, drain cycle for one generation and
// returns the published signal.
func (e *Executor) runGeneration(ctx context.Context, gen *task.Generation, objs *objects.List) (task.ControlFlow, error) {
	ctx = ctxlog.With(ctx, "generation", gen.ID, "label", gen.Label)
	logger := ctxlog.FromContext(ctx)

	defer closeTasks(ctx, gen)

	logger.Debug("Initializing tasks.", "count", len(gen.Bindings))
	for _, b := range gen.Bindings {
		if err := b.Dependent.Init(ctx, objs); err != nil {
			metrics.TaskFailuresTotal.WithLabelValues(b.Dependent.Name(), "init").Inc()
			return task.Continue(), fmt.Errorf("task %q failed to initialize: %w", b.Dependent.Name(), err)
		}
	}

	genCtx, halt := context.WithCancel(ctx)
	defer halt()
	sig := newSignal(halt)

	stopWatch := context.AfterFunc(ctx, func() {
		sig.Publish(task.Stop(InterruptedReason))
	})
	defer stopWatch()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []error
	)
	logger.Debug("Spawning task goroutines.", "count", len(gen.Bindings))
	for _, b := range gen.Bindings {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runLoop(genCtx, sig, b); err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	logger.Debug("All task goroutines joined.")

	if len(failures) > 0 {
		return task.Continue(), errors.Join(failures...)
	}
	if ctx.Err() != nil {
		// The watcher may not have run yet when the tasks already saw the halt.
		sig.Publish(task.Stop(InterruptedReason))
	}
	return sig.Load(), nil
}

// closeTasks releases the resources of every task implementing task.Closer.
func closeTasks(ctx context.Context, gen *task.Generation) {
	logger := ctxlog.FromContext(ctx)
	for _, t := range gen.Tasks() {
		c, ok := t.(task.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			logger.Warn("Task failed to close.", "task", t.Name(), "error", err)
		}
	}
}
