package app

import (
	"context"
	"fmt"

	"github.com/vk/tickgrid/internal/ctxlog"
	"github.com/vk/tickgrid/internal/executor"
)

// Run builds the objects and the configured initial graph, then drives the
// executor until a task stops it or ctx is canceled. It returns the stop
// reason.
func (a *App) Run(ctx context.Context) (string, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
		defer a.stopHealthcheckServer()
	}

	objs, err := a.assembler.Objects(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to build objects: %w", err)
	}
	a.logger.Debug("Objects built.", "names", objs.Names())

	gen, err := a.assembler.Assemble(ctx, a.config.GraphName)
	if err != nil {
		return "", fmt.Errorf("failed to build graph: %w", err)
	}

	a.logger.Info("Task kinds registered:", "count", len(a.registry.TaskKinds()), "keys", a.registry.TaskKinds())
	a.logger.Info("Object kinds registered:", "count", len(a.registry.ObjectKinds()), "keys", a.registry.ObjectKinds())

	a.logger.Info("🚀 Starting concurrent execution...", "graph", gen.Label, "generation", gen.ID, "tasks", len(gen.Bindings))
	reason, err := executor.New(gen).Run(ctx, objs)
	if err != nil {
		return "", fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.", "reason", reason)

	a.logger.Debug("App.Run method finished.")
	return reason, nil
}
