package app

import (
	"context"
	"fmt"

	"github.com/vk/tickgrid/internal/ctxlog"
	"github.com/vk/tickgrid/internal/model"
	"github.com/vk/tickgrid/internal/registry"
)

// loadGrid reads every grid file under the configured path.
func loadGrid(ctx context.Context, cfg *Config) (*model.Grid, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading grids...", "grid_path", cfg.GridPath)

	grid, err := model.LoadGridsRecursively(ctx, cfg.GridPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load grid: %w", err)
	}
	if _, ok := grid.Graph(cfg.GraphName); !ok {
		return nil, fmt.Errorf("graph %q not found in %s, known graphs: %v", cfg.GraphName, cfg.GridPath, grid.GraphNames())
	}
	return grid, nil
}

// buildRegistry registers modules and validates them against grid.
func buildRegistry(ctx context.Context, grid *model.Grid, modules []registry.Module) (*registry.Registry, error) {
	logger := ctxlog.FromContext(ctx)

	reg := registry.New()
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "tasks", reg.TaskKinds(), "objects", reg.ObjectKinds())

	if err := reg.ValidateRegistry(ctx); err != nil {
		return nil, err
	}
	if err := reg.Validate(ctx, grid); err != nil {
		return nil, err
	}
	logger.Debug("Registry validation passed.")
	return reg, nil
}
