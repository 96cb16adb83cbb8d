package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/tickgrid/internal/ctxlog"
	"github.com/vk/tickgrid/internal/grid"
	"github.com/vk/tickgrid/internal/hcl"
	"github.com/vk/tickgrid/internal/model"
	"github.com/vk/tickgrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	grid       *model.Grid
	assembler  *grid.Assembler
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Configuration errors are fatal startup errors and panic.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	if cfg.GraphName == "" {
		cfg.GraphName = DefaultGraphName
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	g, err := loadGrid(ctx, cfg)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}

	if len(modules) == 0 {
		modules = coreModules
	}
	reg, err := buildRegistry(ctx, g, modules)
	if err != nil {
		// This is a mismatch between code and config, so we panic.
		panic(err)
	}

	conv, err := hcl.NewProcessConverter()
	if err != nil {
		panic(err)
	}

	assembler := grid.NewAssembler(g, reg, conv)
	assembler.SetLogger(logger)

	return &App{
		outW:      outW,
		logger:    logger,
		config:    cfg,
		registry:  reg,
		grid:      g,
		assembler: assembler,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Grid returns the loaded grid model.
func (a *App) Grid() *model.Grid {
	return a.grid
}
