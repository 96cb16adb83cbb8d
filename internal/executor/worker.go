package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/tickgrid/internal/ctxlog"
	"github.com/vk/tickgrid/internal/metrics"
	"github.com/vk/tickgrid/internal/syncgraph"
	"github.com/vk/tickgrid/internal/task"
)

// runLoop is the tick loop of a single task goroutine. It returns a non-nil
// error only for the failure that ended the generation.
func runLoop(ctx context.Context, sig *signal, b syncgraph.Binding[task.Task]) (err error) {
	t := b.Dependent
	ctx = ctxlog.With(ctx, "task", t.Name())
	logger := ctxlog.FromContext(ctx)

	metrics.TasksActive.Inc()
	defer metrics.TasksActive.Dec()

	defer func() {
		if r := recover(); r != nil {
			err = fail(ctx, sig, b, "panic", fmt.Errorf("task %q panicked: %v", t.Name(), r))
		}
	}()

	logger.Debug("Task loop started.")
	for {
		if flow := sig.Load(); !flow.IsContinue() {
			logger.Debug("Signal observed, leaving loop.", "signal", flow.String())
			return nil
		}

		start := time.Now()
		flow, tickErr := t.Tick(ctx)
		if tickErr != nil {
			if errors.Is(tickErr, syncgraph.ErrHalted) {
				logger.Debug("Tick interrupted by halt.")
				return nil
			}
			return fail(ctx, sig, b, "error", fmt.Errorf("task %q: tick failed: %w", t.Name(), tickErr))
		}
		metrics.TicksTotal.WithLabelValues(t.Name()).Inc()
		metrics.TickDuration.WithLabelValues(t.Name()).Observe(time.Since(start).Seconds())

		if !flow.IsContinue() {
			if sig.Publish(flow) {
				logger.Info("Task published terminal signal.", "signal", flow.String())
			} else {
				logger.Debug("Signal already published, dropping ours.", "signal", flow.String())
			}
			return nil
		}
	}
}

// fail halts the generation, drops the nodes claimed by the failed task so
// its neighbours cannot keep waiting on it, and reports err if it is the
// failure that ended the generation.
func fail(ctx context.Context, sig *signal, b syncgraph.Binding[task.Task], reason string, err error) error {
	logger := ctxlog.FromContext(ctx)

	primary := sig.Publish(task.Stop(err.Error()))
	for _, n := range b.Nodes {
		n.Drop()
	}

	if !primary {
		logger.Warn("Task failed after the generation was halted.", "error", err)
		return nil
	}
	metrics.TaskFailuresTotal.WithLabelValues(b.Dependent.Name(), reason).Inc()
	logger.Error("Task failed, halting generation.", "error", err)
	return err
}
