// Package metrics provides Prometheus metrics for the task executor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicksTotal counts completed ticks by task.
	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickgrid",
			Subsystem: "executor",
			Name:      "ticks_total",
			Help:      "Total number of completed ticks by task",
		},
		[]string{"task"},
	)

	// TickDuration tracks how long a tick takes, waits included.
	TickDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tickgrid",
			Subsystem: "executor",
			Name:      "tick_duration_seconds",
			Help:      "Tick duration in seconds, including time blocked on parent edges",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"task"},
	)

	// GenerationsTotal counts finished generations by how they ended.
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickgrid",
			Subsystem: "executor",
			Name:      "generations_total",
			Help:      "Total number of finished generations by outcome",
		},
		[]string{"outcome"}, // "replace", "stop", "failed"
	)

	// TasksActive tracks task goroutines that are currently running.
	TasksActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tickgrid",
			Subsystem: "executor",
			Name:      "tasks_active",
			Help:      "Number of task goroutines currently running",
		},
	)

	// TaskFailuresTotal counts task goroutines that ended with a fatal error.
	TaskFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickgrid",
			Subsystem: "executor",
			Name:      "task_failures_total",
			Help:      "Total number of task goroutines that ended with a fatal error",
		},
		[]string{"task", "reason"}, // "panic", "error", "init"
	)
)
