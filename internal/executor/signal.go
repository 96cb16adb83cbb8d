package executor

import (
	"context"
	"sync"

	"github.com/vk/tickgrid/internal/task"
)

// signal is the control flow cell shared by the task goroutines of one
// generation. It starts as Continue and changes at most once.
type signal struct {
	mu   sync.RWMutex
	flow task.ControlFlow
	halt context.CancelFunc
}

func newSignal(halt context.CancelFunc) *signal {
	return &signal{halt: halt}
}

// Load returns the current value.
func (s *signal) Load() task.ControlFlow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flow
}

// Publish stores flow if nothing was published yet and halts the generation.
// It reports whether this call won.
func (s *signal) Publish(flow task.ControlFlow) bool {
	if flow.IsContinue() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.flow.IsContinue() {
		return false
	}
	s.flow = flow
	s.halt()
	return true
}
