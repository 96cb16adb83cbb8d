package executor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tickgrid/internal/objects"
	"github.com/vk/tickgrid/internal/syncgraph"
	"github.com/vk/tickgrid/internal/task"
)

// scriptedTask ticks inside the node bracket and asks step what to return.
type scriptedTask struct {
	task.Claims
	inits   atomic.Int32
	ticks   atomic.Int32
	initErr error
	step    func(tick int) (task.ControlFlow, error)
}

func newScripted(name string, claims ...string) *scriptedTask {
	return &scriptedTask{Claims: task.NewClaims(name, claims...)}
}

func (s *scriptedTask) Init(context.Context, *objects.List) error {
	s.inits.Add(1)
	return s.initErr
}

func (s *scriptedTask) Tick(ctx context.Context) (task.ControlFlow, error) {
	return s.Bracket(ctx, func(context.Context) (task.ControlFlow, error) {
		n := int(s.ticks.Add(1))
		if s.step == nil {
			return task.Continue(), nil
		}
		return s.step(n)
	})
}

// stopAt returns a step that stops with reason on the given tick.
func stopAt(at int, reason string) func(int) (task.ControlFlow, error) {
	return func(n int) (task.ControlFlow, error) {
		if n == at {
			return task.Stop(reason), nil
		}
		return task.Continue(), nil
	}
}

// cycle assembles the A,B -> C -> A,B graph with one task on A and B and one
// on C.
func cycle(t *testing.T, label string, ab, c *scriptedTask) *task.Generation {
	t.Helper()
	g := task.NewGraph()
	require.NoError(t, g.PushNode(syncgraph.NewTemplate("A", "C")))
	require.NoError(t, g.PushNode(syncgraph.NewTemplate("B", "C")))
	require.NoError(t, g.PushNode(syncgraph.NewTemplate("C", "A", "B")))
	require.NoError(t, g.PushDependency(ab))
	require.NoError(t, g.PushDependency(c))

	gen, err := task.Assemble(context.Background(), g, label, []string{"A", "B"})
	require.NoError(t, err)
	return gen
}

type runResult struct {
	reason string
	err    error
}

func runWithTimeout(t *testing.T, ctx context.Context, e *Executor) runResult {
	t.Helper()
	done := make(chan runResult, 1)
	go func() {
		reason, err := e.Run(ctx, nil)
		done <- runResult{reason, err}
	}()
	select {
	case res := <-done:
		return res
	case <-time.After(10 * time.Second):
		t.Fatal("executor did not finish")
		return runResult{}
	}
}

func TestRun_StopReasonIsSurfaced(t *testing.T) {
	ab := newScripted("ab", "A", "B")
	c := newScripted("c", "C")
	c.step = stopAt(1000, "x")

	res := runWithTimeout(t, context.Background(), New(cycle(t, "main", ab, c)))
	require.NoError(t, res.err)
	assert.Equal(t, "x", res.reason)
	assert.EqualValues(t, 1000, c.ticks.Load())
	assert.EqualValues(t, 1, ab.inits.Load())
	assert.EqualValues(t, 1, c.inits.Load())

	// Nothing keeps ticking after Run returned.
	abTicks, cTicks := ab.ticks.Load(), c.ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, abTicks, ab.ticks.Load())
	assert.Equal(t, cTicks, c.ticks.Load())
}

func TestRun_ReplaceWithRunsFreshGeneration(t *testing.T) {
	nextAB := newScripted("ab", "A", "B")
	nextC := newScripted("c", "C")
	nextC.step = stopAt(5, "done")
	next := cycle(t, "cooldown", nextAB, nextC)

	ab := newScripted("ab", "A", "B")
	c := newScripted("c", "C")
	ab.step = func(n int) (task.ControlFlow, error) {
		if n == 3 {
			return task.ReplaceWith(next), nil
		}
		return task.Continue(), nil
	}

	e := New(cycle(t, "main", ab, c))
	res := runWithTimeout(t, context.Background(), e)
	require.NoError(t, res.err)
	assert.Equal(t, "done", res.reason)
	assert.Same(t, next, e.Generation())

	assert.EqualValues(t, 3, ab.ticks.Load())
	assert.EqualValues(t, 1, nextAB.inits.Load())
	assert.EqualValues(t, 1, nextC.inits.Load())
	assert.EqualValues(t, 5, nextC.ticks.Load())

	oldTicks := c.ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, oldTicks, c.ticks.Load(), "previous generation leaked a goroutine")
}

// closingTask records Close calls.
type closingTask struct {
	*scriptedTask
	closed atomic.Int32
}

func (c *closingTask) Close() error {
	c.closed.Add(1)
	return errors.New("already closed")
}

func TestRun_ClosesTasksAfterGeneration(t *testing.T) {
	ab := &closingTask{scriptedTask: newScripted("ab", "A", "B")}
	c := newScripted("c", "C")
	c.step = stopAt(3, "done")

	g := task.NewGraph()
	require.NoError(t, g.PushNode(syncgraph.NewTemplate("A", "C")))
	require.NoError(t, g.PushNode(syncgraph.NewTemplate("B", "C")))
	require.NoError(t, g.PushNode(syncgraph.NewTemplate("C", "A", "B")))
	require.NoError(t, g.PushDependency(ab))
	require.NoError(t, g.PushDependency(c))
	e, err := BuildAndSubmit(context.Background(), g, "main", []string{"A", "B"})
	require.NoError(t, err)

	res := runWithTimeout(t, context.Background(), e)
	require.NoError(t, res.err)
	assert.Equal(t, "done", res.reason)
	assert.EqualValues(t, 1, ab.closed.Load())
}

func TestRun_InitErrorPreventsSpawn(t *testing.T) {
	ab := newScripted("ab", "A", "B")
	c := newScripted("c", "C")
	c.initErr = errors.New("no counter")

	res := runWithTimeout(t, context.Background(), New(cycle(t, "main", ab, c)))
	require.Error(t, res.err)
	assert.ErrorContains(t, res.err, `task "c" failed to initialize: no counter`)
	assert.Zero(t, ab.ticks.Load())
	assert.Zero(t, c.ticks.Load())
}

func TestRun_PanicIsFatal(t *testing.T) {
	ab := newScripted("ab", "A", "B")
	c := newScripted("c", "C")
	c.step = func(n int) (task.ControlFlow, error) {
		if n == 10 {
			panic("boom")
		}
		return task.Continue(), nil
	}

	res := runWithTimeout(t, context.Background(), New(cycle(t, "main", ab, c)))
	require.Error(t, res.err)
	assert.ErrorContains(t, res.err, `task "c" panicked: boom`)
	assert.Empty(t, res.reason)
}

func TestRun_TickErrorIsFatal(t *testing.T) {
	ab := newScripted("ab", "A", "B")
	c := newScripted("c", "C")
	ab.step = func(n int) (task.ControlFlow, error) {
		if n == 2 {
			return task.Continue(), fmt.Errorf("disk full")
		}
		return task.Continue(), nil
	}

	res := runWithTimeout(t, context.Background(), New(cycle(t, "main", ab, c)))
	require.Error(t, res.err)
	assert.ErrorContains(t, res.err, `task "ab": tick failed: disk full`)
}

func TestRun_ContextCancelInterrupts(t *testing.T) {
	ab := newScripted("ab", "A", "B")
	c := newScripted("c", "C")

	ctx, cancel := context.WithCancel(context.Background())
	c.step = func(n int) (task.ControlFlow, error) {
		if n == 50 {
			cancel()
		}
		return task.Continue(), nil
	}

	res := runWithTimeout(t, ctx, New(cycle(t, "main", ab, c)))
	require.NoError(t, res.err)
	assert.Equal(t, InterruptedReason, res.reason)
}

// haltedTask claims to be halted while nothing published a signal.
type haltedTask struct{ task.Claims }

func (h *haltedTask) Init(context.Context, *objects.List) error { return nil }
func (h *haltedTask) Tick(context.Context) (task.ControlFlow, error) {
	return task.Continue(), syncgraph.ErrHalted
}

func TestRun_InconsistentSignal(t *testing.T) {
	g := task.NewGraph()
	require.NoError(t, g.PushDependency(&haltedTask{Claims: task.NewClaims("liar")}))

	e, err := BuildAndSubmit(context.Background(), g, "main", nil)
	require.NoError(t, err)

	res := runWithTimeout(t, context.Background(), e)
	assert.ErrorIs(t, res.err, ErrInconsistentSignal)
}

func TestBuildAndSubmit_ReportsGraphErrors(t *testing.T) {
	g := task.NewGraph()
	require.NoError(t, g.PushNode(syncgraph.NewTemplate("A", "ghost")))

	e, err := BuildAndSubmit(context.Background(), g, "main", nil)
	assert.Nil(t, e)
	assert.ErrorIs(t, err, syncgraph.ErrUnresolvedChild)
}

func TestSignal_FirstWriterWins(t *testing.T) {
	halted := 0
	s := newSignal(func() { halted++ })

	assert.False(t, s.Publish(task.Continue()))
	assert.True(t, s.Load().IsContinue())

	assert.True(t, s.Publish(task.Stop("first")))
	assert.False(t, s.Publish(task.Stop("second")))
	assert.Equal(t, "first", s.Load().Reason())
	assert.Equal(t, 1, halted)
}
