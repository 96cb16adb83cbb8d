package grid

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tickgrid/internal/executor"
	"github.com/vk/tickgrid/internal/hcl"
	"github.com/vk/tickgrid/internal/model"
	"github.com/vk/tickgrid/internal/objects"
	"github.com/vk/tickgrid/internal/registry"
	"github.com/vk/tickgrid/internal/syncgraph"
	"github.com/vk/tickgrid/modules/control"
	"github.com/vk/tickgrid/modules/counter"
)

const flipFlop = `
object "counter" "ernie" { value = 11 }

graph "main" {
  entrypoints = ["flip_prepare", "flip_break_neck", "gate"]

  node "flip_prepare"    { children = ["flop_read"] }
  node "flip_break_neck" { children = ["flop_read"] }
  node "gate"            { children = ["flop_read"] }
  node "flop_read"       { children = ["flip_prepare", "flip_break_neck", "gate"] }

  task "halve" "flipper" {
    claims  = ["flip_prepare", "flip_break_neck"]
    counter = "ernie"
  }
  task "increment" "flopper" {
    claims  = ["flop_read"]
    counter = "ernie"
  }
  task "switch_after" "switcher" {
    claims = ["gate"]
    after  = 6
    graph  = "cooldown"
  }
}

graph "cooldown" {
  entrypoints = ["ping", "pong"]
  node "ping" { children = ["pong"] }
  node "pong" { children = ["ping"] }

  task "stop_after" "stopper" {
    claims = ["ping", "pong"]
    after  = 2
    reason = "cooled down"
  }
}

graph "broken" {
  node "a" { children = ["nowhere"] }
}

graph "unclaimed" {
  node "a" { children = ["b"] }
  node "b" { children = ["a"] }
  task "stop_after" "s" {
    claims = ["a", "c"]
    after  = 1
  }
}
`

func newAssembler(t *testing.T, src string) *Assembler {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grid.hcl"), []byte(src), 0o644))
	grid, err := model.LoadGridsRecursively(context.Background(), dir)
	require.NoError(t, err)

	reg := registry.New()
	(&counter.Module{}).Register(reg)
	(&control.Module{}).Register(reg)
	require.NoError(t, reg.Validate(context.Background(), grid))

	return NewAssembler(grid, reg, hcl.NewConverter(nil))
}

func TestObjects(t *testing.T) {
	a := newAssembler(t, flipFlop)

	list, err := a.Objects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ernie"}, list.Names())

	c, ok := objects.CloneByName[*counter.Counter](list, "ernie")
	require.True(t, ok)
	assert.Equal(t, 11, c.Value())
}

func TestObjects_FactoryError(t *testing.T) {
	a := newAssembler(t, `object "counter" "ernie" { value = -3 }`)

	_, err := a.Objects(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `object "ernie" at`)
	assert.Contains(t, err.Error(), "must not be negative")
}

func TestAssemble(t *testing.T) {
	a := newAssembler(t, flipFlop)

	gen, err := a.Assemble(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, "main", gen.Label)
	assert.NotEmpty(t, gen.ID)

	var names []string
	for _, tk := range gen.Tasks() {
		names = append(names, tk.Name())
	}
	assert.Equal(t, []string{"flipper", "flopper", "switcher"}, names)

	again, err := a.Assemble(context.Background(), "main")
	require.NoError(t, err)
	assert.NotEqual(t, gen.ID, again.ID, "every assembly is a fresh generation")
	assert.NotSame(t, gen.Tasks()[0], again.Tasks()[0])
}

func TestAssemble_Errors(t *testing.T) {
	a := newAssembler(t, flipFlop)

	_, err := a.Assemble(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownGraph)

	_, err = a.Assemble(context.Background(), "broken")
	assert.ErrorIs(t, err, syncgraph.ErrUnresolvedChild)

	_, err = a.Assemble(context.Background(), "unclaimed")
	assert.ErrorIs(t, err, syncgraph.ErrUnfilledDependency)
}

func TestAssemble_RunsAndReplaces(t *testing.T) {
	a := newAssembler(t, flipFlop)

	objs, err := a.Objects(context.Background())
	require.NoError(t, err)
	gen, err := a.Assemble(context.Background(), "main")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	e := executor.New(gen)
	reason, err := e.Run(ctx, objs)
	require.NoError(t, err)
	assert.Equal(t, "cooled down", reason)
	assert.Equal(t, "cooldown", e.Generation().Label)

	// 11 -> 12 -> 6 -> 7 -> 3 -> 4 -> 2 -> 3 -> 1, then it stays at 1.
	c, _ := objects.CloneByName[*counter.Counter](objs, "ernie")
	assert.Equal(t, 1, c.Value())
}
