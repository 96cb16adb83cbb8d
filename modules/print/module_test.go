package print

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tickgrid/internal/objects"
	"github.com/vk/tickgrid/internal/registry"
	"github.com/vk/tickgrid/internal/syncgraph"
	"github.com/vk/tickgrid/internal/task"
)

func newSpec(logs *bytes.Buffer) registry.TaskSpec {
	return registry.TaskSpec{
		Name:   "printer",
		Claims: []string{"ping", "pong"},
		Env: registry.Env{
			Logger: slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
		},
	}
}

func wire(t *testing.T, tk task.Task) {
	t.Helper()
	g := task.NewGraph()
	require.NoError(t, g.PushNode(syncgraph.NewTemplate("ping", "pong")))
	require.NoError(t, g.PushNode(syncgraph.NewTemplate("pong", "ping")))
	require.NoError(t, g.PushDependency(tk))
	_, err := task.Assemble(context.Background(), g, "main", []string{"ping", "pong"})
	require.NoError(t, err)
}

func TestPrintTask(t *testing.T) {
	var logs bytes.Buffer
	tk, err := NewTask(newSpec(&logs), Input{
		Message: "world",
		Text:    "greeting",
		Level:   "warn",
		Fields:  map[string]string{"b": "2", "a": "1"},
	})
	require.NoError(t, err)
	wire(t, tk)

	objs, err := objects.New(NewText("greeting", "hello"))
	require.NoError(t, err)
	require.NoError(t, tk.Init(context.Background(), objs))

	for i := 0; i < 2; i++ {
		_, err := tk.Tick(context.Background())
		require.NoError(t, err)
	}

	out := logs.String()
	assert.Contains(t, out, `level=WARN msg="hello world" task=printer tick=1 a=1 b=2`)
	assert.Contains(t, out, `tick=2`)
}

func TestPrintTask_Errors(t *testing.T) {
	var logs bytes.Buffer

	_, err := NewTask(newSpec(&logs), Input{})
	assert.ErrorContains(t, err, "one of 'message' or 'text' is required")

	_, err = NewTask(newSpec(&logs), Input{Message: "x", Level: "loud"})
	assert.ErrorContains(t, err, `invalid level "loud"`)

	tk, err := NewTask(newSpec(&logs), Input{Text: "missing"})
	require.NoError(t, err)
	assert.ErrorContains(t, tk.Init(context.Background(), nil), `no text object named "missing"`)
}

func TestText_Clone(t *testing.T) {
	orig := NewText("greeting", "hello")
	clone := orig.Clone().(*Text)
	assert.NotSame(t, orig, clone)
	assert.Equal(t, "hello", clone.Value())
	assert.Equal(t, "greeting", clone.ObjectName())
}
