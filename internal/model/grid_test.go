package model

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

const flipFlopGrid = `
graph "main" {
  entrypoints = ["flip_prepare", "flip_break_neck"]

  node "flip_prepare"    { children = ["flop_read"] }
  node "flip_break_neck" { children = ["flop_read"] }
  node "flop_read"       { children = ["flip_prepare", "flip_break_neck"] }

  task "halve" "flipper" {
    claims  = ["flip_prepare", "flip_break_neck"]
    counter = "ernie"
  }

  task "increment" "flopper" {
    claims  = ["flop_read"]
    counter = "ernie"
  }
}
`

func TestLoadGridsRecursively_MergesFiles(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"graphs/main.hcl": flipFlopGrid,
		"objects.hcl":     `object "counter" "ernie" { value = 11 }`,
	})

	grid, err := LoadGridsRecursively(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, grid.Objects, 1)
	obj := grid.Objects[0]
	assert.Equal(t, "counter", obj.Kind)
	assert.Equal(t, "ernie", obj.Name)
	assert.Contains(t, obj.Arguments, "value")
	assert.Equal(t, filepath.Join(root, "objects.hcl"), obj.FSInformation.FilePath)

	assert.Equal(t, []string{"main"}, grid.GraphNames())
	g, ok := grid.Graph("main")
	require.True(t, ok)
	assert.Equal(t, []string{"flip_prepare", "flip_break_neck"}, g.Entrypoints)

	wantNodes := []*Node{
		{Name: "flip_prepare", Children: []string{"flop_read"}},
		{Name: "flip_break_neck", Children: []string{"flop_read"}},
		{Name: "flop_read", Children: []string{"flip_prepare", "flip_break_neck"}},
	}
	if diff := cmp.Diff(wantNodes, g.Nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, g.Tasks, 2)
	flipper := g.Tasks[0]
	assert.Equal(t, "halve", flipper.Kind)
	assert.Equal(t, "flipper", flipper.Name)
	assert.Equal(t, []string{"flip_prepare", "flip_break_neck"}, flipper.Claims)

	argNames := make([]string, 0, len(flipper.Arguments))
	for name := range flipper.Arguments {
		argNames = append(argNames, name)
	}
	sort.Strings(argNames)
	assert.Equal(t, []string{"counter"}, argNames, "claims must not leak into task arguments")

	assert.Equal(t, []string{"halve", "increment"}, g.TaskKinds())
	_, ok = grid.Graph("missing")
	assert.False(t, ok)
}

func TestLoadGridsRecursively_EmptyDirectory(t *testing.T) {
	grid, err := LoadGridsRecursively(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, grid.Objects)
	assert.Empty(t, grid.Graphs)
}

func TestLoadGridsRecursively_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "syntax error",
			files:   map[string]string{"bad.hcl": `graph "main" {`},
			wantErr: "failed to parse HCL file",
		},
		{
			name:    "unknown block",
			files:   map[string]string{"bad.hcl": `step "print" "x" {}`},
			wantErr: "failed to decode HCL file",
		},
		{
			name:    "nested block in task",
			files:   map[string]string{"bad.hcl": "graph \"g\" {\n  task \"print\" \"p\" {\n    inner {\n    }\n  }\n}\n"},
			wantErr: "error parsing graph",
		},
		{
			name: "duplicate graph across files",
			files: map[string]string{
				"a.hcl": `graph "main" {}`,
				"b.hcl": `graph "main" {}`,
			},
			wantErr: `graph "main" declared at`,
		},
		{
			name: "duplicate object",
			files: map[string]string{
				"a.hcl": "object \"counter\" \"ernie\" { value = 1 }\nobject \"text\" \"ernie\" { value = \"x\" }",
			},
			wantErr: `object "ernie" declared at`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadGridsRecursively(context.Background(), writeFiles(t, tc.files))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
