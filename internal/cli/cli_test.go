package cli

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tickgrid/internal/app"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want *app.Config
	}{
		{
			name: "positional path with defaults",
			args: []string{"grids/"},
			want: &app.Config{GridPath: "grids/", GraphName: "main", LogFormat: "text", LogLevel: "info"},
		},
		{
			name: "grid flag wins over shorthand and positional",
			args: []string{"-grid", "a.hcl", "-g", "b.hcl", "c.hcl"},
			want: &app.Config{GridPath: "a.hcl", GraphName: "main", LogFormat: "text", LogLevel: "info"},
		},
		{
			name: "all options",
			args: []string{"-g", "x", "--graph", "cooldown", "--log-format", "JSON", "--log-level", "Debug", "--healthcheck-port", "8080"},
			want: &app.Config{GridPath: "x", GraphName: "cooldown", LogFormat: "json", LogLevel: "debug", HealthcheckPort: 8080},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			got, exit, err := Parse(tc.args, &out)
			require.NoError(t, err)
			assert.False(t, exit)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_ExitsCleanly(t *testing.T) {
	for _, args := range [][]string{{"-h"}, {}} {
		var out bytes.Buffer
		cfg, exit, err := Parse(args, &out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "unknown flag", args: []string{"--nope"}, wantMsg: "flag provided but not defined: -nope"},
		{name: "bad format", args: []string{"--log-format", "xml", "g"}, wantMsg: "invalid log-format"},
		{name: "bad level", args: []string{"--log-level", "loud", "g"}, wantMsg: "invalid log-level"},
		{name: "empty graph", args: []string{"--graph", " ", "g"}, wantMsg: "invalid graph"},
		{name: "bad port", args: []string{"--healthcheck-port", "-1", "g"}, wantMsg: "HealthcheckPort"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			_, _, err := Parse(tc.args, &out)
			require.Error(t, err)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}
