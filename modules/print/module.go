// Package print provides the `text` object and the `print` task, which logs
// a message on every tick.
package print

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/vk/tickgrid/internal/objects"
	"github.com/vk/tickgrid/internal/registry"
	"github.com/vk/tickgrid/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// TextInput defines the arguments of a text object.
type TextInput struct {
	Value string `bggo:"value"`
}

// Input defines the arguments for the print task.
type Input struct {
	Message string            `bggo:"message,optional"`
	Text    string            `bggo:"text,optional"`
	Level   string            `bggo:"level,optional"`
	Fields  map[string]string `bggo:"fields,optional"`
}

// Text is an immutable named string.
type Text struct {
	name  string
	value string
}

// NewText returns a text object.
func NewText(name, value string) *Text {
	return &Text{name: name, value: value}
}

// ObjectName implements objects.Object.
func (t *Text) ObjectName() string { return t.name }

// Clone implements objects.Object.
func (t *Text) Clone() objects.Object {
	c := *t
	return &c
}

// Value returns the text.
func (t *Text) Value() string { return t.value }

// printTask logs a line every tick.
type printTask struct {
	task.Claims
	input  Input
	level  slog.Level
	logger *slog.Logger

	message string
	attrs   []any
	ticks   int
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid level %q", s)
	}
	return level, nil
}

// NewTask builds a print task.
func NewTask(spec registry.TaskSpec, in Input) (task.Task, error) {
	if in.Message == "" && in.Text == "" {
		return nil, errors.New("one of 'message' or 'text' is required")
	}
	level, err := parseLevel(in.Level)
	if err != nil {
		return nil, err
	}

	logger := spec.Env.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(in.Fields))
	for k := range in.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		attrs = append(attrs, k, in.Fields[k])
	}

	return &printTask{
		Claims: task.NewClaims(spec.Name, spec.Claims...),
		input:  in,
		level:  level,
		logger: logger.With("task", spec.Name),
		attrs:  attrs,
	}, nil
}

func (p *printTask) Init(_ context.Context, objs *objects.List) error {
	parts := make([]string, 0, 2)
	if p.input.Text != "" {
		text, ok := objects.CloneByName[*Text](objs, p.input.Text)
		if !ok {
			return fmt.Errorf("no text object named %q", p.input.Text)
		}
		parts = append(parts, text.Value())
	}
	if p.input.Message != "" {
		parts = append(parts, p.input.Message)
	}
	p.message = strings.Join(parts, " ")
	p.ticks = 0
	return nil
}

func (p *printTask) Tick(ctx context.Context) (task.ControlFlow, error) {
	return p.Bracket(ctx, func(ctx context.Context) (task.ControlFlow, error) {
		p.ticks++
		p.logger.Log(ctx, p.level, p.message, append([]any{"tick", p.ticks}, p.attrs...)...)
		return task.Continue(), nil
	})
}

// Register registers the text object and the print task.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterObject("text", &registry.RegisteredObject{
		NewInput: func() any { return new(TextInput) },
		New: func(_ context.Context, name string, input any) (objects.Object, error) {
			return NewText(name, input.(*TextInput).Value), nil
		},
	})
	r.RegisterTask("print", &registry.RegisteredTask{
		NewInput: func() any { return new(Input) },
		New: func(_ context.Context, spec registry.TaskSpec, input any) (task.Task, error) {
			return NewTask(spec, *input.(*Input))
		},
	})
}
