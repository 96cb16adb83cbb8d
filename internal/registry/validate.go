package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/tickgrid/internal/ctxlog"
	"github.com/vk/tickgrid/internal/hcl"
	"github.com/vk/tickgrid/internal/model"
)

// ValidateRegistry checks that every registered kind has a usable input
// struct: NewInput must return a pointer to a struct whose bggo-tagged fields
// all have a cty equivalent.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, kind := range r.TaskKinds() {
		errs = append(errs, checkInput("task", kind, r.tasks[kind].NewInput, r.tasks[kind].New == nil)...)
	}
	for _, kind := range r.ObjectKinds() {
		errs = append(errs, checkInput("object", kind, r.objects[kind].NewInput, r.objects[kind].New == nil)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validated.", "tasks", len(r.tasks), "objects", len(r.objects))
	return nil
}

func checkInput(what, kind string, newInput func() any, missingFactory bool) []string {
	var errs []string
	if missingFactory {
		errs = append(errs, fmt.Sprintf("%s '%s': no factory", what, kind))
	}
	if newInput == nil {
		return append(errs, fmt.Sprintf("%s '%s': no input constructor", what, kind))
	}

	input := newInput()
	v := reflect.ValueOf(input)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return append(errs, fmt.Sprintf("%s '%s': input must be a non-nil pointer to a struct, got %T", what, kind, input))
	}

	t := v.Elem().Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := strings.Split(f.Tag.Get("bggo"), ",")[0]
		if !f.IsExported() || tag == "" || tag == "-" {
			continue
		}
		if _, err := hcl.ImpliedType(reflect.Zero(f.Type).Interface()); err != nil {
			errs = append(errs, fmt.Sprintf("%s '%s', input '%s': could not imply cty type from Go field type %s: %v", what, kind, tag, f.Type, err))
		}
	}
	return errs
}

// Validate reports every kind used by grid that no module registered, and
// every argument set that the kind's input struct cannot accept by name.
func (r *Registry) Validate(ctx context.Context, grid *model.Grid) error {
	var errs []string

	for _, o := range grid.Objects {
		reg, ok := r.objects[o.Kind]
		if !ok {
			errs = append(errs, fmt.Sprintf("object '%s' at %s: unknown object kind '%s'", o.Name, o.FSInformation, o.Kind))
			continue
		}
		errs = append(errs, checkArguments("object", o.Name, o.FSInformation, reg.NewInput(), argNames(o.Arguments))...)
	}

	for _, g := range grid.Graphs {
		for _, t := range g.Tasks {
			reg, ok := r.tasks[t.Kind]
			if !ok {
				errs = append(errs, fmt.Sprintf("task '%s' in graph '%s' at %s: unknown task kind '%s'", t.Name, g.Name, t.FSInformation, t.Kind))
				continue
			}
			errs = append(errs, checkArguments("task", t.Name, t.FSInformation, reg.NewInput(), argNames(t.Arguments))...)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("grid validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	ctxlog.FromContext(ctx).Debug("Grid validated against registry.", "objects", len(grid.Objects), "graphs", len(grid.Graphs))
	return nil
}

func argNames[V any](m map[string]V) map[string]struct{} {
	names := make(map[string]struct{}, len(m))
	for k := range m {
		names[k] = struct{}{}
	}
	return names
}

func checkArguments(what, name string, at *model.FSInfo, input any, provided map[string]struct{}) []string {
	required, optional, err := hcl.Fields(input)
	if err != nil {
		return []string{fmt.Sprintf("%s '%s' at %s: %v", what, name, at, err)}
	}

	var errs []string
	accepted := make(map[string]struct{}, len(required)+len(optional))
	for _, n := range required {
		accepted[n] = struct{}{}
		if _, ok := provided[n]; !ok {
			errs = append(errs, fmt.Sprintf("%s '%s' at %s: missing required argument '%s'", what, name, at, n))
		}
	}
	for _, n := range optional {
		accepted[n] = struct{}{}
	}
	for _, n := range sortedKeys(provided) {
		if _, ok := accepted[n]; !ok {
			errs = append(errs, fmt.Sprintf("%s '%s' at %s: unsupported argument '%s'", what, name, at, n))
		}
	}
	return errs
}
