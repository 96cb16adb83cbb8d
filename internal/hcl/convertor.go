package hcl

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/tickgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Converter evaluates argument expressions and decodes them into Go structs.
// It is safe for concurrent use once constructed.
type Converter struct {
	evalCtx *hcl.EvalContext
}

// NewConverter creates a converter evaluating against evalCtx. A nil evalCtx
// only allows literal expressions.
func NewConverter(evalCtx *hcl.EvalContext) *Converter {
	return &Converter{evalCtx: evalCtx}
}

// NewEvalContext builds the evaluation context used for grid arguments from
// environ, in os.Environ format. Variables are exposed as `env.NAME`.
func NewEvalContext(environ []string) (*hcl.EvalContext, error) {
	envMap := make(map[string]string, len(environ))
	for _, e := range environ {
		k, v, ok := strings.Cut(e, "=")
		if ok && k != "" {
			envMap[k] = v
		}
	}

	env, err := ToCtyValue(envMap)
	if err != nil {
		return nil, fmt.Errorf("failed to expose environment: %w", err)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}, nil
}

// NewProcessConverter is NewConverter over the current process environment.
func NewProcessConverter() (*Converter, error) {
	evalCtx, err := NewEvalContext(os.Environ())
	if err != nil {
		return nil, err
	}
	return NewConverter(evalCtx), nil
}

// field is a bggo-tagged struct field.
type field struct {
	name     string
	optional bool
	index    int
}

// taggedFields returns the settable bggo-tagged fields of t, a struct type.
func taggedFields(t reflect.Type) []field {
	var fields []field
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("bggo")
		if tag == "" || tag == "-" {
			continue
		}
		parts := strings.Split(tag, ",")
		fd := field{name: parts[0], index: i}
		for _, opt := range parts[1:] {
			if opt == "optional" {
				fd.optional = true
			}
		}
		fields = append(fields, fd)
	}
	return fields
}

// Fields reports the argument names a struct accepts, and which of them are
// required. input may be a struct or a pointer to one.
func Fields(input any) (required, optional []string, err error) {
	t := reflect.TypeOf(input)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("input must be a struct or a pointer to one, got %T", input)
	}
	for _, f := range taggedFields(t) {
		if f.optional {
			optional = append(optional, f.name)
		} else {
			required = append(required, f.name)
		}
	}
	return required, optional, nil
}

// DecodeArguments evaluates args and populates target, a non-nil pointer to
// a struct. Missing required arguments and arguments no field accepts are
// errors. Optional fields that are absent keep their current value.
func (c *Converter) DecodeArguments(ctx context.Context, target any, args map[string]hcl.Expression) error {
	logger := ctxlog.FromContext(ctx)

	structVal := reflect.ValueOf(target)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer, got %T", target)
	}
	structVal = structVal.Elem()
	if structVal.Kind() != reflect.Struct {
		return fmt.Errorf("target must point to a struct, got %T", target)
	}

	known := make(map[string]struct{})
	for _, f := range taggedFields(structVal.Type()) {
		known[f.name] = struct{}{}

		expr, provided := args[f.name]
		if !provided {
			if !f.optional {
				return fmt.Errorf("missing required argument %q", f.name)
			}
			continue
		}

		val, diags := expr.Value(c.evalCtx)
		if diags.HasErrors() {
			return diags
		}
		if err := c.decode(ctx, val, structVal.Field(f.index).Addr().Interface()); err != nil {
			return fmt.Errorf("failed to decode argument '%s': %w", f.name, err)
		}
	}

	var unknown []string
	for name := range args {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unsupported argument(s): %s", strings.Join(unknown, ", "))
	}

	logger.Debug("Arguments decoded.", "count", len(args))
	return nil
}

// decode handles the conversion and decoding of a cty.Value into a Go pointer.
func (c *Converter) decode(ctx context.Context, val cty.Value, goVal any) error {
	logger := ctxlog.FromContext(ctx)
	valPtr := reflect.ValueOf(goVal)

	impliedType, err := gocty.ImpliedType(valPtr.Elem().Interface())
	if err != nil {
		logger.Debug("Could not imply cty.Type from Go type, attempting direct decoding.", "go_type", valPtr.Elem().Type().String(), "error", err)
		return gocty.FromCtyValue(val, goVal)
	}

	convertedVal, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}
	if !val.Type().Equals(convertedVal.Type()) {
		logger.Debug("Implicitly converted value type.",
			"from", val.Type().FriendlyName(),
			"to", convertedVal.Type().FriendlyName(),
		)
	}

	return gocty.FromCtyValue(convertedVal, goVal)
}

// ImpliedType returns the cty type a Go value decodes from.
func ImpliedType(v any) (cty.Type, error) {
	return gocty.ImpliedType(v)
}

// ToCtyValue converts a native Go value into its corresponding cty.Value.
func ToCtyValue(v any) (cty.Value, error) {
	if v == nil {
		return cty.NilVal, nil
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}
