// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Object, the model of an `object` block.
package model

import (
	"github.com/hashicorp/hcl/v2"
)

// Object is the format-agnostic representation of an `object` block.
type Object struct {
	Kind          string
	Name          string
	Arguments     map[string]hcl.Expression
	FSInformation *FSInfo
}

// hclObject represents a single 'object' block for initial decoding from HCL.
type hclObject struct {
	Kind string   `hcl:"kind,label"`
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// newObjectFromHCL converts a decoded object block.
func newObjectFromHCL(parsed *hclObject) (*Object, hcl.Diagnostics) {
	args, diags := bodyArguments(parsed.Body)
	if diags.HasErrors() {
		return nil, diags
	}
	return &Object{
		Kind:          parsed.Kind,
		Name:          parsed.Name,
		Arguments:     args,
		FSInformation: NewFSInfo(parsed.Body.MissingItemRange()),
	}, diags
}

// bodyArguments returns the attributes left in body as expressions. Nested
// blocks are rejected.
func bodyArguments(body hcl.Body) (map[string]hcl.Expression, hcl.Diagnostics) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	args := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		args[name] = attr.Expr
	}
	return args, diags
}
