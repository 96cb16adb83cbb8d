// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the FSInfo struct, which stores where a definition was
// declared so load and build errors can point at it.
package model

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// FSInfo locates a definition in the grid files.
type FSInfo struct {
	FilePath string
	Line     int
}

// NewFSInfo returns the location of rng.
func NewFSInfo(rng hcl.Range) *FSInfo {
	return &FSInfo{
		FilePath: rng.Filename,
		Line:     rng.Start.Line,
	}
}

func (f *FSInfo) String() string {
	if f == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", f.FilePath, f.Line)
}
