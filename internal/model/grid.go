// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Grid structure, which is the root container for all
// definitions loaded from a user's .hcl files.
//
// A user may split a grid across many files and directories. Loading walks
// all of them and merges their objects and graphs into one Grid, so a graph
// in one file may use objects declared in another. Names must be unique
// across the whole grid.
package model

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/tickgrid/internal/ctxlog"
	"github.com/vk/tickgrid/internal/fsutil"
)

// Grid represents the user's complete definition: every object and graph.
type Grid struct {
	Objects []*Object
	Graphs  []*Graph
}

// NewGrid creates and returns an initialized Grid.
func NewGrid() *Grid {
	return &Grid{
		Objects: []*Object{},
		Graphs:  []*Graph{},
	}
}

// Graph returns the graph called name.
func (g *Grid) Graph(name string) (*Graph, bool) {
	for _, gr := range g.Graphs {
		if gr.Name == name {
			return gr, true
		}
	}
	return nil, false
}

// GraphNames returns the graph names in load order.
func (g *Grid) GraphNames() []string {
	names := make([]string, 0, len(g.Graphs))
	for _, gr := range g.Graphs {
		names = append(names, gr.Name)
	}
	return names
}

// merge adds objects and graphs, rejecting names already present.
func (g *Grid) merge(objects []*Object, graphs []*Graph) error {
	for _, o := range objects {
		for _, existing := range g.Objects {
			if existing.Name == o.Name {
				return fmt.Errorf("object %q declared at %s is already declared at %s", o.Name, o.FSInformation, existing.FSInformation)
			}
		}
		g.Objects = append(g.Objects, o)
	}
	for _, gr := range graphs {
		if existing, ok := g.Graph(gr.Name); ok {
			return fmt.Errorf("graph %q declared at %s is already declared at %s", gr.Name, gr.FSInformation, existing.FSInformation)
		}
		g.Graphs = append(g.Graphs, gr)
	}
	return nil
}

// hclGridFile represents the top-level structure of a grid file for decoding.
type hclGridFile struct {
	Objects []*hclObject `hcl:"object,block"`
	Graphs  []*hclGraph  `hcl:"graph,block"`
}

// newGridFromHCL parses a single HCL file and returns the objects and graphs
// found within it.
func newGridFromHCL(filePath string, parser *hclparse.Parser) ([]*Object, []*Graph, error) {
	hclFile, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
	}

	var parsedFile hclGridFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsedFile)
	if diags.HasErrors() {
		return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", filePath, diags)
	}

	objects := make([]*Object, 0, len(parsedFile.Objects))
	for _, parsed := range parsedFile.Objects {
		obj, objDiags := newObjectFromHCL(parsed)
		if objDiags.HasErrors() {
			return nil, nil, fmt.Errorf("error parsing object in file %s: %w", filePath, objDiags)
		}
		objects = append(objects, obj)
	}

	graphs := make([]*Graph, 0, len(parsedFile.Graphs))
	for _, parsed := range parsedFile.Graphs {
		gr, grDiags := newGraphFromHCL(parsed)
		if grDiags.HasErrors() {
			return nil, nil, fmt.Errorf("error parsing graph in file %s: %w", filePath, grDiags)
		}
		graphs = append(graphs, gr)
	}

	return objects, graphs, nil
}

// LoadGridsRecursively finds and parses all HCL files in a given path into a
// Grid model. gridPath may also name a single file.
func LoadGridsRecursively(ctx context.Context, gridPath string) (*Grid, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading grid from path", "path", gridPath)

	files, err := fsutil.FindFilesByExtension(gridPath, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find grid files in %s: %w", gridPath, err)
	}

	grid := NewGrid()
	if len(files) == 0 {
		logger.Warn("No .hcl grid files found in path, returning empty grid", "path", gridPath)
		return grid, nil
	}

	parser := hclparse.NewParser()
	for _, file := range files {
		objects, graphs, err := newGridFromHCL(file, parser)
		if err != nil {
			return nil, err
		}
		if err := grid.merge(objects, graphs); err != nil {
			return nil, err
		}
		logger.Debug("Grid file loaded.", "file", file, "objects", len(objects), "graphs", len(graphs))
	}

	logger.Info("Grid loaded.", "files", len(files), "objects", len(grid.Objects), "graphs", grid.GraphNames())
	return grid, nil
}
