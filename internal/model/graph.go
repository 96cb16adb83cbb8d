// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Graph, the model of a `graph` block, together with the
// synchronization nodes and tasks declared inside it. Node and claim names
// are plain strings here; resolving them is the graph builder's job.
package model

import (
	"github.com/hashicorp/hcl/v2"
)

// Graph is the format-agnostic representation of a `graph` block.
type Graph struct {
	Name          string
	Entrypoints   []string
	Nodes         []*Node
	Tasks         []*Task
	FSInformation *FSInfo
}

// Node is a synchronization node template declared in a graph.
type Node struct {
	Name     string
	Children []string
}

// Task is a task declared in a graph.
type Task struct {
	Kind          string
	Name          string
	Claims        []string
	Arguments     map[string]hcl.Expression
	FSInformation *FSInfo
}

// TaskKinds returns the distinct task kinds used by the graph, in
// declaration order.
func (g *Graph) TaskKinds() []string {
	var kinds []string
	seen := make(map[string]struct{})
	for _, t := range g.Tasks {
		if _, ok := seen[t.Kind]; ok {
			continue
		}
		seen[t.Kind] = struct{}{}
		kinds = append(kinds, t.Kind)
	}
	return kinds
}

type hclGraph struct {
	Name        string     `hcl:"name,label"`
	Entrypoints []string   `hcl:"entrypoints,optional"`
	Nodes       []*hclNode `hcl:"node,block"`
	Tasks       []*hclTask `hcl:"task,block"`
	Body        hcl.Body   `hcl:",body"`
}

type hclNode struct {
	Name     string   `hcl:"name,label"`
	Children []string `hcl:"children,optional"`
}

type hclTask struct {
	Kind   string   `hcl:"kind,label"`
	Name   string   `hcl:"name,label"`
	Claims []string `hcl:"claims,optional"`
	Body   hcl.Body `hcl:",remain"`
}

// newGraphFromHCL converts a decoded graph block.
func newGraphFromHCL(parsed *hclGraph) (*Graph, hcl.Diagnostics) {
	g := &Graph{
		Name:          parsed.Name,
		Entrypoints:   parsed.Entrypoints,
		FSInformation: NewFSInfo(parsed.Body.MissingItemRange()),
	}

	for _, n := range parsed.Nodes {
		g.Nodes = append(g.Nodes, &Node{Name: n.Name, Children: n.Children})
	}

	var allDiags hcl.Diagnostics
	for _, t := range parsed.Tasks {
		args, diags := bodyArguments(t.Body)
		allDiags = append(allDiags, diags...)
		if diags.HasErrors() {
			continue
		}
		g.Tasks = append(g.Tasks, &Task{
			Kind:          t.Kind,
			Name:          t.Name,
			Claims:        t.Claims,
			Arguments:     args,
			FSInformation: NewFSInfo(t.Body.MissingItemRange()),
		})
	}

	if allDiags.HasErrors() {
		return nil, allDiags
	}
	return g, allDiags
}
