// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the Go struct representation of tickgrid HCL grid
// files. It parses every .hcl file under a path and merges them into one Grid.
//
// # Core Concepts
//
//   - Grid: the root container. It aggregates the objects and graphs found in
//     one or more .hcl files.
//
//   - Object: a named domain object (`object "<kind>" "<name>"`). Objects are
//     built once per run and read by tasks during initialization.
//
//   - Graph: a named task configuration (`graph "<name>"`). It lists the
//     synchronization nodes, the tasks claiming them and the entrypoints.
//
//   - FSInfo: metadata linking every Object and Graph back to its source file
//     for error reporting.
//
// Arguments of objects and tasks are kept as raw hcl.Expression values. They
// are evaluated later, against the registered Go input struct of their kind.
package model
