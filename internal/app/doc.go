// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle: load the grid, register
// modules, validate, build objects, assemble the initial graph and drive the
// executor until it stops. It is decoupled from any specific entrypoint like
// a CLI or server.
package app
