// Package registry provides the central "glue" for the module system.
//
// The Registry maps the kind names used in grid files (e.g. `task "halve"`
// or `object "counter"`) to the compiled Go factories that build them. Each
// kind also declares its input struct, whose `bggo` tags name the arguments
// the kind accepts.
//
// During application startup, the registry is populated by modules and then
// validated against the loaded grid, so a grid using an unknown kind fails
// before anything runs.
package registry
