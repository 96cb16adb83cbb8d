// Package hcl binds HCL attribute expressions to Go input structs. Fields are
// matched by their `bggo` tag, values are converted through go-cty, and
// expressions are evaluated against a context exposing the process
// environment as `env`.
package hcl
