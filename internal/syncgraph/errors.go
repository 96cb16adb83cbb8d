package syncgraph

import (
	"errors"
	"fmt"
	"strings"
)

// Build-time errors. A *GraphError matches exactly one of these via errors.Is.
var (
	ErrDuplicateName      = errors.New("duplicate name")
	ErrNoChildren         = errors.New("node has no children")
	ErrUnresolvedChild    = errors.New("unresolved child")
	ErrUnfilledDependency = errors.New("unfilled dependency")
)

// Run-time errors.
var (
	// ErrBrokenEdge is matched by *EdgeError.
	ErrBrokenEdge = errors.New("broken edge")
	// ErrHalted is returned by blocking node calls when the generation is
	// halting. It is not a failure.
	ErrHalted = errors.New("generation halted")
)

// GraphError describes why a graph description was rejected.
type GraphError struct {
	Kind error

	// Node is the offending node. For ErrDuplicateName exactly one of Node
	// and Dependent is meaningful, selected by DuplicateDependent.
	Node      string
	Child     string
	Dependent string
	// Claimed lists, in claim order, the nodes a dependent did manage to
	// claim before ErrUnfilledDependency.
	Claimed []string

	DuplicateDependent bool
}

func (e *GraphError) Error() string {
	switch e.Kind {
	case ErrDuplicateName:
		if e.DuplicateDependent {
			return fmt.Sprintf("dependency name %q is used more than once", e.Dependent)
		}
		return fmt.Sprintf("node name %q is used more than once", e.Node)
	case ErrNoChildren:
		return fmt.Sprintf("synchronization node %q has no children", e.Node)
	case ErrUnresolvedChild:
		return fmt.Sprintf("no node matches %q, child of %q", e.Child, e.Node)
	case ErrUnfilledDependency:
		return fmt.Sprintf("dependency %q could not find all necessary nodes; submitted nodes were: [%s]",
			e.Dependent, strings.Join(e.Claimed, ", "))
	default:
		return fmt.Sprintf("invalid synchronization graph: %v", e.Kind)
	}
}

// Is reports whether target is the sentinel for this error's kind.
func (e *GraphError) Is(target error) bool {
	return target == e.Kind
}

// EdgeError reports an edge whose other side was dropped.
type EdgeError struct {
	// Edge is "producer->consumer", or the node name when the node itself was
	// dropped.
	Edge string
	// Side is the side that is gone: "producer" or "consumer".
	Side string
}

func (e *EdgeError) Error() string {
	return fmt.Sprintf("broken edge %s: %s dropped", e.Edge, e.Side)
}

// Is makes errors.Is(err, ErrBrokenEdge) work.
func (e *EdgeError) Is(target error) bool {
	return target == ErrBrokenEdge
}
