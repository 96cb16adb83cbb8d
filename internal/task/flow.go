package task

import "fmt"

// FlowKind enumerates the three control flow states.
type FlowKind int

const (
	// FlowContinue keeps the generation running.
	FlowContinue FlowKind = iota
	// FlowReplace ends the generation and starts another one in its place.
	FlowReplace
	// FlowStop ends the generation and the executor.
	FlowStop
)

func (k FlowKind) String() string {
	switch k {
	case FlowContinue:
		return "continue"
	case FlowReplace:
		return "replace"
	case FlowStop:
		return "stop"
	default:
		return fmt.Sprintf("FlowKind(%d)", int(k))
	}
}

// ControlFlow is the result of a tick and the value of the executor's shared
// signal. The zero value is Continue.
type ControlFlow struct {
	kind   FlowKind
	next   *Generation
	reason string
}

// Continue asks for another tick.
func Continue() ControlFlow {
	return ControlFlow{}
}

// ReplaceWith ends the current generation and runs next in its place.
func ReplaceWith(next *Generation) ControlFlow {
	if next == nil {
		panic("task: ReplaceWith called with a nil generation")
	}
	return ControlFlow{kind: FlowReplace, next: next}
}

// Stop ends the executor with reason.
func Stop(reason string) ControlFlow {
	return ControlFlow{kind: FlowStop, reason: reason}
}

// Kind returns the flow kind.
func (f ControlFlow) Kind() FlowKind { return f.kind }

// IsContinue reports whether f is Continue.
func (f ControlFlow) IsContinue() bool { return f.kind == FlowContinue }

// Next returns the replacement generation of a ReplaceWith flow.
func (f ControlFlow) Next() *Generation { return f.next }

// Reason returns the message of a Stop flow.
func (f ControlFlow) Reason() string { return f.reason }

func (f ControlFlow) String() string {
	switch f.kind {
	case FlowReplace:
		return fmt.Sprintf("replace(%s)", f.next.Label)
	case FlowStop:
		return fmt.Sprintf("stop(%q)", f.reason)
	default:
		return f.kind.String()
	}
}
