package syncgraph

import (
	"context"
	"sync"
)

// Node is the runtime half of a synchronization node. It holds the receive
// side of every incoming edge and the send side of every outgoing edge.
//
// The edge lists are written only while the Builder wires the graph and are
// read-only afterwards. A Node may be claimed by more than one task; calls to
// WaitForParents and ReleaseChildren are each serialized by their own lock.
type Node struct {
	name string

	parents  []*edge
	children []*edge

	waitMu    sync.Mutex
	releaseMu sync.Mutex
	dropped   bool
}

func newNode(name string) *Node {
	return &Node{name: name}
}

// Name returns the name of the template that owns this node.
func (n *Node) Name() string {
	return n.name
}

// ParentCount returns the number of incoming edges.
func (n *Node) ParentCount() int {
	return len(n.parents)
}

// ChildCount returns the number of outgoing edges.
func (n *Node) ChildCount() int {
	return len(n.children)
}

// WaitForParents blocks until one token has been received from every parent
// edge. Edges are drained in wiring order. It returns an *EdgeError if a
// producer was dropped and an error wrapping ErrHalted if ctx is done first.
func (n *Node) WaitForParents(ctx context.Context) error {
	n.waitMu.Lock()
	defer n.waitMu.Unlock()

	for _, e := range n.parents {
		if err := e.recv(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseChildren places one token on every child edge. A full slot blocks
// until its consumer takes the previous token; nothing is dropped or
// overwritten. It returns an *EdgeError if a consumer was dropped and an
// error wrapping ErrHalted if ctx is done first.
func (n *Node) ReleaseChildren(ctx context.Context) error {
	n.releaseMu.Lock()
	defer n.releaseMu.Unlock()

	if n.dropped {
		return &EdgeError{Edge: n.name, Side: "producer"}
	}
	for _, e := range n.children {
		if err := e.send(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Drop detaches the node from the graph: consumers of its outgoing edges see
// a broken edge once the tokens already in flight are consumed, and producers
// of its incoming edges see a broken edge on their next release.
//
// Drop must not race with a ReleaseChildren that can still make progress; the
// executor only drops nodes after the generation was halted.
func (n *Node) Drop() {
	n.releaseMu.Lock()
	defer n.releaseMu.Unlock()

	if n.dropped {
		return
	}
	n.dropped = true
	for _, e := range n.children {
		e.closeProducer()
	}
	for _, e := range n.parents {
		e.closeConsumer()
	}
}
