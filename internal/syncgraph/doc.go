// Package syncgraph implements the synchronization graph: named nodes joined
// by single-slot hand-off edges, the template form used while a graph is being
// described, and the Builder that validates a description, wires its edges and
// hands each node to the dependents that claim it.
//
// A node brackets one unit of per-tick work:
//
//	node.WaitForParents(ctx) // one token from every parent edge
//	// ... work ...
//	node.ReleaseChildren(ctx) // one token onto every child edge
//
// Edges have capacity one, so a producer can run at most one tick ahead of
// its consumer before ReleaseChildren blocks. Graphs are expected to be
// cyclic; the edges leaving entrypoint nodes are pre-charged with a token so
// the first wait of their children does not deadlock.
package syncgraph
