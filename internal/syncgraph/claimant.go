package syncgraph

import (
	"context"

	"github.com/vk/tickgrid/internal/ctxlog"
)

// SubmissionResult is a dependent's answer to being offered a node.
type SubmissionResult int

const (
	// NotMine means the dependent does not need the offered node.
	NotMine SubmissionResult = iota
	// Claimed means the dependent kept a handle to the offered node.
	Claimed
)

func (r SubmissionResult) String() string {
	if r == Claimed {
		return "claimed"
	}
	return "not_mine"
}

// Claimant is anything that claims synchronization nodes by name while a
// graph is being built.
type Claimant interface {
	// Name identifies the claimant. It must be unique within a Builder.
	Name() string
	// Submit offers a node. A claimant that needs it keeps tmpl.Node() and
	// returns Claimed.
	Submit(tmpl *Template) SubmissionResult
	// PushSubmitted records the name of a node the claimant accepted.
	PushSubmitted(name string)
	// Submitted returns the recorded node names in claim order.
	Submitted() []string
	// Filled reports whether every node the claimant requires was claimed.
	Filled() bool
}

// NodeSubmitter is implemented by claimants that replace the default claim
// routine. SubmitNodes receives every template in registration order and
// returns the runtime nodes it claimed, in claim order. The claimant is still
// expected to record each claim with PushSubmitted.
type NodeSubmitter interface {
	SubmitNodes(ctx context.Context, templates []*Template) []*Node
}

// SubmitNodes is the default claim routine. It offers the templates to c from
// the most recently pushed to the first one, and stops as soon as c reports
// it is filled. It returns the runtime nodes c claimed, in claim order.
func SubmitNodes(ctx context.Context, c Claimant, templates []*Template) []*Node {
	logger := ctxlog.FromContext(ctx)

	var claimed []*Node
	for i := len(templates) - 1; i >= 0; i-- {
		if c.Filled() {
			break
		}
		tmpl := templates[i]
		if c.Submit(tmpl) == Claimed {
			logger.Debug("Node claimed.", "dependent", c.Name(), "node", tmpl.Name())
			c.PushSubmitted(tmpl.Name())
			claimed = append(claimed, tmpl.Node())
		}
	}
	return claimed
}
