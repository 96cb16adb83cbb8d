package syncgraph

import (
	"context"
	"fmt"
	"sync"
)

// token is the value carried by an edge. It marks that the producer finished
// a tick; it carries no data.
type token = struct{}

// edge is a single-slot hand-off channel between one producer node and one
// consumer node.
type edge struct {
	producer string
	consumer string

	slot chan token

	// consumerGone is closed when the consumer side is dropped.
	consumerGone chan struct{}
	dropConsumer sync.Once
	dropProducer sync.Once
}

func newEdge(producer, consumer string) *edge {
	return &edge{
		producer:     producer,
		consumer:     consumer,
		slot:         make(chan token, 1),
		consumerGone: make(chan struct{}),
	}
}

// String returns the edge as "producer->consumer".
func (e *edge) String() string {
	return fmt.Sprintf("%s->%s", e.producer, e.consumer)
}

// charge deposits a token without blocking. It is only used while wiring, when
// the slot is known to be empty.
func (e *edge) charge() {
	e.slot <- token{}
}

// send places one token into the slot, blocking while the previous token is
// still unconsumed.
func (e *edge) send(ctx context.Context) error {
	// A dropped consumer wins over a free slot.
	select {
	case <-e.consumerGone:
		return &EdgeError{Edge: e.String(), Side: "consumer"}
	default:
	}

	select {
	case e.slot <- token{}:
		return nil
	case <-e.consumerGone:
		return &EdgeError{Edge: e.String(), Side: "consumer"}
	case <-ctx.Done():
		return fmt.Errorf("release on %s: %w", e, ErrHalted)
	}
}

// recv takes exactly one token out of the slot.
func (e *edge) recv(ctx context.Context) error {
	select {
	case _, ok := <-e.slot:
		if !ok {
			return &EdgeError{Edge: e.String(), Side: "producer"}
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait on %s: %w", e, ErrHalted)
	}
}

// closeProducer marks the producer as dropped. Tokens already in the slot are
// still delivered; the next receive after that fails.
func (e *edge) closeProducer() {
	e.dropProducer.Do(func() { close(e.slot) })
}

// closeConsumer marks the consumer as dropped.
func (e *edge) closeConsumer() {
	e.dropConsumer.Do(func() { close(e.consumerGone) })
}
