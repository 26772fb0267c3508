// Package transport provides concrete Transport hooks that move packets
// between endpoints: an in-memory Queue for cooperative, in-process use and
// a Peer that frames packets over a byte-stream connection.
package transport

import (
	"sync"

	"wirerpc/message"
	"wirerpc/middleware"
)

// Queue is an in-memory packet exchange keyed by the sending endpoint's
// instance id. An endpoint sends by appending to its own queue; the other
// side drains that queue through its dispatcher with Pump. This is the
// cooperative single-threaded mode of the core: packets produced now are
// dispatched later, in whatever execution context calls Pump.
type Queue struct {
	mu     sync.Mutex
	queues map[uint16][]*message.Packet
}

func NewQueue() *Queue {
	return &Queue{queues: make(map[uint16][]*message.Packet)}
}

// Send enqueues pkt under the id of the endpoint that produced it.
func (q *Queue) Send(pkt *message.Packet) error {
	q.mu.Lock()
	q.queues[pkt.InstanceID] = append(q.queues[pkt.InstanceID], pkt)
	q.mu.Unlock()
	return nil
}

// Len reports how many packets from the given endpoint are waiting.
func (q *Queue) Len(from uint16) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues[from])
}

// Pump drains every packet the endpoint `from` has produced so far into h.
// Dispatch runs outside the queue lock, so handlers may send new packets
// (responses re-enter the queue under the dispatching endpoint's id).
// Stops at the first dispatch error.
func (q *Queue) Pump(from uint16, h middleware.Handler) error {
	q.mu.Lock()
	pkts := q.queues[from]
	q.queues[from] = nil
	q.mu.Unlock()

	for _, pkt := range pkts {
		if err := h.Dispatch(pkt); err != nil {
			return err
		}
	}
	return nil
}
