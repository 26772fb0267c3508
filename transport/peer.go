package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"wirerpc/codec"
	"wirerpc/message"
	"wirerpc/middleware"
	"wirerpc/protocol"
)

var ErrPeerClosed = errors.New("transport: peer closed")

// Peer moves packets over a single byte-stream connection, framing them
// with the protocol package. One goroutine (recvLoop) reads inbound frames
// and feeds them through the dispatch chain; writes are serialized by a
// mutex so concurrent sends cannot interleave frames.
//
// The recv loop runs on its own goroutine, so an Interface bound to a Peer
// whose callers invoke from other goroutines should carry a Guard in its
// Options; the core takes no locks of its own.
type Peer struct {
	conn      net.Conn
	codecType codec.CodecType
	sending   sync.Mutex // serializes frame writes on the shared conn
	handler   middleware.DispatchFunc
	closed    atomic.Bool
	done      chan struct{} // closed when recvLoop exits
}

// NewPeer wraps an established connection. The peer does not read from the
// connection until Bind attaches a dispatcher.
func NewPeer(conn net.Conn, codecType codec.CodecType) *Peer {
	return &Peer{
		conn:      conn,
		codecType: codecType,
		done:      make(chan struct{}),
	}
}

// Bind attaches the endpoint's dispatcher, wrapped in the given middlewares,
// and starts the receive and heartbeat loops. Declare all calls on the
// endpoint before binding: from this point inbound packets are dispatched
// concurrently.
func (p *Peer) Bind(h middleware.Handler, middlewares ...middleware.Middleware) {
	p.handler = middleware.Wrap(h, middlewares...)
	go p.recvLoop()
	go p.heartbeatLoop(30 * time.Second)
}

// Send frames pkt and writes it to the connection. The sending mutex keeps
// the whole frame atomic when several goroutines share the peer.
func (p *Peer) Send(pkt *message.Packet) error {
	if p.closed.Load() {
		return ErrPeerClosed
	}
	p.sending.Lock()
	defer p.sending.Unlock()
	return protocol.Encode(p.conn, p.codecType, pkt)
}

// Done returns a channel closed when the receive loop has exited, either
// because the peer was closed or the connection broke.
func (p *Peer) Done() <-chan struct{} {
	return p.done
}

// Close shuts the connection down. Safe to call more than once.
func (p *Peer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.conn.Close()
}

// recvLoop reads frames sequentially (the stream has no other boundary)
// and dispatches each packet. Dispatch errors are logged and the loop keeps
// serving: per the error policy only codec faults surface here, and one bad
// payload must not take the connection down with pending calls on it.
func (p *Peer) recvLoop() {
	defer close(p.done)
	for {
		_, pkt, err := protocol.Decode(p.conn)
		if err != nil {
			if !p.closed.Load() {
				logrus.WithError(err).Debug("peer receive loop stopped")
			}
			return
		}
		if pkt == nil {
			continue // heartbeat
		}
		if err := p.handler(context.Background(), pkt); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"kind":     pkt.Kind.String(),
				"function": pkt.FunctionID,
				"call":     pkt.CallID,
			}).Error("dispatch failed")
		}
	}
}

// heartbeatLoop keeps idle connections alive with empty frames. Heartbeats
// take the sending lock like any other write.
func (p *Peer) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
		}
		p.sending.Lock()
		err := protocol.EncodeHeartbeat(p.conn)
		p.sending.Unlock()
		if err != nil {
			return
		}
	}
}
