package transport

import (
	"net"
	"sync"
	"sync/atomic"

	"wirerpc/codec"
)

// Listener accepts inbound connections and turns each one into a Peer.
// The correlation core is symmetric point-to-point: one Interface talks to
// one peer endpoint. setup builds a fresh endpoint per connection and
// binds it to the new peer.
type Listener struct {
	ln       net.Listener
	shutdown atomic.Bool
	mu       sync.Mutex
	peers    []*Peer
}

func Listen(network, address string) (*Listener, error) {
	ln, err := net.Listen(network, address)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln}, nil
}

func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Serve runs the accept loop. For every connection it creates a Peer and
// hands it to setup, which declares the endpoint's calls and ends with
// p.Bind. Serve returns nil after Close, or the accept error otherwise.
func (l *Listener) Serve(codecType codec.CodecType, setup func(p *Peer)) error {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			// Close makes Accept fail; the shutdown flag tells an
			// intentional stop apart from a real error.
			if l.shutdown.Load() {
				return nil
			}
			return err
		}
		peer := NewPeer(conn, codecType)
		l.mu.Lock()
		l.peers = append(l.peers, peer)
		l.mu.Unlock()
		setup(peer)
	}
}

// Close stops accepting and closes every peer created by Serve.
func (l *Listener) Close() error {
	l.shutdown.Store(true)
	err := l.ln.Close()
	l.mu.Lock()
	peers := l.peers
	l.peers = nil
	l.mu.Unlock()
	for _, p := range peers {
		p.Close()
	}
	return err
}
