package transport

import (
	"fmt"
	"net"

	"wirerpc/codec"
	"wirerpc/registry"
)

// Dial connects to the given address and returns an unbound Peer. The
// caller declares its endpoint against the peer and then calls Bind.
func Dial(network, address string, codecType codec.CodecType) (*Peer, error) {
	conn, err := net.Dial(network, address)
	if err != nil {
		return nil, err
	}
	return NewPeer(conn, codecType), nil
}

// DialInstance resolves an endpoint instance through the registry and dials
// its advertised address.
func DialInstance(reg registry.Registry, instanceID uint16, codecType codec.CodecType) (*Peer, error) {
	ep, err := reg.Lookup(instanceID)
	if err != nil {
		return nil, fmt.Errorf("transport: lookup instance %d: %w", instanceID, err)
	}
	return Dial("tcp", ep.Addr, codecType)
}
