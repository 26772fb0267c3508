// Package wirerpc is a transport-agnostic typed call/response correlation
// core. An Interface owns a set of declared remote procedures, assigns each
// a stable FunctionID, turns invocations into self-describing packets,
// routes inbound packets to the matching local handler, and resolves
// asynchronous results back to the original caller.
//
// Declaration order defines the ids, so every endpoint that communicates
// must declare the same signatures in the same order:
//
//	ri := wirerpc.New(1, tr, codec.GetCodec(codec.CodecTypeJSON), nil)
//	square := wirerpc.Declare[func(int) int](ri)
//	square.Bind(func(v int) int { return v * v })
//
//	fut, _ := square.Invoke(5)
//	// ... packets flow through the transport, Dispatch runs on each side ...
//	n := wirerpc.Await[int](fut) // 25
//
// The actual transport and the payload encoding are pluggable collaborators:
// the Transport interface moves packets, the codec package packs tuples.
package wirerpc

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"wirerpc/codec"
	"wirerpc/message"
)

// Transport is the hook that moves a completed packet out of the endpoint.
// Implementations live outside the core (see the transport package); the
// core never blocks on Send.
type Transport interface {
	Send(pkt *message.Packet) error
}

// ErrNoHandler is returned by Dispatch for an unbound void-return call when
// the interface runs with the UnboundError policy.
var ErrNoHandler = errors.New("wirerpc: no handler bound")

// UnboundPolicy selects what Dispatch does with a void-return call whose
// descriptor has no bound handler. Calls with a result are not affected:
// they always answer with the return type's zero value so the caller is
// never left waiting.
type UnboundPolicy int

const (
	// UnboundIgnore silently skips the call.
	UnboundIgnore UnboundPolicy = iota
	// UnboundError makes Dispatch surface ErrNoHandler.
	UnboundError
)

// Options configures an Interface. The zero value is usable.
type Options struct {
	OnUnbound UnboundPolicy

	// Guard serializes access to the call id counter and the correlation
	// table. The core takes no locks of its own: leave Guard nil for
	// single-threaded (cooperative) use, or supply a sync.Locker when
	// invocations and dispatch run on different goroutines.
	Guard sync.Locker
}

type noGuard struct{}

func (noGuard) Lock()   {}
func (noGuard) Unlock() {}

// Interface is one endpoint's registry of declared remote procedures plus
// its dispatch and correlation state. Declare all calls before the first
// Dispatch; the descriptor tables are not safe for concurrent mutation.
type Interface struct {
	instanceID uint16
	transport  Transport
	codec      codec.Codec
	onUnbound  UnboundPolicy
	guard      sync.Locker

	fnCounter   uint16
	callCounter uint32
	calls       map[uint16]*Call
	results     map[uint16]*Call // non-void signatures only
	pending     map[uint32]*Future
}

// New creates an Interface with the given instance identity, transport hook,
// and payload codec. opt may be nil for the defaults.
func New(instanceID uint16, tr Transport, c codec.Codec, opt *Options) *Interface {
	ri := &Interface{
		instanceID: instanceID,
		transport:  tr,
		codec:      c,
		guard:      noGuard{},
		calls:      make(map[uint16]*Call),
		results:    make(map[uint16]*Call),
		pending:    make(map[uint32]*Future),
	}
	if opt != nil {
		ri.onUnbound = opt.OnUnbound
		if opt.Guard != nil {
			ri.guard = opt.Guard
		}
	}
	return ri
}

// InstanceID returns the endpoint identity stamped on outbound packets.
func (ri *Interface) InstanceID() uint16 {
	return ri.instanceID
}

// SetInstanceID assigns the endpoint identity. Endpoints with a static id
// pass it to New; dynamically identified endpoints (e.g. ids handed out by
// the registry) set it here before the first invocation.
func (ri *Interface) SetInstanceID(id uint16) {
	ri.instanceID = id
}

// register assigns the next dense FunctionID to c and stores the dispatch
// entry, plus a response-dispatch entry when the signature has a result.
// Called from Declare during the single-threaded setup phase.
func (ri *Interface) register(c *Call) {
	c.id = ri.fnCounter
	ri.fnCounter++
	c.ri = ri
	ri.calls[c.id] = c
	if c.retType != nil {
		ri.results[c.id] = c
	}
}

// addPending allocates the next call id and creates the correlation entry
// for it. Call ids start at 1; message.NoCallID marks fire-and-forget.
func (ri *Interface) addPending() (uint32, *Future) {
	fut := newFuture()
	ri.guard.Lock()
	ri.callCounter++
	id := ri.callCounter
	ri.pending[id] = fut
	ri.guard.Unlock()
	return id, fut
}

// dropPending removes a correlation entry without resolving it, used when
// the transport rejects the outbound packet.
func (ri *Interface) dropPending(callID uint32) {
	ri.guard.Lock()
	delete(ri.pending, callID)
	ri.guard.Unlock()
}

// Pending reports the number of outstanding correlation entries. Entries
// whose response never arrives are retained indefinitely; eviction, like
// cancellation, is left to the embedding application.
func (ri *Interface) Pending() int {
	ri.guard.Lock()
	defer ri.guard.Unlock()
	return len(ri.pending)
}

// Resolve fulfills the correlation entry for callID with the typed result
// and removes it. Unknown, stale, or already-resolved ids are a no-op,
// never an error. Each entry is resolved at most once.
func (ri *Interface) Resolve(callID uint32, result any) {
	ri.guard.Lock()
	fut, ok := ri.pending[callID]
	if ok {
		delete(ri.pending, callID)
	}
	ri.guard.Unlock()
	if ok {
		fut.resolve(result)
	}
}

// Dispatch routes an inbound packet on its kind, then its function id.
//
// A call packet decodes the argument tuple and runs the bound handler;
// signatures with a result synthesize a response packet carrying the same
// call id (the zero value stands in when no handler is bound). A response
// packet decodes the result and resolves the matching correlation entry.
//
// Packets whose function id was never declared are dropped silently:
// tolerance of unknown procedures is deliberate. The only errors Dispatch
// returns are payload decode faults and, under UnboundError, ErrNoHandler.
func (ri *Interface) Dispatch(pkt *message.Packet) error {
	if pkt.Kind == message.KindResponse {
		return ri.dispatchResponse(pkt)
	}
	return ri.dispatchCall(pkt)
}

func (ri *Interface) dispatchCall(pkt *message.Packet) error {
	c, ok := ri.calls[pkt.FunctionID]
	if !ok {
		return nil
	}

	ptrs := make([]any, len(c.argTypes))
	for i, at := range c.argTypes {
		ptrs[i] = reflect.New(at).Interface()
	}
	if err := ri.codec.DecodeArgs(pkt.Payload, ptrs); err != nil {
		return fmt.Errorf("wirerpc: decode call for function %d: %w", pkt.FunctionID, err)
	}

	if !c.handler.IsValid() {
		if c.retType == nil {
			if ri.onUnbound == UnboundError {
				return fmt.Errorf("wirerpc: function %d: %w", pkt.FunctionID, ErrNoHandler)
			}
			return nil
		}
		// Never leave the caller waiting: answer with the zero value.
		return ri.respond(c, pkt.CallID, reflect.Zero(c.retType).Interface())
	}

	args := make([]reflect.Value, len(ptrs))
	for i, p := range ptrs {
		args[i] = reflect.ValueOf(p).Elem()
	}
	rets := c.handler.Call(args)

	if c.retType != nil {
		return ri.respond(c, pkt.CallID, rets[0].Interface())
	}
	return nil
}

func (ri *Interface) dispatchResponse(pkt *message.Packet) error {
	c, ok := ri.results[pkt.FunctionID]
	if !ok {
		return nil
	}

	out := reflect.New(c.retType)
	if err := ri.codec.DecodeArgs(pkt.Payload, []any{out.Interface()}); err != nil {
		return fmt.Errorf("wirerpc: decode response for function %d call %d: %w",
			pkt.FunctionID, pkt.CallID, err)
	}

	ri.Resolve(pkt.CallID, out.Elem().Interface())
	return nil
}

// respond packages a handler result into a response packet with the call's
// id and hands it to the transport.
func (ri *Interface) respond(c *Call, callID uint32, result any) error {
	payload, err := ri.codec.EncodeArgs(result)
	if err != nil {
		return fmt.Errorf("wirerpc: encode response for function %d: %w", c.id, err)
	}
	return ri.transport.Send(&message.Packet{
		InstanceID: ri.instanceID,
		FunctionID: c.id,
		CallID:     callID,
		Kind:       message.KindResponse,
		Payload:    payload,
	})
}
