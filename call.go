package wirerpc

import (
	"fmt"
	"reflect"

	"wirerpc/message"
)

// Call is the descriptor of one declared remote procedure: its signature,
// its assigned FunctionID, and the optional locally-bound handler. Exactly
// one descriptor exists per declared procedure per Interface; descriptors
// are created by Declare and live as long as the interface.
type Call struct {
	ri       *Interface
	id       uint16
	sig      reflect.Type
	argTypes []reflect.Type
	retType  reflect.Type // nil for void signatures
	handler  reflect.Value
}

// Declare registers a remote procedure with signature F on ri and returns
// its descriptor. F must be a non-variadic func type with at most one
// return value; Declare panics otherwise, since a malformed signature is a
// programming error caught during setup.
//
// FunctionIDs are assigned densely in declaration order, so the sequence of
// Declare calls is the schema: it must be identical on every endpoint that
// exchanges packets.
func Declare[F any](ri *Interface) *Call {
	sig := reflect.TypeOf((*F)(nil)).Elem()
	if sig.Kind() != reflect.Func {
		panic(fmt.Sprintf("wirerpc: Declare type parameter must be a func type, got %s", sig))
	}
	if sig.IsVariadic() {
		panic(fmt.Sprintf("wirerpc: variadic signatures are not supported: %s", sig))
	}
	if sig.NumOut() > 1 {
		panic(fmt.Sprintf("wirerpc: at most one return value is supported: %s", sig))
	}

	c := &Call{sig: sig}
	c.argTypes = make([]reflect.Type, sig.NumIn())
	for i := range c.argTypes {
		c.argTypes[i] = sig.In(i)
	}
	if sig.NumOut() == 1 {
		c.retType = sig.Out(0)
	}

	ri.register(c)
	return c
}

// FunctionID returns the dense id assigned at declaration.
func (c *Call) FunctionID() uint16 {
	return c.id
}

// Bind attaches fn as the local handler for inbound calls. fn must have
// exactly the declared signature. Binding is optional, may happen any time
// before a matching call is dispatched, and may rebind a new handler.
func (c *Call) Bind(fn any) error {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Type() != c.sig {
		return fmt.Errorf("wirerpc: handler for function %d must be %s, got %T", c.id, c.sig, fn)
	}
	c.handler = v
	return nil
}

// Invoke performs the remote call with the declared arguments. It encodes
// the argument tuple, stamps the packet header, and hands the packet to the
// transport; it never blocks.
//
// Void signatures are fire-and-forget: no correlation entry is created and
// the returned Future is nil. Signatures with a result return a Future that
// resolves when the response packet is dispatched on this interface.
func (c *Call) Invoke(args ...any) (*Future, error) {
	if len(args) != len(c.argTypes) {
		return nil, fmt.Errorf("wirerpc: function %d takes %d arguments, got %d",
			c.id, len(c.argTypes), len(args))
	}
	for i, a := range args {
		if a == nil {
			continue
		}
		if !reflect.TypeOf(a).AssignableTo(c.argTypes[i]) {
			return nil, fmt.Errorf("wirerpc: function %d argument %d must be %s, got %T",
				c.id, i, c.argTypes[i], a)
		}
	}

	payload, err := c.ri.codec.EncodeArgs(args...)
	if err != nil {
		return nil, fmt.Errorf("wirerpc: encode call for function %d: %w", c.id, err)
	}

	pkt := &message.Packet{
		InstanceID: c.ri.instanceID,
		FunctionID: c.id,
		CallID:     message.NoCallID,
		Kind:       message.KindCall,
		Payload:    payload,
	}

	if c.retType == nil {
		return nil, c.ri.transport.Send(pkt)
	}

	// Create the correlation entry before sending so a response racing in
	// on another goroutine always finds it.
	callID, fut := c.ri.addPending()
	pkt.CallID = callID
	if err := c.ri.transport.Send(pkt); err != nil {
		c.ri.dropPending(callID)
		return nil, err
	}
	return fut, nil
}
