// Package message defines the packet exchanged between endpoints.
//
// Packet is the "envelope" for every remote invocation and every reply.
// The header is fixed-shape; the payload is opaque bytes produced and
// consumed only by the codec layer. Framing for byte-stream transports
// lives in the protocol package.
package message

// Kind distinguishes a request packet from its reply.
type Kind uint8

const (
	KindCall     Kind = 0 // caller → callee invocation
	KindResponse Kind = 1 // callee → caller result, same CallID as the call
)

func (k Kind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindResponse:
		return "response"
	}
	return "unknown"
}

// NoCallID is the reserved CallID carried by fire-and-forget packets.
// Calls that expect a result always use a non-zero id.
const NoCallID uint32 = 0

// Packet carries one invocation or one result across the transport boundary.
//
//   - On a call:     FunctionID selects the remote procedure, Payload holds
//     the encoded argument tuple, CallID is non-zero iff a result is expected.
//   - On a response: CallID equals the CallID of the call it answers, Payload
//     holds the encoded single-element result tuple.
type Packet struct {
	InstanceID uint16 // identity of the endpoint that produced the packet
	FunctionID uint16 // dense, registration-order id of the procedure
	CallID     uint32 // in-flight invocation id, NoCallID for fire-and-forget
	Kind       Kind
	Payload    []byte
}
