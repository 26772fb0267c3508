// Package middleware wraps packet dispatch with cross-cutting concerns.
//
// Transports build a dispatch chain once at bind time:
//
//	Chain(A, B, C)(dispatch) → A(B(C(dispatch)))
//	Execution order: A.before → B.before → C.before → dispatch → C.after → B.after → A.after
package middleware

import (
	"context"

	"wirerpc/message"
)

// Handler is the dispatch entry point of an endpoint. wirerpc.Interface
// satisfies it.
type Handler interface {
	Dispatch(pkt *message.Packet) error
}

type DispatchFunc func(ctx context.Context, pkt *message.Packet) error

type Middleware func(next DispatchFunc) DispatchFunc

// Chain combines middlewares into one, preserving registration order.
func Chain(middlewares ...Middleware) Middleware {
	return func(next DispatchFunc) DispatchFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// Wrap builds the dispatch function for h with the given middlewares applied.
func Wrap(h Handler, middlewares ...Middleware) DispatchFunc {
	base := func(ctx context.Context, pkt *message.Packet) error {
		return h.Dispatch(pkt)
	}
	return Chain(middlewares...)(base)
}
