package middleware

import (
	"context"
	"errors"
	"time"

	"wirerpc/message"
)

var ErrDispatchTimeout = errors.New("middleware: dispatch timed out")

// Timeout bounds how long a bound handler may run. The dispatch itself
// never blocks, but a slow handler would stall a transport's read loop;
// this middleware moves it off the critical path after the deadline.
func Timeout(timeout time.Duration) Middleware {
	return func(next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, pkt *message.Packet) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- next(ctx, pkt)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				return ErrDispatchTimeout
			}
		}
	}
}
