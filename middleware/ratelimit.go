package middleware

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"wirerpc/message"
)

var ErrRateLimited = errors.New("middleware: rate limit exceeded")

// RateLimit drops packets beyond the token-bucket budget. Dropping an
// inbound call is safe for the protocol: senders treat a missing response
// like any other lost packet.
func RateLimit(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, pkt *message.Packet) error {
			if !limiter.Allow() {
				return ErrRateLimited
			}
			return next(ctx, pkt)
		}
	}
}
