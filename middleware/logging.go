package middleware

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"wirerpc/message"
)

// Logging logs every dispatched packet with its header fields and the time
// the dispatch took.
func Logging() Middleware {
	return func(next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, pkt *message.Packet) error {
			start := time.Now()
			err := next(ctx, pkt)
			entry := logrus.WithFields(logrus.Fields{
				"kind":     pkt.Kind.String(),
				"function": pkt.FunctionID,
				"call":     pkt.CallID,
				"instance": pkt.InstanceID,
				"duration": time.Since(start),
			})
			if err != nil {
				entry.WithError(err).Error("dispatch failed")
			} else {
				entry.Debug("dispatched")
			}
			return err
		}
	}
}
