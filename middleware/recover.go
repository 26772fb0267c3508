package middleware

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"wirerpc/message"
)

// Recover converts a panicking handler into a dispatch error so a
// transport's read loop survives.
func Recover() Middleware {
	return func(next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, pkt *message.Packet) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("middleware: handler panic on function %d: %v", pkt.FunctionID, r)
					logrus.WithField("function", pkt.FunctionID).Error(err)
				}
			}()
			return next(ctx, pkt)
		}
	}
}
