package middleware

import (
	"context"
	"time"

	"github.com/Jashshor/mini-rpc/message"
)

// Timeout bounds how long the wrapped handler may run. If it doesn't
// finish within d, the middleware returns an INTERNAL_ERROR response
// immediately; the handler goroutine is left to finish on its own (Go has
// no handler-cancellation primitive beyond context, which handlers are free
// to ignore).
func Timeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			done := make(chan *message.Response, 1)
			go func() {
				done <- next(ctx, req)
			}()

			select {
			case resp := <-done:
				return resp
			case <-ctx.Done():
				return message.NewError(req.MessageID, message.InternalError, "request timed out")
			}
		}
	}
}
