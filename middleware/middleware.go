// Package middleware provides the onion-model handler chain the server
// dispatcher runs every request through before it reaches the registered
// method handler.
package middleware

import (
	"context"

	"github.com/Jashshor/mini-rpc/message"
)

// HandlerFunc processes one decoded request and returns the response to
// send back (or discard, for notifications).
type HandlerFunc func(ctx context.Context, req *message.Request) *message.Response

// Middleware wraps a HandlerFunc with additional behavior.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middlewares into a single Middleware. Chain(A, B, C)(h)
// executes A.before → B.before → C.before → h → C.after → B.after →
// A.after.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
