package middleware

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/Jashshor/mini-rpc/message"
)

// RateLimit rejects requests once the token bucket (r events/sec, burst
// capacity) is exhausted, returning INTERNAL_ERROR rather than invoking the
// next handler.
func RateLimit(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			if !limiter.Allow() {
				return message.NewError(req.MessageID, message.InternalError, "rate limit exceeded")
			}
			return next(ctx, req)
		}
	}
}
