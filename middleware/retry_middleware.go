package middleware

import (
	"context"
	"time"

	"github.com/Jashshor/mini-rpc/message"
)

// Retry re-invokes next up to maxRetries times, with exponential backoff,
// when the response carries a retryable error (timeout or network
// failure). Any other error is returned immediately. It is meant for
// client-side use — wrapping a call that dials out over the network —
// rather than the server dispatch chain.
func Retry(maxRetries int, baseDelay time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			resp := next(ctx, req)
			for i := 0; i < maxRetries; i++ {
				if resp.Success() || !isRetryable(resp.Err.Code) {
					return resp
				}
				time.Sleep(baseDelay * time.Duration(1<<uint(i)))
				resp = next(ctx, req)
			}
			return resp
		}
	}
}

func isRetryable(code message.ErrorCode) bool {
	return code == message.TimeoutError || code == message.NetworkError
}
