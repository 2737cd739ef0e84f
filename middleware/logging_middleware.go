package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Jashshor/mini-rpc/message"
)

// Logging logs each request's method, duration, and outcome at Info level
// (Warn if the handler returned an error), using logger's structured
// fields instead of formatted strings.
func Logging(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			start := time.Now()
			resp := next(ctx, req)
			duration := time.Since(start)

			if resp == nil {
				logger.Info("dispatched notification",
					zap.String("method", req.Method),
					zap.Duration("duration", duration),
				)
				return resp
			}

			if !resp.Success() {
				logger.Warn("request failed",
					zap.String("method", req.Method),
					zap.Uint32("message_id", req.MessageID),
					zap.Duration("duration", duration),
					zap.Stringer("error_code", resp.Err.Code),
					zap.String("error_message", resp.Err.Message),
				)
				return resp
			}

			logger.Info("request handled",
				zap.String("method", req.Method),
				zap.Uint32("message_id", req.MessageID),
				zap.Duration("duration", duration),
			)
			return resp
		}
	}
}
