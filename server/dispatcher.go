package server

import (
	"context"
	"errors"
	"time"

	"github.com/Jashshor/mini-rpc/codec"
	"github.com/Jashshor/mini-rpc/message"
	"github.com/Jashshor/mini-rpc/protocol"
)

// dispatch runs one decoded frame through the §4.3 pipeline and reports
// whether a response frame should be written back. Heartbeats and
// notifications whose body decodes never produce a response; a frame whose
// body fails to decode always gets an error response.
func (svr *Server) dispatch(h protocol.Header, body []byte) (*message.Response, bool) {
	if h.Type == protocol.MessageHeartbeat {
		return nil, false
	}

	req, err := codec.DecodeRequest(h, body)
	if err != nil {
		// The frame header's message_id is known even when the body isn't:
		// it lives outside the JSON body being decoded here.
		if errors.Is(err, message.ErrMissingMethod) {
			return message.NewError(h.MessageID, message.InvalidRequest, err.Error()), true
		}
		return message.NewError(h.MessageID, message.ParseError, err.Error()), true
	}

	if h.Type == protocol.MessageNotification || req.MessageID == 0 {
		svr.handler(context.Background(), req)
		return nil, false
	}

	resp := svr.handler(context.Background(), req)
	return resp, true
}

// businessHandler is the innermost HandlerFunc the middleware chain wraps:
// method lookup, invocation, and the per-server counters.
func (svr *Server) businessHandler(ctx context.Context, req *message.Request) *message.Response {
	start := time.Now()

	h, ok := svr.registry.Lookup(req.Method)
	if !ok {
		svr.stats.record(false, 0)
		return message.NewError(req.MessageID, message.MethodNotFound,
			"Method '"+req.Method+"' not found")
	}

	result, err := h(req.Params)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		svr.stats.record(false, elapsed)
		// A handler that wants a specific wire error code (e.g.
		// INVALID_PARAMS) signals it by returning *message.RPCError
		// directly; any other error collapses to INTERNAL_ERROR.
		if rpcErr, ok := err.(*message.RPCError); ok {
			return &message.Response{MessageID: req.MessageID, Err: rpcErr}
		}
		return message.NewError(req.MessageID, message.InternalError, err.Error())
	}

	svr.stats.record(true, elapsed)
	return message.NewSuccess(req.MessageID, result)
}
