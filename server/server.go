// Package server implements the RPC server: a TCP accept loop, a dynamic
// method registry, a middleware chain, and per-connection request dispatch.
//
// Request processing pipeline:
//
//	Accept conn → handleConn (single goroutine reads frames)
//	  → for each request: go handleRequest (parallel processing)
//	    → decode → middleware chain → businessHandler → encode → write response
package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Jashshor/mini-rpc/middleware"
	"github.com/Jashshor/mini-rpc/protocol"
	"github.com/Jashshor/mini-rpc/transport"
)

// Server is the RPC server. It owns a method registry, a middleware chain,
// and the set of connections it is serving.
type Server struct {
	registry    *MethodRegistry
	stats       *Stats
	logger      *zap.Logger
	listener    net.Listener
	wg          sync.WaitGroup
	shutdown    atomic.Bool
	middlewares []middleware.Middleware
	handler     middleware.HandlerFunc
}

// New creates a server with an empty method registry. Pass a *zap.Logger
// from config/logging setup, or zap.NewNop() to discard logs.
func New(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		registry: NewMethodRegistry(),
		stats:    &Stats{},
		logger:   logger,
	}
}

// Register adds or replaces the handler for method name.
func (svr *Server) Register(name string, h Handler) {
	svr.registry.Register(name, h)
}

// Use appends a middleware. Middlewares run in the order they are added,
// outermost first: Use(A); Use(B) dispatches A.before → B.before → handler
// → B.after → A.after.
func (svr *Server) Use(mw middleware.Middleware) {
	svr.middlewares = append(svr.middlewares, mw)
}

// Stats returns a snapshot of the running request counters.
func (svr *Server) Stats() StatsSnapshot {
	return svr.stats.Snapshot()
}

// Serve listens on address and runs the accept loop until Shutdown is
// called or the listener fails. The middleware chain is built once here,
// not per request.
func (svr *Server) Serve(network, address string) error {
	listener, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	svr.listener = listener
	svr.handler = middleware.Chain(svr.middlewares...)(svr.businessHandler)

	for {
		nc, err := listener.Accept()
		if err != nil {
			if svr.shutdown.Load() {
				return nil
			}
			return err
		}
		go svr.handleConn(transport.New(nc))
	}
}

// handleConn reads frames from conn sequentially (TCP is a byte stream and
// only one reader may parse frame boundaries) but dispatches each request
// to its own goroutine so a slow handler never blocks later requests on the
// same connection.
func (svr *Server) handleConn(conn *transport.Conn) {
	defer conn.Close()
	for {
		h, body, err := conn.ReadFrame()
		if err != nil {
			return
		}
		svr.wg.Add(1)
		go svr.handleRequest(h, body, conn)
	}
}

// handleRequest decodes one frame, runs it through dispatch, and writes
// back a response frame unless dispatch reports none is due.
func (svr *Server) handleRequest(h protocol.Header, body []byte, conn *transport.Conn) {
	defer svr.wg.Done()

	resp, shouldRespond := svr.dispatch(h, body)
	if !shouldRespond {
		return
	}

	respBody, err := resp.EncodeBody()
	if err != nil {
		svr.logger.Warn("failed to encode response", zap.Error(err))
		return
	}
	respHeader := &protocol.Header{
		Type:      protocol.MessageResponse,
		MessageID: resp.MessageID,
		Timestamp: uint64(time.Now().Unix()),
	}
	if err := conn.WriteFrame(respHeader, respBody); err != nil {
		svr.logger.Warn("failed to write response frame", zap.Error(err))
	}
}

// Shutdown stops accepting new connections and waits up to timeout for
// in-flight requests to finish.
func (svr *Server) Shutdown(timeout time.Duration) error {
	svr.shutdown.Store(true)
	if svr.listener != nil {
		svr.listener.Close()
	}

	done := make(chan struct{})
	go func() {
		svr.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("server: timeout waiting for in-flight requests")
	}
}
