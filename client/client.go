// Package client implements the RPC call engine: a multiplexed connection
// that correlates requests and responses by message id, supporting blocking
// calls, non-blocking calls with a callback, and fire-and-forget
// notifications.
package client

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Jashshor/mini-rpc/codec"
	"github.com/Jashshor/mini-rpc/message"
	"github.com/Jashshor/mini-rpc/protocol"
	"github.com/Jashshor/mini-rpc/transport"
)

// writeRequest frames req and writes it through conn.WriteFrame, which
// holds the connection's write lock — required here because many
// in-flight calls share one multiplexed connection and must never
// interleave frame bytes.
func writeRequest(conn *transport.Conn, req *message.Request) error {
	body, err := req.EncodeBody()
	if err != nil {
		return fmt.Errorf("client: encode request: %w", err)
	}
	msgType := protocol.MessageRequest
	if req.MessageID == 0 {
		msgType = protocol.MessageNotification
	}
	return conn.WriteFrame(&protocol.Header{
		Type:      msgType,
		MessageID: req.MessageID,
		Timestamp: uint64(time.Now().Unix()),
	}, body)
}

// DefaultTimeout is used by Call/AsyncCall when the caller passes 0.
const DefaultTimeout = 5 * time.Second

// sweepInterval bounds how late a timeout fires past its deadline.
const sweepInterval = 50 * time.Millisecond

// Client multiplexes calls over a single connection. Responses can arrive
// out of order; each is routed back to its caller by message id.
type Client struct {
	conn    *transport.Conn
	logger  *zap.Logger
	nextID  uint32
	calls   *callTable
	stats   Stats
	closed  atomic.Bool
	closeCh chan struct{}
}

// Dial connects to address and starts the client's background goroutines.
func Dial(network, address string, logger *zap.Logger) (*Client, error) {
	nc, err := net.Dial(network, address)
	if err != nil {
		return nil, err
	}
	return New(nc, logger), nil
}

// New wraps an already-connected socket. Exported so callers that manage
// their own net.Dial (e.g. for custom TLS config) can still get a Client.
func New(nc net.Conn, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		conn:    transport.New(nc),
		logger:  logger,
		calls:   newCallTable(),
		closeCh: make(chan struct{}),
	}
	go c.recvLoop()
	go c.sweepLoop()
	return c
}

// Call sends method/params as a REQUEST and blocks until the matching
// response arrives or timeout elapses (DefaultTimeout if timeout <= 0). It
// returns the response's Result, or the response's *message.RPCError itself
// as the error for a failed call.
func (c *Client) Call(ctx context.Context, method, params string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	respCh := make(chan *message.Response, 1)
	id, err := c.send(method, params, timeout, respCh, nil)
	if err != nil {
		return "", err
	}

	select {
	case resp := <-respCh:
		if !resp.Success() {
			return "", resp.Err
		}
		return resp.Result, nil
	case <-ctx.Done():
		c.calls.takeAndDelete(id)
		return "", ctx.Err()
	}
}

// AsyncCall sends method/params as a REQUEST and returns immediately. cb is
// invoked from the client's recv or sweep goroutine once a response or
// timeout arrives — callers must not block inside cb.
func (c *Client) AsyncCall(method, params string, timeout time.Duration, cb func(*message.Response)) (uint32, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return c.send(method, params, timeout, nil, cb)
}

// Notify sends method/params as a NOTIFICATION (message id 0): no response
// is expected and none is awaited.
func (c *Client) Notify(method, params string) error {
	if c.closed.Load() {
		return fmt.Errorf("client: connection closed")
	}
	req := &message.Request{Method: method, Params: params}
	return writeRequest(c.conn, req)
}

// send allocates a message id, registers the pending call, and writes the
// request frame, cleaning the pending entry back up if the write fails.
func (c *Client) send(method, params string, timeout time.Duration, sync chan *message.Response, cb func(*message.Response)) (uint32, error) {
	if c.closed.Load() {
		return 0, fmt.Errorf("client: connection closed")
	}

	id := atomic.AddUint32(&c.nextID, 1)
	req := &message.Request{MessageID: id, Method: method, Params: params, TimeoutMs: uint32(timeout.Milliseconds())}

	now := time.Now()
	c.calls.add(&pendingCall{
		messageID: id,
		start:     now,
		deadline:  now.Add(timeout),
		sync:      sync,
		callback:  cb,
	})

	if err := writeRequest(c.conn, req); err != nil {
		c.calls.takeAndDelete(id)
		return 0, err
	}
	return id, nil
}

// recvLoop reads response frames and routes each to its pending call. On
// read failure (EOF, reset, protocol violation) it drains every pending
// call with a NetworkError response exactly once — a call is never left
// waiting forever just because the peer vanished.
func (c *Client) recvLoop() {
	for {
		h, body, err := c.conn.ReadFrame()
		if err != nil {
			c.shutdown(err)
			return
		}
		if h.Type == protocol.MessageHeartbeat {
			continue
		}

		resp, err := codec.DecodeResponse(body)
		if err != nil {
			c.logger.Warn("discarding malformed response frame", zap.Error(err))
			continue
		}

		if p, ok := c.calls.takeAndDelete(resp.MessageID); ok {
			c.stats.record(resp.Success(), false, time.Since(p.start))
			p.deliver(resp)
		}
	}
}

// sweepLoop periodically fails any call whose deadline has passed. A
// single ticking goroutine replaces a per-call timer, matching §4.5's
// deadline-sweep design.
func (c *Client) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			for _, p := range c.calls.expired(now) {
				c.stats.record(false, true, now.Sub(p.start))
				p.deliver(message.NewError(p.messageID, message.TimeoutError, "Request timeout"))
			}
		case <-c.closeCh:
			return
		}
	}
}

// shutdown drains every pending call with a NetworkError response and
// marks the client closed. Safe to call more than once. cause is logged
// but never exposed on the wire: every drained call gets the same literal
// teardown message regardless of why the connection went down.
func (c *Client) shutdown(cause error) {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	close(c.closeCh)
	if cause != nil {
		c.logger.Warn("connection closed", zap.Error(cause))
	}
	now := time.Now()
	for _, p := range c.calls.drainAll() {
		c.stats.record(false, false, now.Sub(p.start))
		p.deliver(message.NewError(p.messageID, message.NetworkError, "Connection closed"))
	}
}

// Stats returns a snapshot of this client's per-client counters (§4.4
// Counter update): total/success/error/timeout call counts and the
// incrementally-updated average response time.
func (c *Client) Stats() StatsSnapshot {
	return c.stats.Snapshot()
}

// Close shuts down the underlying connection and fails any pending calls.
func (c *Client) Close() error {
	err := c.conn.Close()
	c.shutdown(err)
	return err
}
