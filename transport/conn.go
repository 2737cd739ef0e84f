// Package transport adapts a connected socket to the read/write primitives
// C4 (server dispatch) and C6 (client call engine) need: a frame-at-a-time
// reader and a write that serializes concurrent writers onto one stream.
//
// Reads are never protected by a lock — both the server and the client
// enforce a single reader goroutine per connection (TCP is a byte stream;
// two concurrent readers would tear frames in half). Writes go through
// writeMu because multiple request-handling goroutines on the server, or
// multiple in-flight calls on the client, share one underlying net.Conn.
package transport

import (
	"net"
	"sync"

	"github.com/Jashshor/mini-rpc/protocol"
)

// Conn binds a net.Conn to mini-rpc's frame reader/writer discipline.
type Conn struct {
	nc      net.Conn
	reader  *protocol.FrameReader
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// New wraps an already-connected socket.
func New(nc net.Conn) *Conn {
	return &Conn{
		nc:     nc,
		reader: protocol.NewFrameReader(nc),
	}
}

// ReadFrame blocks for one complete frame. Callers must not call ReadFrame
// concurrently from more than one goroutine.
func (c *Conn) ReadFrame() (protocol.Header, []byte, error) {
	return c.reader.ReadFrame()
}

// WriteFrame serializes a header+body frame onto the connection, holding
// writeMu for the duration so concurrent writers never interleave bytes
// from two different frames.
func (c *Conn) WriteFrame(h *protocol.Header, body []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return protocol.Encode(c.nc, h, body)
}

// Close shuts down the underlying connection. It is safe to call multiple
// times; only the first call's result is returned.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.nc.Close()
	})
	return c.closeErr
}

// RemoteAddr returns the underlying connection's remote address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}

// Raw exposes the wrapped net.Conn, e.g. for setting deadlines.
func (c *Conn) Raw() net.Conn {
	return c.nc
}
