// ConnPool is an alternative, non-multiplexed transport strategy: each
// borrowed Conn is used exclusively by one caller at a time instead of being
// shared across concurrent in-flight calls the way the multiplexed client
// does. A caller talking to a peer that cannot interleave frames from
// different in-flight requests can use a ConnPool instead of client.Client,
// borrowing a connection per call rather than sharing one.
//
// Pool design: a buffered channel as a FIFO queue. Buffered channels are
// concurrency-safe and block naturally when empty, so borrowing and
// returning need no extra synchronization beyond curConns bookkeeping.
package transport

import (
	"fmt"
	"net"
	"sync"
)

// PoolConn wraps a pooled Conn with pool membership metadata.
type PoolConn struct {
	*Conn
	pool     *ConnPool
	unusable bool // set true once an I/O error is observed on this conn
}

// MarkUnusable flags this connection for closing instead of reuse on Put.
func (p *PoolConn) MarkUnusable() {
	p.unusable = true
}

// ConnPool manages a bounded set of reusable connections to one address.
type ConnPool struct {
	mu       sync.Mutex
	conns    chan *PoolConn
	addr     string
	maxConns int
	curConns int
	factory  func() (net.Conn, error)
}

// NewConnPool creates a pool that lazily dials up to maxConns connections to
// addr using factory.
func NewConnPool(addr string, maxConns int, factory func() (net.Conn, error)) *ConnPool {
	return &ConnPool{
		conns:    make(chan *PoolConn, maxConns),
		addr:     addr,
		maxConns: maxConns,
		factory:  factory,
	}
}

// Get borrows a connection, dialing a new one if the pool is under capacity
// and none is idle, else blocking until one is returned.
func (p *ConnPool) Get() (*PoolConn, error) {
	select {
	case conn := <-p.conns:
		if conn.unusable {
			return p.createNew()
		}
		return conn, nil
	default:
		p.mu.Lock()
		underLimit := p.curConns < p.maxConns
		p.mu.Unlock()
		if underLimit {
			return p.createNew()
		}
		conn := <-p.conns
		return conn, nil
	}
}

// Put returns conn to the pool, or closes and discards it if it was marked
// unusable.
func (p *ConnPool) Put(conn *PoolConn) {
	if conn.unusable {
		conn.Close()
		p.mu.Lock()
		p.curConns--
		p.mu.Unlock()
		return
	}
	p.conns <- conn
}

// Close closes the pool and every idle connection it holds.
func (p *ConnPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	close(p.conns)
	for conn := range p.conns {
		conn.Close()
		p.curConns--
	}
	return nil
}

func (p *ConnPool) createNew() (*PoolConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.curConns >= p.maxConns {
		return nil, fmt.Errorf("transport: connection pool for %s exhausted", p.addr)
	}

	nc, err := p.factory()
	if err != nil {
		return nil, err
	}

	p.curConns++
	return &PoolConn{Conn: New(nc), pool: p}, nil
}
