// Package discoveryclient layers service discovery and load balancing on
// top of the core, single-connection client for deployments running
// several mini-rpc server instances behind one logical service name. It is
// strictly additive: package client itself never imports discovery or
// loadbalance, so a caller wanting the simple single-address case is never
// forced to drag in etcd.
package discoveryclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Jashshor/mini-rpc/client"
	"github.com/Jashshor/mini-rpc/discovery"
	"github.com/Jashshor/mini-rpc/loadbalance"
)

// Client picks a server instance for serviceName on every call via
// balancer, dialing (and caching) one multiplexed client.Client per
// discovered address.
type Client struct {
	serviceName string
	registry    discovery.Registry
	balancer    loadbalance.Balancer
	logger      *zap.Logger

	mu    sync.Mutex
	conns map[string]*client.Client
}

// New builds a discovery-backed client for serviceName, using registry to
// resolve instances and balancer to pick among them.
func New(serviceName string, registry discovery.Registry, balancer loadbalance.Balancer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		serviceName: serviceName,
		registry:    registry,
		balancer:    balancer,
		logger:      logger,
		conns:       make(map[string]*client.Client),
	}
}

// Call discovers instances of the configured service, picks one via the
// balancer, and issues a blocking call against it.
func (dc *Client) Call(ctx context.Context, method, params string, timeout time.Duration) (string, error) {
	instances, err := dc.registry.Discover(dc.serviceName)
	if err != nil {
		return "", fmt.Errorf("discoveryclient: discover %q: %w", dc.serviceName, err)
	}

	instance, err := dc.balancer.Pick(instances)
	if err != nil {
		return "", fmt.Errorf("discoveryclient: pick instance for %q: %w", dc.serviceName, err)
	}

	conn, err := dc.connFor(instance.Addr)
	if err != nil {
		return "", err
	}
	return conn.Call(ctx, method, params, timeout)
}

// connFor returns the cached client for addr, dialing one on first use.
func (dc *Client) connFor(addr string) (*client.Client, error) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if c, ok := dc.conns[addr]; ok {
		return c, nil
	}

	c, err := client.Dial("tcp", addr, dc.logger)
	if err != nil {
		return nil, fmt.Errorf("discoveryclient: dial %s: %w", addr, err)
	}
	dc.conns[addr] = c
	return c, nil
}

// Close closes every cached connection.
func (dc *Client) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	var firstErr error
	for addr, c := range dc.conns {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(dc.conns, addr)
	}
	return firstErr
}
