// etcd-backed Registry implementation.
//
// etcd is a distributed key-value store with strong consistency (Raft). It
// serves as a shared directory of mini-rpc server instances:
//
//	Key:   /mini-rpc/{ServiceName}/{Addr}
//	Value: JSON-encoded ServiceInstance
//
// Registration uses TTL-based leases: if a server crashes, its lease
// expires and the entry disappears on its own, instead of leaving a ghost
// instance that clients keep trying to reach.
package discovery

import (
	"context"
	"encoding/json"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdRegistry implements Registry on top of an etcd v3 client.
type EtcdRegistry struct {
	client *clientv3.Client
}

// NewEtcdRegistry connects to the given etcd endpoints.
func NewEtcdRegistry(endpoints []string) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{Endpoints: endpoints})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c}, nil
}

// Register stores instance under a TTL lease and starts a background
// keep-alive that renews it. leaseID is kept local rather than stored on
// the struct, so sharing one EtcdRegistry across goroutines registering
// different services never races on a shared field.
func (r *EtcdRegistry) Register(serviceName string, instance ServiceInstance, ttlSeconds int64) error {
	ctx := context.Background()

	lease, err := r.client.Grant(ctx, ttlSeconds)
	if err != nil {
		return err
	}

	val, err := json.Marshal(instance)
	if err != nil {
		return err
	}

	if _, err := r.client.Put(ctx, key(serviceName, instance.Addr), string(val), clientv3.WithLease(lease.ID)); err != nil {
		return err
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}

	go func() {
		for range ch {
		}
	}()
	return nil
}

// Deregister removes an instance's key immediately, rather than waiting for
// its lease to expire.
func (r *EtcdRegistry) Deregister(serviceName string, addr string) error {
	_, err := r.client.Delete(context.Background(), key(serviceName, addr))
	return err
}

// Discover lists every instance currently registered under serviceName.
func (r *EtcdRegistry) Discover(serviceName string) ([]ServiceInstance, error) {
	resp, err := r.client.Get(context.Background(), prefix(serviceName), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	instances := make([]ServiceInstance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var instance ServiceInstance
		if err := json.Unmarshal(kv.Value, &instance); err != nil {
			continue // skip malformed entries rather than failing the whole list
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// Watch emits the full, re-fetched instance list whenever anything under
// serviceName's prefix changes. Re-fetching on every event is simpler than
// reconciling individual watch events and cheap enough for the instance
// counts this module expects.
func (r *EtcdRegistry) Watch(serviceName string) <-chan []ServiceInstance {
	ch := make(chan []ServiceInstance, 1)

	go func() {
		watchChan := r.client.Watch(context.Background(), prefix(serviceName), clientv3.WithPrefix())
		for range watchChan {
			instances, err := r.Discover(serviceName)
			if err != nil {
				continue
			}
			ch <- instances
		}
	}()

	return ch
}

func prefix(serviceName string) string {
	return "/mini-rpc/" + serviceName + "/"
}

func key(serviceName, addr string) string {
	return prefix(serviceName) + addr
}
