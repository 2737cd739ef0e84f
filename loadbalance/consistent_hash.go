package loadbalance

import (
	"fmt"
	"hash/crc32"
	"sort"

	"github.com/Jashshor/mini-rpc/discovery"
)

// ConsistentHashBalancer maps a key to an instance via a hash ring, so the
// same key always resolves to the same instance until the ring changes —
// useful for stateful services or client-local caches.
//
// Each real instance gets 100 virtual nodes on the ring; without virtual
// nodes, a handful of instances can cluster together and skew load.
type ConsistentHashBalancer struct {
	replicas int
	ring     []uint32
	nodes    map[uint32]*discovery.ServiceInstance
}

// NewConsistentHashBalancer creates an empty ring with 100 virtual nodes
// per added instance.
func NewConsistentHashBalancer() *ConsistentHashBalancer {
	return &ConsistentHashBalancer{
		replicas: 100,
		nodes:    make(map[uint32]*discovery.ServiceInstance),
	}
}

// Add places instance onto the ring.
func (b *ConsistentHashBalancer) Add(instance *discovery.ServiceInstance) {
	for i := 0; i < b.replicas; i++ {
		hash := crc32.ChecksumIEEE([]byte(fmt.Sprintf("%s#%d", instance.Addr, i)))
		b.ring = append(b.ring, hash)
		b.nodes[hash] = instance
	}
	sort.Slice(b.ring, func(i, j int) bool { return b.ring[i] < b.ring[j] })
}

// Pick returns the instance responsible for key: hash the key, then take
// the first node at or after it on the ring, wrapping around to the first
// node if the hash exceeds all of them.
//
// Pick takes a string key rather than a []ServiceInstance because
// consistent hashing is key-based; it does not implement the Balancer
// interface directly.
func (b *ConsistentHashBalancer) Pick(key string) (*discovery.ServiceInstance, error) {
	if len(b.ring) == 0 {
		return nil, fmt.Errorf("loadbalance: no instances on the ring")
	}

	hash := crc32.ChecksumIEEE([]byte(key))
	idx := sort.Search(len(b.ring), func(i int) bool { return b.ring[i] >= hash })
	if idx == len(b.ring) {
		idx = 0
	}
	return b.nodes[b.ring[idx]], nil
}

func (b *ConsistentHashBalancer) Name() string {
	return "ConsistentHash"
}
