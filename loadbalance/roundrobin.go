package loadbalance

import (
	"fmt"
	"sync/atomic"

	"github.com/Jashshor/mini-rpc/discovery"
)

// RoundRobinBalancer cycles through instances in order using an atomic
// counter, so Pick needs no lock.
type RoundRobinBalancer struct {
	counter int64
}

func (b *RoundRobinBalancer) Pick(instances []discovery.ServiceInstance) (*discovery.ServiceInstance, error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("loadbalance: no instances available")
	}
	index := atomic.AddInt64(&b.counter, 1) % int64(len(instances))
	return &instances[index], nil
}

func (b *RoundRobinBalancer) Name() string {
	return "RoundRobin"
}
