// Package loadbalance selects which discovered server instance a
// discovery-backed client call should target.
//
// Three strategies are provided:
//   - RoundRobin: stateless services, equal-capacity instances
//   - WeightedRandom: heterogeneous instances (different capacity)
//   - ConsistentHash: stateful services that need cache/session affinity
package loadbalance

import "github.com/Jashshor/mini-rpc/discovery"

// Balancer picks one instance from the set discovery.Discover returned.
// Pick is called on every call and must be goroutine-safe.
type Balancer interface {
	Pick(instances []discovery.ServiceInstance) (*discovery.ServiceInstance, error)
	Name() string
}
