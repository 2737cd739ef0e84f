package client

import (
	"sync"
	"time"
)

// StatsSnapshot is a point-in-time copy of Stats, safe to pass around and
// read without holding any lock.
type StatsSnapshot struct {
	TotalCalls      uint64
	SuccessCalls    uint64
	ErrorCalls      uint64
	TimeoutCalls    uint64
	AvgResponseTime float64 // milliseconds
}

// Stats holds the per-client running counters §4.4's Counter update step
// describes, mirroring server/stats.go on the caller's side of the wire.
type Stats struct {
	mu       sync.Mutex
	snapshot StatsSnapshot
}

// record folds one more sample into the running totals using the
// incremental mean update avg ← avg + (sample − avg) / total. timedOut
// takes precedence over success when a call's deadline fires before its
// response is ever delivered.
func (s *Stats) record(success, timedOut bool, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sampleMs := float64(elapsed.Microseconds()) / 1000.0
	s.snapshot.TotalCalls++
	switch {
	case timedOut:
		s.snapshot.TimeoutCalls++
	case success:
		s.snapshot.SuccessCalls++
	default:
		s.snapshot.ErrorCalls++
	}
	s.snapshot.AvgResponseTime += (sampleMs - s.snapshot.AvgResponseTime) / float64(s.snapshot.TotalCalls)
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}
