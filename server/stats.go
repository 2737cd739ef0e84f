package server

import "sync"

// StatsSnapshot is a point-in-time copy of Stats, safe to pass around and
// read without holding any lock.
type StatsSnapshot struct {
	TotalRequests   uint64
	SuccessRequests uint64
	ErrorRequests   uint64
	AvgResponseTime float64 // milliseconds
}

// Stats holds the server-side running counters §4.3 step 6 describes.
type Stats struct {
	mu       sync.Mutex
	snapshot StatsSnapshot
}

// record folds one more sample into the running totals using the
// incremental mean update avg ← avg + (sample − avg) / total.
func (s *Stats) record(success bool, sampleMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.TotalRequests++
	if success {
		s.snapshot.SuccessRequests++
	} else {
		s.snapshot.ErrorRequests++
	}
	s.snapshot.AvgResponseTime += (sampleMs - s.snapshot.AvgResponseTime) / float64(s.snapshot.TotalRequests)
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}
