package client

import (
	"sync"
	"time"
)

// callTable is the C5 pending-call table: message id → pendingCall,
// guarded by a mutex since the recv loop, the timeout sweeper, and callers
// issuing new requests all touch it concurrently.
type callTable struct {
	mu      sync.Mutex
	entries map[uint32]*pendingCall
}

func newCallTable() *callTable {
	return &callTable{entries: make(map[uint32]*pendingCall)}
}

func (t *callTable) add(p *pendingCall) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[p.messageID] = p
}

// takeAndDelete removes and returns the call for id, if still pending.
// Used both by the recv loop (deliver the real response once) and the
// sweeper (deliver a timeout at most once) — deleting first means only one
// of them ever wins the race to respond.
func (t *callTable) takeAndDelete(id uint32) (*pendingCall, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	return p, ok
}

// drainAll removes and returns every pending call, for disconnect handling.
func (t *callTable) drainAll() []*pendingCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	calls := make([]*pendingCall, 0, len(t.entries))
	for id, p := range t.entries {
		calls = append(calls, p)
		delete(t.entries, id)
	}
	return calls
}

// expired removes and returns every call whose deadline has passed as of
// now. A zero deadline means "no timeout" and is never swept.
func (t *callTable) expired(now time.Time) []*pendingCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	var calls []*pendingCall
	for id, p := range t.entries {
		if p.deadline.IsZero() || p.deadline.After(now) {
			continue
		}
		calls = append(calls, p)
		delete(t.entries, id)
	}
	return calls
}
