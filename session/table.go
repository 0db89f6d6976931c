package session

import (
	"sync"
	"time"
)

// PendingTable is the concurrent mapping from outbound RPC id to
// PendingRequest. Inserts and remove-and-return reads are atomic with
// respect to each other so a response is dispatched at most once.
type PendingTable struct {
	mu      sync.Mutex
	entries map[string]PendingRequest
}

// NewPendingTable returns an empty table.
func NewPendingTable() *PendingTable {
	return &PendingTable{entries: make(map[string]PendingRequest)}
}

// Insert atomically records a new pending request.
func (t *PendingTable) Insert(p PendingRequest) {
	t.mu.Lock()
	t.entries[p.ID] = p
	t.mu.Unlock()
}

// RemoveAndReturn atomically removes and returns the pending request
// for id, if any. Callers use this to correlate an inbound response
// without racing a concurrent duplicate delivery.
func (t *PendingTable) RemoveAndReturn(id string) (PendingRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	return p, ok
}

// Len reports the number of pending entries.
func (t *PendingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// SweepExpired removes and returns every entry older than maxAge,
// intended to be called periodically from a background timer.
func (t *PendingTable) SweepExpired(maxAge time.Duration, now time.Time) []PendingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()

	var expired []PendingRequest
	for id, p := range t.entries {
		if now.Sub(p.CreatedAt) > maxAge {
			expired = append(expired, p)
			delete(t.entries, id)
		}
	}
	return expired
}
