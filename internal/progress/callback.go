// Package progress provides progress reporting for long-running analysis runs.
package progress

import "sync"

// Callback reports progress during long operations.
// Parameters:
//   - current: Number of steps completed
//   - total: Total number of steps
//   - message: Human-readable description of the current phase
//
// A nil Callback is valid and is ignored by Call.
type Callback func(current, total int, message string)

// Call safely invokes the callback if non-nil.
func Call(cb Callback, current, total int, message string) {
	if cb != nil {
		cb(current, total, message)
	}
}

// Snapshot is a point-in-time view of a tracker.
type Snapshot struct {
	Phase   string `json:"phase"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// Percent returns completion of the current phase in [0, 100].
func (s Snapshot) Percent() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Current) / float64(s.Total) * 100
}

// Tracker records the latest progress update and is safe for concurrent use:
// the run goroutine writes while HTTP handlers read.
type Tracker struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Callback returns a Callback that records into the tracker.
func (t *Tracker) Callback() Callback {
	return func(current, total int, message string) {
		t.mu.Lock()
		t.snapshot = Snapshot{Phase: message, Current: current, Total: total}
		t.mu.Unlock()
	}
}

// Snapshot returns the latest update.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot
}
