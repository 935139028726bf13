package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCall_NilCallback(t *testing.T) {
	// Should not panic when callback is nil
	assert.NotPanics(t, func() {
		Call(nil, 5, 10, "test message")
	})
}

func TestCall_InvokesCallback(t *testing.T) {
	var capturedCurrent, capturedTotal int
	var capturedMessage string

	cb := func(current, total int, message string) {
		capturedCurrent = current
		capturedTotal = total
		capturedMessage = message
	}

	Call(cb, 5, 10, "optimizing")

	assert.Equal(t, 5, capturedCurrent)
	assert.Equal(t, 10, capturedTotal)
	assert.Equal(t, "optimizing", capturedMessage)
}

func TestTracker_RecordsLatest(t *testing.T) {
	tracker := NewTracker()
	cb := tracker.Callback()

	cb(1, 4, "fetching")
	cb(3, 4, "fetching")

	snap := tracker.Snapshot()
	assert.Equal(t, Snapshot{Phase: "fetching", Current: 3, Total: 4}, snap)
	assert.InDelta(t, 75.0, snap.Percent(), 1e-9)
	assert.Equal(t, 0.0, Snapshot{}.Percent())
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tracker := NewTracker()
	cb := tracker.Callback()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cb(j, 100, "optimizing")
				_ = tracker.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, "optimizing", tracker.Snapshot().Phase)
}
