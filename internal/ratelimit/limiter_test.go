package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow_BudgetEnforced(t *testing.T) {
	l := NewLimiter()

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("user-1", "/api/x", 5, time.Minute), "request %d should pass", i+1)
	}
	assert.False(t, l.Allow("user-1", "/api/x", 5, time.Minute), "request 6 should be denied")
	assert.False(t, l.Allow("user-1", "/api/x", 5, time.Minute), "denials do not reset anything")
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	l := NewLimiter()

	assert.True(t, l.Allow("user-1", "/api/x", 1, time.Minute))
	assert.False(t, l.Allow("user-1", "/api/x", 1, time.Minute))

	// A different identity and a different endpoint each get their own budget
	assert.True(t, l.Allow("user-2", "/api/x", 1, time.Minute))
	assert.True(t, l.Allow("user-1", "/api/y", 1, time.Minute))
}

func TestAllow_WindowResets(t *testing.T) {
	l := NewLimiter()
	window := 30 * time.Millisecond

	assert.True(t, l.Allow("user-1", "/api/x", 1, window))
	assert.False(t, l.Allow("user-1", "/api/x", 1, window))

	time.Sleep(window + 10*time.Millisecond)

	assert.True(t, l.Allow("user-1", "/api/x", 1, window), "a fresh window starts a new count")
}

func TestAllow_Concurrent(t *testing.T) {
	l := NewLimiter()
	const max = 50
	const workers = 100

	var allowed int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("user-1", "/api/x", max, time.Minute) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, max, allowed, "exactly the budget passes under contention")
}

func TestAllow_PruneKeepsWorking(t *testing.T) {
	l := NewLimiter()

	// Flood with distinct keys to push shards past the prune threshold
	for i := 0; i < pruneThreshold*shardCount; i++ {
		l.Allow(fmt.Sprintf("user-%d", i), "/api/x", 1, time.Nanosecond)
	}

	assert.True(t, l.Allow("fresh-user", "/api/x", 1, time.Minute))
}
