// Package ratelimit implements a fixed-window request limiter held in
// process memory. Counters are per (identity, endpoint); a restart
// clears them, which is acceptable for a single-instance deployment.
package ratelimit

import (
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

// pruneThreshold caps how many counters a shard accumulates before stale
// ones are swept out.
const pruneThreshold = 1024

type counter struct {
	windowStart time.Time
	count       int
}

type shard struct {
	mu       sync.Mutex
	counters map[string]*counter
}

// Limiter is a sharded fixed-window counter map
type Limiter struct {
	shards [shardCount]*shard
}

// NewLimiter creates an empty limiter
func NewLimiter() *Limiter {
	l := &Limiter{}
	for i := range l.shards {
		l.shards[i] = &shard{counters: make(map[string]*counter)}
	}
	return l
}

func (l *Limiter) shardFor(key string) *shard {
	f := fnv.New32a()
	f.Write([]byte(key))
	return l.shards[f.Sum32()%shardCount]
}

// Allow decides whether one more request fits in the current window.
// The first request of a window sets the counter to 1; a saturated
// counter denies without incrementing, so the window is not extended by
// rejected traffic.
func (l *Limiter) Allow(identity, endpoint string, max int, window time.Duration) bool {
	key := identity + "|" + endpoint
	s := l.shardFor(key)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctr, ok := s.counters[key]
	if !ok || now.Sub(ctr.windowStart) >= window {
		if len(s.counters) >= pruneThreshold {
			for k, c := range s.counters {
				if now.Sub(c.windowStart) >= window {
					delete(s.counters, k)
				}
			}
		}
		s.counters[key] = &counter{windowStart: now, count: 1}
		return true
	}

	if ctr.count >= max {
		return false
	}
	ctr.count++
	return true
}
