// Package ratelimit implements per-client admission control with a sliding
// window log.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Defaults for Config.
const (
	DefaultLimit         = 100
	DefaultWindow        = time.Minute
	DefaultSweepInterval = time.Minute

	shardCount = 64
)

// Config configures a Limiter.
type Config struct {
	// Limit is the number of requests admitted per key within Window.
	Limit int
	// Window is the length of the trailing window.
	Window time.Duration
}

type shard struct {
	mu      sync.Mutex
	buckets map[string][]int64
}

// Limiter admits at most Limit requests per key in any trailing Window. It
// keeps the timestamp of every admitted request, so the count is exact.
// State is split across shards, each guarded by its own mutex, so unrelated
// keys rarely contend.
type Limiter struct {
	limit    int
	windowMs int64
	window   time.Duration
	shards   [shardCount]shard
}

// New creates a Limiter. Zero fields in cfg fall back to the defaults.
func New(cfg Config) *Limiter {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}

	l := &Limiter{
		limit:    cfg.Limit,
		windowMs: cfg.Window.Milliseconds(),
		window:   cfg.Window,
	}
	for i := range l.shards {
		l.shards[i].buckets = make(map[string][]int64)
	}
	return l
}

// Limit returns the number of requests admitted per window.
func (l *Limiter) Limit() int { return l.limit }

// Window returns the window length.
func (l *Limiter) Window() time.Duration { return l.window }

func (l *Limiter) shardFor(key string) *shard {
	return &l.shards[xxhash.Sum64String(key)%shardCount]
}

// Admit reports whether a request from key at nowMillis is allowed, and
// records it if so. Timestamps at or before nowMillis-window are dropped
// first; a rejected request is not recorded.
func (l *Limiter) Admit(key string, nowMillis int64) bool {
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := prune(s.buckets[key], nowMillis-l.windowMs)
	if len(kept) >= l.limit {
		s.buckets[key] = kept
		return false
	}
	s.buckets[key] = append(kept, nowMillis)
	return true
}

// prune drops timestamps <= cutoff in place. Callers may submit timestamps
// slightly out of order, so every entry is checked.
func prune(ts []int64, cutoff int64) []int64 {
	kept := ts[:0]
	for _, t := range ts {
		if t > cutoff {
			kept = append(kept, t)
		}
	}
	return kept
}

// Sweep prunes every bucket against nowMillis and deletes those left empty.
// It returns the number of keys removed.
func (l *Limiter) Sweep(nowMillis int64) int {
	cutoff := nowMillis - l.windowMs
	removed := 0
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		for key, ts := range s.buckets {
			kept := prune(ts, cutoff)
			if len(kept) == 0 {
				delete(s.buckets, key)
				removed++
				continue
			}
			s.buckets[key] = kept
		}
		s.mu.Unlock()
	}
	return removed
}

// Len returns the number of keys currently tracked.
func (l *Limiter) Len() int {
	n := 0
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		n += len(s.buckets)
		s.mu.Unlock()
	}
	return n
}

// RunJanitor sweeps idle keys every interval until ctx is done.
func (l *Limiter) RunJanitor(ctx context.Context, interval time.Duration, now func() time.Time) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if now == nil {
		now = time.Now
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(now().UnixMilli())
		}
	}
}
