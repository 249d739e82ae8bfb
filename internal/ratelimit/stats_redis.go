package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultStatsTTL   = 48 * time.Hour
	statsFlushTimeout = 2 * time.Second
)

// RedisStats aggregates admission decisions in memory and periodically adds
// them to an hourly Redis hash (<prefix>:<YYYYMMDDHH> with fields allowed
// and rejected), so several instances can report a combined total. It never
// influences admission.
type RedisStats struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
	logger *slog.Logger

	allowed  atomic.Int64
	rejected atomic.Int64
}

// NewRedisStats creates a RedisStats writing under prefix.
func NewRedisStats(rdb redis.Cmdable, prefix string, logger *slog.Logger) *RedisStats {
	return &RedisStats{
		rdb:    rdb,
		prefix: prefix,
		ttl:    defaultStatsTTL,
		logger: logger,
	}
}

// Observe counts one decision. It is safe on a nil receiver.
func (s *RedisStats) Observe(allowed bool) {
	if s == nil {
		return
	}
	if allowed {
		s.allowed.Add(1)
		return
	}
	s.rejected.Add(1)
}

// Key returns the hash key for the hour containing t.
func (s *RedisStats) Key(t time.Time) string {
	return s.prefix + ":" + t.UTC().Format("2006010215")
}

// Flush writes the pending counts into the bucket for now. On failure the
// counts are restored so the next flush retries them.
func (s *RedisStats) Flush(ctx context.Context, now time.Time) error {
	allowed := s.allowed.Swap(0)
	rejected := s.rejected.Swap(0)
	if allowed == 0 && rejected == 0 {
		return nil
	}

	key := s.Key(now)
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		if allowed > 0 {
			p.HIncrBy(ctx, key, "allowed", allowed)
		}
		if rejected > 0 {
			p.HIncrBy(ctx, key, "rejected", rejected)
		}
		p.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		s.allowed.Add(allowed)
		s.rejected.Add(rejected)
		return fmt.Errorf("flush rate limit stats: %w", err)
	}
	return nil
}

// Run flushes every interval until ctx is done, then flushes once more.
func (s *RedisStats) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), statsFlushTimeout)
			if err := s.Flush(flushCtx, time.Now()); err != nil {
				s.logger.Warn("final rate limit stats flush failed", slog.String("error", err.Error()))
			}
			cancel()
			return
		case <-ticker.C:
			if err := s.Flush(ctx, time.Now()); err != nil {
				s.logger.WarnContext(ctx, "rate limit stats flush failed", slog.String("error", err.Error()))
			}
		}
	}
}
