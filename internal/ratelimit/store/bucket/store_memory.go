// Package bucket holds sliding window request counters keyed by client.
package bucket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"udyam/internal/ratelimit/models"
)

// DefaultMaxKeys bounds how many clients the in-memory store tracks at once.
const DefaultMaxKeys = 100_000

// InMemoryBucketStore is a sliding window limiter local to this process.
// Use RedisStore when several instances must share counters.
type InMemoryBucketStore struct {
	mu      sync.Mutex
	buckets map[string]*slidingWindow
	maxKeys int
	now     func() time.Time
}

// slidingWindow tracks request timestamps, oldest first.
type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

type Option func(*InMemoryBucketStore)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *InMemoryBucketStore) {
		s.now = now
	}
}

// WithMaxKeys caps the number of tracked keys. When full, expired buckets are
// swept first and, failing that, the bucket idle the longest is evicted.
func WithMaxKeys(n int) Option {
	return func(s *InMemoryBucketStore) {
		if n > 0 {
			s.maxKeys = n
		}
	}
}

// NewInMemoryBucketStore creates a new in-memory bucket store.
func NewInMemoryBucketStore(opts ...Option) *InMemoryBucketStore {
	s := &InMemoryBucketStore{
		buckets: make(map[string]*slidingWindow),
		maxKeys: DefaultMaxKeys,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow checks if a request is allowed and records it when it is.
func (s *InMemoryBucketStore) Allow(_ context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sw := s.getOrCreateBucket(key, window, now)
	sw.cleanup(now)

	if len(sw.timestamps) < limit {
		sw.timestamps = append(sw.timestamps, now)
		return &models.RateLimitResult{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - len(sw.timestamps),
			ResetAt:   sw.timestamps[0].Add(window),
		}, nil
	}

	resetAt := now.Add(window)
	if len(sw.timestamps) > 0 {
		resetAt = sw.timestamps[0].Add(window)
	}
	return &models.RateLimitResult{
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: models.RetryAfterSeconds(resetAt.Sub(now)),
	}, nil
}

// Len reports how many keys are tracked.
func (s *InMemoryBucketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// Sweep drops every bucket whose window has fully elapsed and returns how many were removed.
func (s *InMemoryBucketStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *InMemoryBucketStore) StartSweeper(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				logger.DebugContext(ctx, "rate limit buckets swept", "removed", removed)
			}
		}
	}
}

func (s *InMemoryBucketStore) sweepLocked(now time.Time) int {
	removed := 0
	for key, sw := range s.buckets {
		sw.cleanup(now)
		if len(sw.timestamps) == 0 {
			delete(s.buckets, key)
			removed++
		}
	}
	return removed
}

// cleanup removes expired timestamps from a sliding window.
func (sw *slidingWindow) cleanup(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

func (sw *slidingWindow) lastSeen() time.Time {
	if len(sw.timestamps) == 0 {
		return time.Time{}
	}
	return sw.timestamps[len(sw.timestamps)-1]
}

// getOrCreateBucket must be called while holding s.mu.
func (s *InMemoryBucketStore) getOrCreateBucket(key string, window time.Duration, now time.Time) *slidingWindow {
	if sw := s.buckets[key]; sw != nil {
		return sw
	}
	if len(s.buckets) >= s.maxKeys {
		if s.sweepLocked(now) == 0 {
			s.evictOldestLocked()
		}
	}
	sw := &slidingWindow{window: window}
	s.buckets[key] = sw
	return sw
}

func (s *InMemoryBucketStore) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, sw := range s.buckets {
		seen := sw.lastSeen()
		if !found || seen.Before(oldest) {
			oldestKey, oldest, found = key, seen, true
		}
	}
	if found {
		delete(s.buckets, oldestKey)
	}
}
