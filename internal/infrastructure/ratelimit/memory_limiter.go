package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps token buckets in process. It is used when Redis is not configured.
type MemoryLimiter struct {
	policies map[string]Policy
	buckets  map[string]*bucket
	mutex    sync.Mutex
	now      func() time.Time
}

func NewMemoryLimiter(policies map[string]Policy) *MemoryLimiter {
	if policies == nil {
		policies = DefaultPolicies
	}
	return &MemoryLimiter{
		policies: policies,
		buckets:  make(map[string]*bucket),
		now:      time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, userID, action string) (bool, time.Duration, error) {
	now := l.now()
	key := bucketKey("rl", userID, action)

	l.mutex.Lock()
	b, ok := l.buckets[key]
	if !ok {
		p := policyFor(l.policies, action)
		every := p.RefillInterval / time.Duration(p.RefillTokens)
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), p.Capacity)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mutex.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

// Cleanup drops buckets idle for longer than maxIdle.
func (l *MemoryLimiter) Cleanup(maxIdle time.Duration) {
	now := l.now()

	l.mutex.Lock()
	defer l.mutex.Unlock()
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > maxIdle {
			delete(l.buckets, key)
		}
	}
}

// StartCleanupRoutine runs Cleanup every 30 minutes until ctx is done.
func (l *MemoryLimiter) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.Cleanup(time.Hour)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (l *MemoryLimiter) size() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.buckets)
}
