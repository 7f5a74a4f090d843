package web

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// senderLimiter keeps one token bucket per sender phone so a single noisy
// chat cannot monopolize the model and the database. Stale buckets are
// dropped by a background cleanup.
type senderLimiter struct {
	mu      sync.Mutex
	buckets map[string]*senderBucket
	rate    rate.Limit
	burst   int
}

type senderBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newSenderLimiter(perMinute int, burst int) *senderLimiter {
	return &senderLimiter{
		buckets: make(map[string]*senderBucket),
		rate:    rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
	}
}

func (l *senderLimiter) allow(phone string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[phone]
	if !ok {
		b = &senderBucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[phone] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

// startCleanup drops buckets idle for more than ten minutes.
func (l *senderLimiter) startCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.mu.Lock()
				for phone, b := range l.buckets {
					if time.Since(b.lastSeen) > 10*time.Minute {
						delete(l.buckets, phone)
					}
				}
				l.mu.Unlock()
			}
		}
	}()
}
