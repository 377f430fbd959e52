package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pinscout/config"
	"github.com/use-agent/pinscout/models"
	"golang.org/x/time/rate"
)

// evictEvery is how often idle identities are dropped.
const evictEvery = 5 * time.Minute

// buckets holds one token bucket per caller identity.
type buckets struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]*bucket
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newBuckets(cfg config.RateLimitConfig) *buckets {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &buckets{
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
		ttl:     ttl,
		entries: make(map[string]*bucket),
	}
}

func (b *buckets) allow(identity string, now time.Time) bool {
	b.mu.Lock()
	e, ok := b.entries[identity]
	if !ok {
		e = &bucket{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.entries[identity] = e
	}
	e.lastSeen = now
	b.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

// evict drops identities idle since before now-ttl and reports how many.
func (b *buckets) evict(now time.Time) int {
	cutoff := now.Add(-b.ttl)
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for id, e := range b.entries {
		if e.lastSeen.Before(cutoff) {
			delete(b.entries, id)
			n++
		}
	}
	return n
}

func (b *buckets) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// janitor evicts idle identities until ctx is done.
func (b *buckets) janitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			b.evict(now)
		}
	}
}

// RateLimit returns per-identity token-bucket middleware. The identity is
// the API key set by Auth, else the client IP. The eviction goroutine runs
// until ctx is done.
func RateLimit(ctx context.Context, cfg config.RateLimitConfig) gin.HandlerFunc {
	b := newBuckets(cfg)
	go b.janitor(ctx, evictEvery)

	return func(c *gin.Context) {
		identity := c.GetString(identityKey)
		if identity == "" {
			identity = c.ClientIP()
		}
		if !b.allow(identity, time.Now()) {
			abort(c, http.StatusTooManyRequests, models.ErrCodeRateLimited,
				"rate limit exceeded, one browser launch per request; please slow down")
			return
		}
		c.Next()
	}
}
