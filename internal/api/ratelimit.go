// Rate limiter for action submissions.
// One token bucket per (game, player), created on first use.
package api

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/talgya/hexempire/internal/gameerr"
)

// RateLimiter hands out a token bucket per key. A limit of 0 disables it.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	limit    rate.Limit
	burst    int
	idle     time.Duration // buckets unused this long are dropped
	stopOnce sync.Once
	stop     chan struct{}
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perSecond actions per key with the given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		idle:    10 * time.Minute,
		stop:    make(chan struct{}),
	}
	rl.SetLimit(perSecond, burst)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stop:
				return
			}
		}
	}()
	return rl
}

// SetLimit changes the limit for buckets created from now on.
func (rl *RateLimiter) SetLimit(perSecond float64, burst int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if perSecond <= 0 {
		rl.limit = rate.Inf
	} else {
		rl.limit = rate.Limit(perSecond)
	}
	rl.burst = max(burst, 1)
}

// Allow reports whether key may act now. When it may not, retryAfter is the
// wait in whole seconds.
func (rl *RateLimiter) Allow(key string) (ok bool, retryAfter int) {
	rl.mu.Lock()
	b, found := rl.buckets[key]
	now := time.Now()
	if !found {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	rl.mu.Unlock()

	if b.lim.AllowN(now, 1) {
		return true, 0
	}
	r := b.lim.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return false, max(1, int(math.Ceil(delay.Seconds())))
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.idle {
			delete(rl.buckets, key)
		}
	}
}

// Close stops the cleanup goroutine.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Middleware limits per game and player. Returns 429 if exceeded.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("id") + "/" + c.GetHeader(PlayerHeader)
		if ok, wait := rl.Allow(key); !ok {
			c.Header("Retry-After", strconv.Itoa(wait))
			d := gameerr.New(gameerr.CodeRateLimited).Descriptor()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, d)
			return
		}
		c.Next()
	}
}
