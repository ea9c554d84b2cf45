package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"golang.org/x/time/rate"
)

// KeyedLimiter keeps one token bucket per client key. A bucket refills at
// Requests per Window and holds at most Requests tokens.
type KeyedLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter creates a limiter allowing requests per window for each key
func NewKeyedLimiter(requests int, window time.Duration) *KeyedLimiter {
	if requests < 1 {
		requests = 1
	}
	return &KeyedLimiter{
		limit:     rate.Every(window / time.Duration(requests)),
		burst:     requests,
		idle:      window,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// get returns the bucket for key, sweeping idle buckets at most once per window.
// A bucket idle for a full window has refilled, so dropping it loses nothing.
func (l *KeyedLimiter) get(key string) (*rate.Limiter, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.idle {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > l.idle {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter, now
}

// Len reports how many keys are being tracked
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RateLimitOptions tunes RateLimit
type RateLimitOptions struct {
	// KeyFunc identifies the client; defaults to the client IP
	KeyFunc func(c *gin.Context) string
	// FailuresOnly charges a token only for responses with status >= 400,
	// so successful logins do not count against the client
	FailuresOnly bool
}

// RateLimit rejects clients that exhausted their bucket with 429 and a Retry-After header
func RateLimit(l *KeyedLimiter, opts RateLimitOptions) gin.HandlerFunc {
	keyFunc := opts.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}

	return func(c *gin.Context) {
		limiter, now := l.get(keyFunc(c))
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.burst))

		if opts.FailuresOnly {
			tokens := limiter.TokensAt(now)
			if tokens < 1 {
				wait := time.Duration((1 - tokens) / float64(l.limit) * float64(time.Second))
				rejectRateLimited(c, wait)
				return
			}
			c.Header("X-RateLimit-Remaining", strconv.Itoa(int(tokens)))
			c.Next()
			if c.Writer.Status() >= http.StatusBadRequest {
				limiter.AllowN(l.now(), 1)
			}
			return
		}

		r := limiter.ReserveN(now, 1)
		if delay := r.DelayFrom(now); delay > 0 {
			r.CancelAt(now)
			rejectRateLimited(c, delay)
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(limiter.TokensAt(now))))
		c.Next()
	}
}

func rejectRateLimited(c *gin.Context, wait time.Duration) {
	c.Header("X-RateLimit-Remaining", "0")
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	abortWithError(c, dto.ErrCodeRateLimited, "Too many requests, please try again later")
}
