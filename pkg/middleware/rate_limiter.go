package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Aaditya7171/event-platform/pkg/response"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds per-client rate limiting settings
type RateLimitConfig struct {
	// Sustained requests per second per client
	RequestsPerSecond float64
	// Token bucket capacity
	BurstSize int
	// Cleanup interval for idle entries
	CleanupInterval time.Duration
	// Entry TTL after last use
	EntryTTL time.Duration
}

// DefaultRateLimitConfig returns defaults suited to a public form endpoint
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 2,
		BurstSize:         5,
		CleanupInterval:   time.Minute,
		EntryTTL:          5 * time.Minute,
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// LocalRateLimiter keeps one token bucket per client key in memory
type LocalRateLimiter struct {
	config  RateLimitConfig
	entries sync.Map
	stop    chan struct{}
	once    sync.Once

	totalAllowed  atomic.Uint64
	totalRejected atomic.Uint64
}

// NewLocalRateLimiter creates a limiter and starts its cleanup loop
func NewLocalRateLimiter(config RateLimitConfig) *LocalRateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}
	if config.EntryTTL <= 0 {
		config.EntryTTL = 5 * time.Minute
	}
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}

	rl := &LocalRateLimiter{
		config: config,
		stop:   make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow reports whether a request for key may proceed now
func (rl *LocalRateLimiter) Allow(key string) bool {
	if rl.config.RequestsPerSecond <= 0 {
		return true
	}

	v, ok := rl.entries.Load(key)
	if !ok {
		v, _ = rl.entries.LoadOrStore(key, &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize),
		})
	}
	e := v.(*limiterEntry)
	e.lastSeen.Store(time.Now().UnixNano())

	if e.limiter.Allow() {
		rl.totalAllowed.Add(1)
		return true
	}
	rl.totalRejected.Add(1)
	return false
}

// GetStats returns allowed and rejected totals
func (rl *LocalRateLimiter) GetStats() (allowed, rejected uint64) {
	return rl.totalAllowed.Load(), rl.totalRejected.Load()
}

func (rl *LocalRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-rl.config.EntryTTL).UnixNano()
			rl.entries.Range(func(key, value interface{}) bool {
				if value.(*limiterEntry).lastSeen.Load() < cutoff {
					rl.entries.Delete(key)
				}
				return true
			})
		case <-rl.stop:
			return
		}
	}
}

// Stop stops the cleanup goroutine
func (rl *LocalRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// RateLimit rejects clients that exceed their bucket, keyed by client IP
func RateLimit(rl *LocalRateLimiter) gin.HandlerFunc {
	retryAfter := "1"
	if rl.config.RequestsPerSecond > 0 && rl.config.RequestsPerSecond < 1 {
		retryAfter = strconv.Itoa(int(1/rl.config.RequestsPerSecond) + 1)
	}

	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.TooManyRequests(""))
			return
		}
		c.Next()
	}
}
