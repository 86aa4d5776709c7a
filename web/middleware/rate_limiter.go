package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	RequestsPerMinute int // Sustained requests per client per minute
	BurstSize         int // Allow burst of N requests
	MaxClients        int // Buckets kept before the least recently seen client is evicted
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
	mu         sync.Mutex
}

// newTokenBucket creates a full bucket that reads time from now
func newTokenBucket(maxTokens, refillRate float64, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: now(),
		now:        now,
	}
}

// Allow checks if a request can proceed and consumes a token if so
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Remaining returns the number of whole tokens remaining
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	return int(tb.tokens)
}

// RetryAfter is how long until the next token is available.
func (tb *TokenBucket) RetryAfter() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 || tb.refillRate <= 0 {
		return 0
	}
	missing := 1.0 - tb.tokens
	return time.Duration(missing / tb.refillRate * float64(time.Second))
}

func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate))
	tb.lastRefill = now
}

// ClientRateLimiter keeps one token bucket per client key. Buckets live in a
// bounded LRU so an address scan cannot grow memory without limit.
type ClientRateLimiter struct {
	config  RateLimiterConfig
	buckets *lru.Cache
	mu      sync.Mutex
	now     func() time.Time
	logger  *zap.Logger
}

// NewClientRateLimiter creates a limiter; BurstSize below 1 falls back to RequestsPerMinute.
func NewClientRateLimiter(config RateLimiterConfig, logger *zap.Logger) (*ClientRateLimiter, error) {
	if config.BurstSize < 1 {
		config.BurstSize = max(config.RequestsPerMinute, 1)
	}
	if config.MaxClients < 1 {
		config.MaxClients = 4096
	}
	cache, err := lru.New(config.MaxClients)
	if err != nil {
		return nil, err
	}
	return &ClientRateLimiter{
		config:  config,
		buckets: cache,
		now:     time.Now,
		logger:  logger,
	}, nil
}

func (l *ClientRateLimiter) bucket(key string) *TokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.buckets.Get(key); ok {
		return v.(*TokenBucket)
	}
	// BurstSize tokens, refill at RequestsPerMinute/60 per second
	refillRate := float64(l.config.RequestsPerMinute) / 60.0
	bucket := newTokenBucket(float64(l.config.BurstSize), refillRate, l.now)
	l.buckets.Add(key, bucket)
	return bucket
}

// Allow consumes a token for key and reports the bucket state after the attempt.
func (l *ClientRateLimiter) Allow(key string) (allowed bool, remaining int, retryAfter time.Duration) {
	bucket := l.bucket(key)
	allowed = bucket.Allow()
	remaining = bucket.Remaining()
	if !allowed {
		retryAfter = bucket.RetryAfter()
	}
	return allowed, remaining, retryAfter
}

// Limit is the burst capacity reported to clients.
func (l *ClientRateLimiter) Limit() int {
	return l.config.BurstSize
}

// Clients returns how many client buckets are tracked.
func (l *ClientRateLimiter) Clients() int {
	return l.buckets.Len()
}

// RateLimitMiddleware creates a Gin middleware limiting requests per client IP
func RateLimitMiddleware(limiter *ClientRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		allowed, remaining, retryAfter := limiter.Allow(clientIP)
		limit := limiter.Limit()

		// Add rate limit headers
		c.Header("X-RateLimit-Limit", formatInt(limit))
		c.Header("X-RateLimit-Remaining", formatInt(remaining))

		if !allowed {
			retrySeconds := max(int(math.Ceil(retryAfter.Seconds())), 1)

			logger, _ := c.Get("logger")
			zapLogger, _ := logger.(*zap.Logger)
			if zapLogger != nil {
				zapLogger.Warn("Rate limit exceeded",
					zap.String("client_ip", clientIP),
					zap.String("path", c.FullPath()),
					zap.Int("limit", limit),
					zap.Int("tracked_clients", limiter.Clients()))
			}

			c.Header("Retry-After", formatInt(retrySeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"limit":       limit,
				"remaining":   remaining,
				"retry_after": retrySeconds,
			})
			return
		}

		c.Next()
	}
}

// formatInt converts int to string for headers
func formatInt(n int) string {
	return strconv.Itoa(n)
}
