package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	MessagesPerMinute int           // Sustained messages per client per minute
	BurstSize         int           // Allow burst of N requests
	CleanupInterval   time.Duration // How often to drop idle clients
	IdleTimeout       time.Duration // A client unseen for this long is forgotten
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request can proceed and consumes a token if so
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()

	// Refill tokens based on elapsed time
	tb.tokens = min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate))
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Remaining returns the number of tokens remaining
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	elapsed := time.Since(tb.lastRefill).Seconds()
	return int(min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate)))
}

func (tb *TokenBucket) idleSince() time.Time {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lastRefill
}

// ClientRateLimiter keeps one message bucket per client IP.
type ClientRateLimiter struct {
	config      RateLimiterConfig
	buckets     map[string]*TokenBucket
	mu          sync.Mutex
	logger      *zap.Logger
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewClientRateLimiter creates a limiter and starts its cleanup routine.
func NewClientRateLimiter(config RateLimiterConfig, logger *zap.Logger) *ClientRateLimiter {
	if config.MessagesPerMinute <= 0 {
		config.MessagesPerMinute = 20
	}
	if config.BurstSize <= 0 {
		config.BurstSize = 5
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := &ClientRateLimiter{
		config:      config,
		buckets:     make(map[string]*TokenBucket),
		logger:      logger,
		stopCleanup: make(chan struct{}),
	}

	go limiter.cleanupRoutine()

	return limiter
}

func (l *ClientRateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now())
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanup forgets clients that have been idle past the timeout.
func (l *ClientRateLimiter) cleanup(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, bucket := range l.buckets {
		if now.Sub(bucket.idleSince()) > l.config.IdleTimeout {
			delete(l.buckets, key)
			removed++
		}
	}
	if removed > 0 {
		l.logger.Debug("Cleaned up rate limiter clients",
			zap.Int("removed", removed),
			zap.Int("remaining", len(l.buckets)))
	}
	return removed
}

// Stop stops the cleanup routine
func (l *ClientRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

// Allow consumes a token for the client and reports the remaining budget.
func (l *ClientRateLimiter) Allow(client string) (allowed bool, remaining int) {
	l.mu.Lock()
	bucket, exists := l.buckets[client]
	if !exists {
		// BurstSize tokens, refilled at MessagesPerMinute/60 per second
		refillRate := float64(l.config.MessagesPerMinute) / 60.0
		bucket = NewTokenBucket(float64(l.config.BurstSize), refillRate)
		l.buckets[client] = bucket
	}
	l.mu.Unlock()

	allowed = bucket.Allow()
	return allowed, bucket.Remaining()
}

// RateLimitMiddleware rejects clients that exceed their message budget.
func RateLimitMiddleware(limiter *ClientRateLimiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.ClientIP()
		allowed, remaining := limiter.Allow(client)
		limit := limiter.config.BurstSize

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			retryAfter := max(60/limiter.config.MessagesPerMinute, 1)
			if logger != nil {
				logger.Warn("Rate limit exceeded",
					zap.String("client_ip", client),
					zap.Int("limit", limit))
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"limit":       limit,
				"remaining":   remaining,
				"retry_after": retryAfter,
				"success":     false,
			})
			return
		}

		c.Next()
	}
}
