package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Payphone-Digital/content-api/internal/constants"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

// RateLimiter is a sliding window limiter keyed by client IP
type RateLimiter struct {
	tokens     map[string][]time.Time
	maxRequest int
	duration   time.Duration
	mu         sync.Mutex
	now        func() time.Time
}

func NewRateLimiter(maxRequest int, duration time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     make(map[string][]time.Time),
		maxRequest: maxRequest,
		duration:   duration,
		now:        time.Now,
	}
}

// trim drops the timestamps of key that left the window. Callers hold mu.
func (rl *RateLimiter) trim(key string, now time.Time) []time.Time {
	tokens := rl.tokens[key]
	i := 0
	for i < len(tokens) && now.Sub(tokens[i]) > rl.duration {
		i++
	}
	tokens = tokens[i:]
	if len(tokens) == 0 {
		delete(rl.tokens, key)
		return nil
	}
	rl.tokens[key] = tokens
	return tokens
}

// Allow records a request for key and reports whether it fits the window,
// along with the requests still available
func (rl *RateLimiter) Allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	tokens := rl.trim(key, now)
	if len(tokens) >= rl.maxRequest {
		return false, 0
	}
	rl.tokens[key] = append(tokens, now)
	return true, rl.maxRequest - len(tokens) - 1
}

// Prune forgets clients whose window is empty and returns how many were dropped
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	pruned := 0
	for key := range rl.tokens {
		if rl.trim(key, now) == nil {
			pruned++
		}
	}
	return pruned
}

// Handler enforces the limit. A non-positive maximum disables it.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.maxRequest <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		allowed, remaining := rl.Allow(ip)

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.maxRequest))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(rl.now().Add(rl.duration).Unix(), 10))

		if !allowed {
			logger.GetLogger().Warn("Rate limit exceeded",
				zap.String("client_ip", ip),
				zap.String("user_agent", c.GetHeader(constants.HeaderUserAgent)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("max_requests", rl.maxRequest),
				zap.Duration("duration", rl.duration),
			)
			c.Header("Retry-After", strconv.Itoa(int(rl.duration.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, constants.BuildErrorResponse(constants.MsgTooManyRequests, gin.H{
				"retry_after": rl.duration.Seconds(),
			}))
			return
		}

		c.Next()
	}
}
