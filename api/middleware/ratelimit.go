package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/bookingwatch/config"
	"github.com/use-agent/bookingwatch/models"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet hands out one token bucket per identity.
type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
}

func (s *limiterSet) get(identity string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.limiters[identity]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[identity] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (s *limiterSet) evictIdle(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(s.limiters, id)
		}
	}
}

// RateLimit returns per-identity (API key or client IP) token-bucket rate
// limiting. A run drives a real browser, so the default budget is a few
// requests per minute.
//
// Identities unused for an hour are dropped every 5 minutes.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	burst := max(cfg.Burst, 1)

	set := &limiterSet{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(cfg.RequestsPerSecond),
		burst:    burst,
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			set.evictIdle(time.Now().Add(-1 * time.Hour))
		}
	}()

	retryAfter := strconv.Itoa(int(math.Ceil(1 / cfg.RequestsPerSecond)))

	return func(c *gin.Context) {
		identity := c.GetString(APIKeyContextKey)
		if identity == "" {
			identity = c.ClientIP()
		}

		if !set.get(identity).Allow() {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}

		c.Next()
	}
}
