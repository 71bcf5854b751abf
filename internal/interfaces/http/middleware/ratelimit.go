package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/autopecas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per client key. Idle buckets
// expire after a few windows.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *gocache.Cache
}

// NewRateLimiter allows requests per window per client, with bursts up to requests
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   requests,
		buckets: gocache.New(3*window, window),
	}
}

// Allow consumes a token for key and reports the wait before the next one
// when the bucket is empty.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	lim := rl.bucket(key)
	r := lim.Reserve()
	if !r.OK() {
		return false, 0
	}
	if d := r.Delay(); d > 0 {
		r.Cancel()
		return false, d
	}
	return true, 0
}

func (rl *RateLimiter) bucket(key string) *rate.Limiter {
	if v, ok := rl.buckets.Get(key); ok {
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(rl.limit, rl.burst)
	// Add fails when a concurrent request created the bucket first
	if err := rl.buckets.Add(key, lim, gocache.DefaultExpiration); err != nil {
		if v, ok := rl.buckets.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// RateLimit limits requests per client IP
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := rl.Allow(c.ClientIP())
		if !ok {
			seconds := int(math.Ceil(wait.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Muitas requisições. Tente novamente em instantes.",
				GetRequestID(c),
			))
			return
		}
		c.Next()
	}
}
