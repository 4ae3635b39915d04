package restservice

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const defaultBurst = 5

// rateLimiter keeps a token bucket per client ip.
type rateLimiter struct {
	lock     *sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newRateLimiter(requestsPerSecond float64) *rateLimiter {
	burst := int(requestsPerSecond)
	if burst < defaultBurst {
		burst = defaultBurst
	}
	return &rateLimiter{
		lock:     &sync.RWMutex{},
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (l *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.limit <= 0 {
			c.Next()
			return
		}

		if !l.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(
				http.StatusTooManyRequests, errorResponse{"too many requests"},
			)
			return
		}
		c.Next()
	}
}

func (l *rateLimiter) get(client string) *rate.Limiter {
	l.lock.RLock()
	limiter, ok := l.limiters[client]
	l.lock.RUnlock()
	if ok {
		return limiter
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	if limiter, ok := l.limiters[client]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(l.limit, l.burst)
	l.limiters[client] = limiter
	return limiter
}
