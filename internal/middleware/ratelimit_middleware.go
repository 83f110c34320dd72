package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"urlshort-go/internal/apperrors"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware 按客户端 IP 做令牌桶限流，挂在建链接口上。
// 限流器表定期清理，避免无限增长
func RateLimitMiddleware() gin.HandlerFunc {
	rps := viper.GetFloat64("ratelimit.rps")
	if rps <= 0 {
		rps = 5
	}
	burst := viper.GetInt("ratelimit.burst")
	if burst <= 0 {
		burst = 10
	}

	var (
		mu       sync.Mutex
		limiters = make(map[string]*ipLimiter)
	)

	go func() {
		for range time.Tick(5 * time.Minute) {
			mu.Lock()
			for ip, l := range limiters {
				if time.Since(l.lastSeen) > 10*time.Minute {
					delete(limiters, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		l, ok := limiters[ip]
		if !ok {
			l = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			limiters[ip] = l
		}
		l.lastSeen = time.Now()
		mu.Unlock()

		if !l.limiter.Allow() {
			_ = c.Error(apperrors.BusinessError(http.StatusTooManyRequests, "error.rate_limited"))
			c.Abort()
			return
		}

		c.Next()
	}
}
