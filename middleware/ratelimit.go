package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// LoginRateLimit 登录接口限流中间件
// 每 IP 一个令牌桶：容量 maxAttempts，每 window/maxAttempts 补充一个令牌，超过则返回 429
func LoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	every := window / time.Duration(maxAttempts)
	// 闲置一个窗口以上的 IP 自动清理
	limiters := cache.New(2*window, window)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		var limiter *rate.Limiter
		if v, ok := limiters.Get(ip); ok {
			limiter = v.(*rate.Limiter)
		} else {
			limiter = rate.NewLimiter(rate.Every(every), maxAttempts)
			if err := limiters.Add(ip, limiter, cache.DefaultExpiration); err != nil {
				// 并发下已被其他请求创建
				if v, ok := limiters.Get(ip); ok {
					limiter = v.(*rate.Limiter)
				}
			}
		}
		// 续期
		limiters.SetDefault(ip, limiter)

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "登录尝试过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
