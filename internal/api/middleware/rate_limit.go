package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salon-staff/pkg/redis"
	"salon-staff/pkg/response"
)

// RateLimit 基于 Redis 滑动窗口的写接口限流中间件
// 只统计非 GET/HEAD/OPTIONS 请求；已认证时按 商户+用户 计数，否则按客户端 IP。
// rdb 为 nil 或 Redis 出错时降级放行
func RateLimit(rdb *redis.Client, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 || isReadOnly(c.Request.Method) {
			c.Next()
			return
		}

		subject := "ip:" + c.ClientIP()
		if userID := c.GetString("user_id"); userID != "" {
			subject = "user:" + c.GetString("business_id") + ":" + userID
		}
		key := fmt.Sprintf("staff:rate_limit:%s:%s", subject, c.FullPath())

		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("限流检查失败，降级放行", zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}

func isReadOnly(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}
