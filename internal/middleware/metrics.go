package middleware

import (
	"strconv"
	"time"

	"ginvault/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics 记录请求数和耗时，路径使用路由模板避免标签爆炸
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
