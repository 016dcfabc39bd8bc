// Package middleware 存放 Gin 框架的中间件。
package middleware

import (
	"time"

	"cfs-assistant-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// RequestLogger 记录每个请求的状态码、耗时和路径。
// 请求体里有密码和 token，查询串里也可能有 token，因此两者都不记录。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"responseSize", c.Writer.Size(),
		)
	}
}
