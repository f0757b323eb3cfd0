package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bugtracker/internal/pkg/logger"
)

// LoggerMiddleware 日志中间件
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		// query里可能带API_KEY, 不记录
		path := c.Request.URL.Path

		c.Next()

		cost := time.Since(start)

		fields := []zap.Field{
			zap.String("ip", c.ClientIP()),
			zap.String("user-agent", c.Request.UserAgent()),
			zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()),
		}
		if actor := GetActor(c); actor != nil {
			fields = append(fields, zap.String("actor", actor.Username))
		}

		logger.Info(fmt.Sprintf("%s %s %s %v %.2fs", c.Request.Proto, c.Request.Method, path, c.Writer.Status(), cost.Seconds()),
			fields...)
	}
}
