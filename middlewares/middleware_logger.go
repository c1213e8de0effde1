package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-order/utils"
)

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		entry := utils.InfoLogger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"status":  status,
			"latency": latency.String(),
			"ip":      c.ClientIP(),
		})
		if scope, ok := ScopeFrom(c); ok {
			entry = entry.WithField("scope", scope.String())
		}
		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Warn(path)
			return
		}
		entry.Info(path)
	}
}
