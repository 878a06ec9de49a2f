package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"social-service/internal/observability"
)

// unmatchedRoute labels requests that hit no registered route so arbitrary
// paths cannot grow the label set.
const unmatchedRoute = "unmatched"

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		observability.RecordHTTPRequest(
			c.Request.Method,
			route,
			c.Writer.Status(),
			time.Since(start),
		)
	}
}
