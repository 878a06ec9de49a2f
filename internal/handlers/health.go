package handlers

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health reports whether the database answers a ping.
func Health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(nethttp.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
	}
}
