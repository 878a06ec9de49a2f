package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"social-service/internal/logger"
	"social-service/internal/metrics"
	"social-service/internal/middleware"
	"social-service/internal/telemetry"
)

func requestIDFromContext(c *gin.Context) string {
	if id := logger.RequestID(c.Request.Context()); id != "" {
		return id
	}
	if id := c.GetHeader(middleware.RequestIDHeader); id != "" {
		return id
	}
	return uuid.NewString()
}

func userIDFromContext(c *gin.Context) *int64 {
	if userIDVal, ok := c.Get(middleware.ContextUserID); ok {
		if userID, ok := userIDVal.(int64); ok {
			return &userID
		}
	}
	return nil
}

type auditor struct {
	audit *telemetry.AuditEmitter
}

// record emits one audit event for the current request.
func (a auditor) record(c *gin.Context, userID *int64, action string, err error, text string) {
	rec := telemetry.Record{
		Level:     telemetry.LevelInfo,
		Action:    action,
		Result:    metrics.StatusSuccess,
		Text:      text,
		RequestID: requestIDFromContext(c),
		UserID:    userID,
	}
	if err != nil {
		rec.Level = telemetry.LevelError
		rec.Result = metrics.StatusFailed
		if rec.Text == "" {
			rec.Text = err.Error()
		}
	}
	a.audit.Emit(c.Request.Context(), rec)
}
