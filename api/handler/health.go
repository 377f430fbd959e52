package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pinscout/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// SessionCounter reports in-flight browser sessions.
type SessionCounter interface {
	ActiveSessions() int
}

// Health returns a handler for GET /api/v1/health.
//
// Status is "busy" while at least one browser session is running, since
// every scrape owns a whole Chromium process.
func Health(sc SessionCounter, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		active := sc.ActiveSessions()

		status := "healthy"
		if active > 0 {
			status = "busy"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:         status,
			Uptime:         time.Since(startTime).Round(time.Second).String(),
			ActiveSessions: active,
			Version:        Version,
		})
	}
}
