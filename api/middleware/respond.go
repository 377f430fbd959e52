package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/use-agent/pinscout/models"
)

// identityKey is the gin context key under which Auth stores the caller's
// API key for downstream middleware.
const identityKey = "api_key"

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: msg, Code: code})
}
