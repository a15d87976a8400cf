package handlers

import (
	"net/http"

	"recruit-assistant/cache"

	"github.com/gin-gonic/gin"
)

// Health reports liveness along with the answer cache counters.
func Health(stats func() cache.Stats) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if stats != nil {
			body["cache"] = stats()
		}
		c.JSON(http.StatusOK, body)
	}
}
