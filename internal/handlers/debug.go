package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"click-client/internal/telemetry"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.Emitter, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/event-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), "debug_test", "event emitted from debug route id="+uuid.NewString(), nil)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
