package main

import (
	"callsync-server/internal/auth"
	"callsync-server/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, syncKey string) {
	// public
	r.GET("/health", httpapi.Health)

	// Everything else sits behind the shared device secret.
	gated := r.Group("/")
	gated.Use(auth.RequireSyncKey(syncKey))
	{
		gated.POST("/calls", h.CreateCall)
		gated.POST("/calls/batch", h.CreateCallBatch)
		gated.GET("/calls", h.ListCalls)
		gated.GET("/stats", h.GetStats)
		gated.GET("/employees", h.GetEmployees)
	}
}
