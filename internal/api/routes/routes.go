package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/callsight/callsight/internal/api/handlers"
	"github.com/callsight/callsight/internal/api/middleware"
)

type Deps struct {
	Calls    *handlers.CallHandler
	Criteria *handlers.CriteriaHandler
	Alerts   *handlers.AlertHandler
	WS       *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/webhooks/calls", d.Calls.Ingest)
	auth.POST("/webhooks/calls/async", d.Calls.IngestAsync)
	auth.GET("/calls/:call_id", d.Calls.Get)

	auth.GET("/criteria", d.Criteria.List)
	auth.POST("/criteria", middleware.RequireSupervisor(), d.Criteria.Create)
	auth.DELETE("/criteria/:criterion_id", middleware.RequireSupervisor(), d.Criteria.Deactivate)

	auth.GET("/alerts", d.Alerts.List)
	auth.POST("/alerts/:alert_id/read", d.Alerts.MarkRead)

	// WebSocket
	auth.GET("/ws/calls/:call_id", d.WS.CallStatusWS)
}
