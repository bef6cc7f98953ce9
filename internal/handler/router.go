package handler

import (
	"github.com/Aaditya7171/event-platform/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// Routes bundles the handlers and the middleware that guards them
type Routes struct {
	Health *HealthHandler
	Event  *EventHandler
	Lead   *LeadHandler
	Ingest *IngestHandler

	// JWT guards the operator routes
	JWT *middleware.JWTConfig
	// LeadLimiter throttles lead submissions per client; optional
	LeadLimiter *middleware.LocalRateLimiter
	// Audit records operator actions; optional
	Audit *middleware.AuditLogger
}

// Register mounts all routes on r
func (rt *Routes) Register(r gin.IRouter) {
	r.GET("/health", rt.Health.Health)
	r.GET("/ready", rt.Health.Ready)

	v1 := r.Group("/api/v1")

	events := v1.Group("/events")
	events.GET("", rt.Event.List)
	events.GET("/:id", rt.Event.GetByID)

	leadChain := []gin.HandlerFunc{}
	if rt.LeadLimiter != nil {
		leadChain = append(leadChain, middleware.RateLimit(rt.LeadLimiter))
	}
	leadChain = append(leadChain, rt.Lead.Submit)
	v1.POST("/leads", leadChain...)

	operator := v1.Group("")
	operator.Use(
		middleware.JWTMiddleware(rt.JWT),
		middleware.RequireRole(middleware.RoleOperator, middleware.RoleAdmin),
	)
	operator.POST("/events/:id/import", rt.audit("event.import", "event"), rt.Event.Import)
	operator.GET("/events/:id/leads", rt.Event.ListLeads)
	operator.POST("/ingest/runs", rt.audit("ingest.run", "ingest_run"), rt.Ingest.Run)
	operator.GET("/ingest/runs/latest", rt.Ingest.Latest)
}

func (rt *Routes) audit(action, resourceType string) gin.HandlerFunc {
	if rt.Audit == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.Audit(rt.Audit, action, resourceType)
}
