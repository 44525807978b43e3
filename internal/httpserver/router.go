package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hmadashboard/internal/handler"
)

// Pinger reports whether the persistence backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Connectivity reports the state of an optional MQ link.
type Connectivity interface {
	IsConnected() bool
}

type Router struct {
	Engine *gin.Engine
}

// NewRouter wires the API. mq may be nil when messaging is disabled.
func NewRouter(
	projectHandler *handler.ProjectHandler,
	milestoneHandler *handler.MilestoneHandler,
	logger *zap.Logger,
	kv Pinger,
	mq Connectivity,
) *Router {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(LoggingMiddleware(logger))

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := kv.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "storage_not_ready", "error": err.Error()})
			return
		}

		if mq != nil && !mq.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/status", projectHandler.Status)
	r.POST("/refresh", projectHandler.Refresh)
	r.GET("/tracking", projectHandler.ListTracking)
	r.POST("/requests/convert", projectHandler.ConvertRequest)

	projects := r.Group("/projects")
	{
		projects.GET("", projectHandler.ListProjects)
		projects.POST("", projectHandler.CreateProject)
		projects.GET("/:id", projectHandler.GetProject)
		projects.PATCH("/:id", projectHandler.UpdateProject)
		projects.DELETE("/:id", projectHandler.DeleteProject)
		projects.PUT("/:id/status", projectHandler.UpdateStatus)
		projects.POST("/:id/progress", projectHandler.RecomputeProgress)
		projects.GET("/:id/tracking", projectHandler.GetTracking)
		projects.POST("/:id/updates", projectHandler.AddUpdate)
		projects.POST("/:id/milestones", milestoneHandler.AddMilestone)
		projects.PATCH("/:id/milestones/:mid", milestoneHandler.UpdateMilestone)
		projects.DELETE("/:id/milestones/:mid", milestoneHandler.DeleteMilestone)
	}

	return &Router{Engine: r}
}
