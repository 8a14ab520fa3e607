package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/projectline/projectline/internal/api/v1"
	"github.com/projectline/projectline/internal/config"
	"github.com/projectline/projectline/internal/rest/middleware"
)

type Handlers struct {
	Health     *v1.HealthHandler
	Project    *v1.ProjectHandler
	Connection *v1.ConnectionHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration) *gin.Engine {
	router := gin.New()

	router.Use(
		gin.Recovery(),
		middleware.SentryMiddleware(cfg),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1", middleware.TenantMiddleware)
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	// Project routes
	projects := router.Group("/projects")
	{
		projects.POST("/create-full", handlers.Project.CreateFullProject)
		projects.GET("/counters/:departmentCode/:year", handlers.Project.GetCounter)
	}

	// Connection routes
	connections := router.Group("/connections")
	{
		connections.POST("", handlers.Connection.ConnectService)
		connections.GET("/:service", handlers.Connection.GetConnectionStatus)
		connections.DELETE("/:service", handlers.Connection.DisconnectService)
	}
}
