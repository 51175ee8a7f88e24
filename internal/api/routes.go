// Package api exposes generated reports over HTTP so dashboards and
// teammates can browse them without filesystem access.
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter builds the gin engine with all routes registered.
func SetupRouter(handler *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware())

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/reports", handler.ListReports)
		v1.GET("/reports/:year/:user/:name", handler.GetReport)
	}
	return router
}
