package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ordersight/matchday/internal/api/handlers"
)

// SetupRoutes mounts the health endpoint and the versioned analysis API.
func SetupRoutes(router *gin.Engine, health *handlers.HealthHandler, analysis *handlers.AnalysisHandler) {
	router.GET("/health", health.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		group := v1.Group("/analysis")
		{
			group.POST("/run", analysis.RunAnalysis)
			group.GET("/report", analysis.GetLatestReport)
			group.GET("/reports/:id", analysis.GetReport)
			group.GET("/significant-findings", analysis.GetSignificantFindings)
		}
	}
}
