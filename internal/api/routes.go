package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes.
func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	reports := v1.Group("/reports")
	reports.POST("", handler.CreateReport) // POST /api/v1/reports
	reports.GET("", handler.ListReports)   // GET /api/v1/reports
	reports.GET("/:id", handler.GetReport) // GET /api/v1/reports/:id

	v1.GET("/tenants", handler.ListTenants) // GET /api/v1/tenants
}
