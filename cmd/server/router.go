package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"payroll-import/internal/handler"
	"payroll-import/internal/middleware"
)

// maxMultipartMemory is how much of an upload gin keeps in memory before
// spilling to a temp file.
const maxMultipartMemory = 8 << 20

func newRouter(imports *handler.ImportHandler, exports *handler.ExportHandler, health *handler.HealthHandler) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = maxMultipartMemory
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Metrics(), middleware.AccessLog())

	router.GET("/health", health.Health)
	router.GET("/ready", health.Ready)
	router.GET("/live", health.Live)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		jobs := v1.Group("/imports")
		jobs.POST("", imports.CreateImport)
		jobs.GET("/:id", imports.GetImport)
		jobs.GET("/:id/progress", imports.GetProgress)
		jobs.GET("/:id/progress/stream", imports.StreamProgress)
		jobs.POST("/:id/cancel", imports.CancelImport)
		jobs.POST("/:id/rollback", imports.RollbackImport)

		v1.POST("/previews", imports.Preview)
		v1.GET("/catalog", imports.ListGroups)
		v1.GET("/catalog/:group", imports.Catalog)
		v1.GET("/exports/:group", exports.Export)
	}
	return router
}
