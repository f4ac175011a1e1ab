package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crewops/opsync/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "opsync-api",
			"remote":  deps.Settings.Configured(),
		})
	})

	dispatchHandler := handler.NewDispatchHandler(deps)
	inspectionHandler := handler.NewInspectionHandler(deps)
	settingsHandler := handler.NewSettingsHandler(deps)
	syncHandler := handler.NewSyncHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		dispatch := v1.Group("/dispatch")
		{
			// GET /api/v1/dispatch/board - Full board, merged with remote
			dispatch.GET("/board", dispatchHandler.GetBoard)

			dispatch.GET("/jobs", dispatchHandler.ListJobs)
			dispatch.POST("/jobs", dispatchHandler.SaveJob)
			dispatch.PATCH("/jobs/:job_id", dispatchHandler.PatchJob)
			dispatch.DELETE("/jobs/:job_id", dispatchHandler.DeleteJob)

			dispatch.POST("/employees", dispatchHandler.SaveEmployee)
			dispatch.DELETE("/employees/:employee_id", dispatchHandler.DeleteEmployee)

			dispatch.POST("/profiles", dispatchHandler.SaveProfile)
			dispatch.DELETE("/profiles/:profile_id", dispatchHandler.DeleteProfile)

			dispatch.POST("/schedules", dispatchHandler.SaveSchedule)
			dispatch.DELETE("/schedules/:schedule_id", dispatchHandler.DeleteSchedule)

			dispatch.GET("/locations", dispatchHandler.ListLocations)
			dispatch.POST("/locations", dispatchHandler.ReportLocation)

			// POST /api/v1/dispatch/generate - Expand recurring profiles
			dispatch.POST("/generate", dispatchHandler.GenerateJobs)

			dispatch.GET("/backup", dispatchHandler.ExportBackup)
			dispatch.POST("/backup", dispatchHandler.ImportBackup)
		}

		inspection := v1.Group("/inspection")
		{
			inspection.GET("/reports", inspectionHandler.ListReports)
			inspection.POST("/reports", inspectionHandler.SaveReport)
			inspection.GET("/reports/:report_id", inspectionHandler.GetReport)
			inspection.DELETE("/reports/:report_id", inspectionHandler.DeleteReport)

			inspection.GET("/templates", inspectionHandler.ListTemplates)
			inspection.POST("/templates", inspectionHandler.SaveTemplate)

			inspection.GET("/employees", inspectionHandler.ListEmployees)
		}

		settings := v1.Group("/settings")
		{
			settings.GET("/remote", settingsHandler.GetRemoteSettings)
			settings.PUT("/remote", settingsHandler.UpdateRemoteSettings)
		}

		sync := v1.Group("/sync")
		{
			// POST /api/v1/sync/tasks - Queue a backfill or asset sweep
			sync.POST("/tasks", syncHandler.EnqueueTask)
		}
	}

	return r
}
