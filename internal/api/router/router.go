package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/postpilot/backend/internal/api/handler"
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
			"service": "queue-api-service",
		})
	})

	// Initialize job handler
	jobHandler := handler.NewJobHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs - Create a job in CREATED status
			jobs.POST("", jobHandler.CreateJob)

			// POST /api/v1/jobs/schedule - Create a job directly in SCHEDULED status
			jobs.POST("/schedule", jobHandler.ScheduleJob)

			// POST /api/v1/jobs/publish - Publish immediately (by job_id or inline)
			jobs.POST("/publish", jobHandler.PublishNow)

			// GET /api/v1/jobs - List the queue, newest created first
			jobs.GET("", jobHandler.ListJobs)

			// GET /api/v1/jobs/:job_id - Get job details
			jobs.GET("/:job_id", jobHandler.GetJob)

			// POST /api/v1/jobs/:job_id/schedule - Promote a CREATED job to SCHEDULED
			jobs.POST("/:job_id/schedule", jobHandler.ScheduleExistingJob)

			// DELETE /api/v1/jobs/:job_id - Delete a job (idempotent)
			jobs.DELETE("/:job_id", jobHandler.DeleteJob)
		}
	}

	return r
}
