package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/postpilot/backend/internal/api/dto"
	"github.com/postpilot/backend/internal/domain"
	"github.com/postpilot/backend/internal/queue"
	"github.com/postpilot/backend/internal/store"
)

// CreateJob handles POST /api/v1/jobs
// Inserts a new job in CREATED status
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	job, err := h.queue.SubmitCreated(c.Request.Context(), req.ImageURL, req.Caption)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toJobDTO(job))
}

// ScheduleJob handles POST /api/v1/jobs/schedule
// Inserts a new job directly in SCHEDULED status; scheduled_at defaults to
// one hour from now when omitted
func (h *JobHandler) ScheduleJob(c *gin.Context) {
	var req dto.ScheduleJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	job, err := h.queue.SubmitScheduled(c.Request.Context(), req.ImageURL, req.Caption, req.ScheduledAt)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toJobDTO(job))
}

// ScheduleExistingJob handles POST /api/v1/jobs/:job_id/schedule
// Promotes a CREATED job to SCHEDULED
func (h *JobHandler) ScheduleExistingJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		h.logger.Error("Invalid job_id format", slog.String("job_id", jobID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	var req dto.ScheduleExistingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	job, err := h.queue.ScheduleExisting(c.Request.Context(), jobID, req.ScheduledAt)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toJobDTO(job))
}

// PublishNow handles POST /api/v1/jobs/publish
// Publishes synchronously, either an existing job by job_id or inline content
func (h *JobHandler) PublishNow(c *gin.Context) {
	var req dto.PublishNowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if req.JobID != "" {
		if _, err := uuid.Parse(req.JobID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "job_id must be a valid UUID",
			})
			return
		}
	}

	receipt, err := h.queue.PublishNow(c.Request.Context(), queue.PublishRequest{
		JobID:    req.JobID,
		ImageURL: req.ImageURL,
		Caption:  req.Caption,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PublishNowResponse{
		JobID:       receipt.JobID,
		PostID:      receipt.PostID,
		PublishedAt: receipt.PublishedAt.Format(time.RFC3339),
	})
}

// ListJobs handles GET /api/v1/jobs
// Lists jobs newest created first with optional status filter and pagination
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := store.Filter{
		Status:   req.Status,
		PageSize: req.PageSize,
		Cursor:   cursor,
	}

	jobs, err := h.queue.ListQueue(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// One extra row was fetched to detect whether more results exist.
	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	jobResponse := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		jobResponse[i] = toJobDTO(&jobs[i])
	}

	var nextCursor string
	if hasMore {
		lastJob := jobs[len(jobs)-1]
		nextCursor = EncodeJobCursor(&store.Cursor{
			CreatedAt: lastJob.CreatedAt,
			JobID:     lastJob.JobID,
		})
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:       jobResponse,
		NextCursor: nextCursor,
	})
}

// GetJob handles GET /api/v1/jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		h.logger.Error("Invalid job_id format", slog.String("job_id", jobID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.queue.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toJobDTO(job))
}

// DeleteJob handles DELETE /api/v1/jobs/:job_id
// Removal is unconditional and idempotent: deleting an absent job succeeds
func (h *JobHandler) DeleteJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		h.logger.Error("Invalid job_id format", slog.String("job_id", jobID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	if err := h.queue.DeleteJob(c.Request.Context(), jobID); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func toJobDTO(job *domain.Job) dto.JobDTO {
	d := dto.JobDTO{
		JobID:     job.JobID,
		ImageURL:  job.ImageURL,
		Caption:   job.Caption,
		Status:    job.Status,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
		UpdatedAt: job.UpdatedAt.Format(time.RFC3339),
	}
	if job.ScheduledAt.Valid {
		d.ScheduledAt = job.ScheduledAt.Time.Format(time.RFC3339)
	}
	return d
}
