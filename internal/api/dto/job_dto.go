package dto

import "time"

type CreateJobRequest struct {
	ImageURL string `json:"image_url" binding:"required"`
	Caption  string `json:"caption"`
}

type ScheduleJobRequest struct {
	ImageURL    string     `json:"image_url" binding:"required"`
	Caption     string     `json:"caption"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type ScheduleExistingRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// PublishNowRequest carries either an existing job_id or inline content.
type PublishNowRequest struct {
	JobID    string `json:"job_id"`
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
}

type PublishNowResponse struct {
	JobID       string `json:"job_id"`
	PostID      string `json:"post_id"`
	PublishedAt string `json:"published_at"`
}

type ListJobsRequest struct {
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type JobDTO struct {
	JobID       string `json:"job_id"`
	ImageURL    string `json:"image_url"`
	Caption     string `json:"caption"`
	Status      string `json:"status"`
	ScheduledAt string `json:"scheduled_at,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}
