package domain

import (
	"database/sql"
	"time"
)

// Job status constants. A job only moves forward: CREATED -> SCHEDULED -> PUBLISHED.
const (
	JobStatusCreated   = "CREATED"
	JobStatusScheduled = "SCHEDULED"
	JobStatusPublished = "PUBLISHED"
)

// Job is one unit of content plus its schedule.
type Job struct {
	JobID       string       `db:"job_id"`
	ImageURL    string       `db:"image_url"`
	Caption     string       `db:"caption"`
	Status      string       `db:"status"`
	ScheduledAt sql.NullTime `db:"scheduled_at"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

// IsDue reports whether the job is scheduled and its time has arrived.
func (j *Job) IsDue(now time.Time) bool {
	return j.Status == JobStatusScheduled && j.ScheduledAt.Valid && !j.ScheduledAt.Time.After(now)
}
