package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/postpilot/backend/internal/domain"
)

// Storage handles all database operations for the job queue. Every method is a
// single SQL statement, so concurrent callers never observe a half-written row.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// Insert creates a new job record
func (s *Storage) Insert(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (
			job_id, image_url, caption, status,
			scheduled_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.JobID,
		job.ImageURL,
		job.Caption,
		job.Status,
		job.ScheduledAt,
		job.CreatedAt,
		job.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	return nil
}

// Get retrieves a job by its ID
func (s *Storage) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	var job domain.Job
	query := `
		SELECT job_id, image_url, caption, status, scheduled_at, created_at, updated_at
		FROM jobs
		WHERE job_id = $1
	`

	err := s.db.GetContext(ctx, &job, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// Filter narrows a List call.
type Filter struct {
	Status   string
	PageSize int
	Cursor   *Cursor
}

// Cursor marks a position in the created_at DESC, job_id DESC ordering.
type Cursor struct {
	CreatedAt time.Time
	JobID     string
}

// List returns jobs ordered newest created first. When a page size is set it
// fetches one extra row so callers can tell whether more results exist.
func (s *Storage) List(ctx context.Context, filter Filter) ([]domain.Job, error) {
	query := `
        SELECT job_id, image_url, caption, status, scheduled_at, created_at, updated_at
        FROM jobs
        WHERE 1=1
    `
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	// Order by created_at DESC, job_id DESC for consistent pagination
	query += " ORDER BY created_at DESC, job_id DESC"

	if filter.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.PageSize+1)
	}

	var jobs []domain.Job
	err := s.db.SelectContext(ctx, &jobs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// ListDue returns scheduled jobs whose scheduled_at is at or before now.
// The caller passes a single snapshot time so "due" does not drift mid-tick.
func (s *Storage) ListDue(ctx context.Context, now time.Time) ([]domain.Job, error) {
	query := `
		SELECT job_id, image_url, caption, status, scheduled_at, created_at, updated_at
		FROM jobs
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC
	`

	var jobs []domain.Job
	err := s.db.SelectContext(ctx, &jobs, query, domain.JobStatusScheduled, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due jobs: %w", err)
	}

	return jobs, nil
}

// MarkPublishedFrom transitions a job to PUBLISHED using a conditional update:
// the write only takes effect if the stored status still equals fromStatus.
// It returns false when zero rows matched (job deleted or already published by a
// concurrent caller), which is a no-op, not an error.
func (s *Storage) MarkPublishedFrom(ctx context.Context, jobID, fromStatus string, publishedAt time.Time) (bool, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    scheduled_at = $2,
		    updated_at = NOW()
		WHERE job_id = $3
		  AND status = $4
	`

	result, err := s.db.ExecContext(ctx, query, domain.JobStatusPublished, publishedAt, jobID, fromStatus)
	if err != nil {
		return false, fmt.Errorf("failed to mark job published: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Warn("Publish transition lost - job gone or already published",
			slog.String("job_id", jobID),
			slog.String("from_status", fromStatus),
		)
		return false, nil
	}

	s.logger.Info("Job marked published",
		slog.String("job_id", jobID),
		slog.Time("published_at", publishedAt),
	)

	return true, nil
}

// Schedule promotes a CREATED job to SCHEDULED with the given time. Returns
// false when the job is absent or no longer in CREATED.
func (s *Storage) Schedule(ctx context.Context, jobID string, at time.Time) (bool, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    scheduled_at = $2,
		    updated_at = NOW()
		WHERE job_id = $3
		  AND status = $4
	`

	result, err := s.db.ExecContext(ctx, query, domain.JobStatusScheduled, at, jobID, domain.JobStatusCreated)
	if err != nil {
		return false, fmt.Errorf("failed to schedule job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Delete removes a job record unconditionally. Deleting an absent job is
// success: deletion races with the scheduler are expected and handled silently.
func (s *Storage) Delete(ctx context.Context, jobID string) error {
	query := `DELETE FROM jobs WHERE job_id = $1`

	result, err := s.db.ExecContext(ctx, query, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Debug("Delete - no rows affected (job already absent)",
			slog.String("job_id", jobID),
		)
	}

	return nil
}
