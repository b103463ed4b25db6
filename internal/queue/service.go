package queue

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/postpilot/backend/internal/clock"
	"github.com/postpilot/backend/internal/domain"
	"github.com/postpilot/backend/internal/events"
	"github.com/postpilot/backend/internal/publisher"
	"github.com/postpilot/backend/internal/store"
)

// DefaultScheduleDelay is applied when a schedule request omits the time.
const DefaultScheduleDelay = time.Hour

// Store is the persistence surface the queue service depends on.
type Store interface {
	Insert(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, jobID string) (*domain.Job, error)
	List(ctx context.Context, filter store.Filter) ([]domain.Job, error)
	MarkPublishedFrom(ctx context.Context, jobID, fromStatus string, publishedAt time.Time) (bool, error)
	Schedule(ctx context.Context, jobID string, at time.Time) (bool, error)
	Delete(ctx context.Context, jobID string) error
}

// Config holds queue service configuration
type Config struct {
	Logger         *slog.Logger
	Store          Store
	Publisher      publisher.Publisher
	Clock          clock.Clock
	Notifier       events.Notifier // optional
	PublishTimeout time.Duration
}

// Service implements the API-facing queue operations and enforces the job
// state machine. It is the only client-driven writer of the job store.
type Service struct {
	logger         *slog.Logger
	store          Store
	publisher      publisher.Publisher
	clock          clock.Clock
	notifier       events.Notifier
	publishTimeout time.Duration
}

// NewService creates a new queue service
func NewService(cfg *Config) *Service {
	c := cfg.Clock
	if c == nil {
		c = clock.Real{}
	}
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		logger:         cfg.Logger,
		store:          cfg.Store,
		publisher:      cfg.Publisher,
		clock:          c,
		notifier:       cfg.Notifier,
		publishTimeout: timeout,
	}
}

// SubmitCreated inserts a new job in CREATED status.
func (s *Service) SubmitCreated(ctx context.Context, imageURL, caption string) (*domain.Job, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("%w: image_url is required", domain.ErrInvalidArgument)
	}

	now := s.clock.Now()
	job := &domain.Job{
		JobID:     uuid.New().String(),
		ImageURL:  imageURL,
		Caption:   caption,
		Status:    domain.JobStatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Insert(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("Job created",
		slog.String("job_id", job.JobID),
	)

	return job, nil
}

// SubmitScheduled inserts a new job directly in SCHEDULED status. A nil
// scheduledAt defaults to one hour from now.
func (s *Service) SubmitScheduled(ctx context.Context, imageURL, caption string, scheduledAt *time.Time) (*domain.Job, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("%w: image_url is required", domain.ErrInvalidArgument)
	}

	now := s.clock.Now()
	at := now.Add(DefaultScheduleDelay)
	if scheduledAt != nil {
		at = *scheduledAt
	}

	job := &domain.Job{
		JobID:       uuid.New().String(),
		ImageURL:    imageURL,
		Caption:     caption,
		Status:      domain.JobStatusScheduled,
		ScheduledAt: sql.NullTime{Time: at, Valid: true},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Insert(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("Job scheduled",
		slog.String("job_id", job.JobID),
		slog.Time("scheduled_at", at),
	)

	return job, nil
}

// ScheduleExisting promotes a CREATED job to SCHEDULED. A nil scheduledAt
// defaults to one hour from now.
func (s *Service) ScheduleExisting(ctx context.Context, jobID string, scheduledAt *time.Time) (*domain.Job, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	at := s.clock.Now().Add(DefaultScheduleDelay)
	if scheduledAt != nil {
		at = *scheduledAt
	}

	ok, err := s.store.Schedule(ctx, jobID, at)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Status moved on since the read above.
		return nil, fmt.Errorf("%w: job %s is not in %s status", domain.ErrInvalidArgument, jobID, domain.JobStatusCreated)
	}

	job.Status = domain.JobStatusScheduled
	job.ScheduledAt = sql.NullTime{Time: at, Valid: true}

	s.logger.Info("Job scheduled",
		slog.String("job_id", jobID),
		slog.Time("scheduled_at", at),
	)

	return job, nil
}

// PublishRequest identifies what to publish: an existing job by id, or inline
// content that becomes a new job record.
type PublishRequest struct {
	JobID    string
	ImageURL string
	Caption  string
}

// PublishReceipt reports a successful publish.
type PublishReceipt struct {
	JobID       string
	PostID      string
	PublishedAt time.Time
}

// PublishNow invokes the publisher synchronously and records the PUBLISHED
// transition. On publisher failure the job record is left unmodified so the
// call can be retried.
func (s *Service) PublishNow(ctx context.Context, req PublishRequest) (*PublishReceipt, error) {
	imageURL := req.ImageURL
	caption := req.Caption
	fromStatus := ""

	if req.JobID != "" {
		job, err := s.store.Get(ctx, req.JobID)
		if err != nil {
			return nil, err
		}
		if job.Status == domain.JobStatusPublished {
			return nil, fmt.Errorf("%w: job %s is already published", domain.ErrInvalidArgument, req.JobID)
		}
		imageURL = job.ImageURL
		caption = job.Caption
		fromStatus = job.Status
	}

	if imageURL == "" {
		return nil, fmt.Errorf("%w: image_url is required", domain.ErrInvalidArgument)
	}

	result, err := s.callPublisher(ctx, imageURL, caption)
	if err != nil {
		return nil, err
	}

	publishedAt := s.clock.Now()

	jobID := req.JobID
	if jobID != "" {
		ok, err := s.store.MarkPublishedFrom(ctx, jobID, fromStatus, publishedAt)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Lost the race against a tick or delete. The side effect
			// happened, so the caller still gets success.
			s.logger.Warn("Publish-now transition skipped - concurrent publish or delete",
				slog.String("job_id", jobID),
			)
		}
	} else {
		job := &domain.Job{
			JobID:       uuid.New().String(),
			ImageURL:    imageURL,
			Caption:     caption,
			Status:      domain.JobStatusPublished,
			ScheduledAt: sql.NullTime{Time: publishedAt, Valid: true},
			CreatedAt:   publishedAt,
			UpdatedAt:   publishedAt,
		}
		if err := s.store.Insert(ctx, job); err != nil {
			return nil, err
		}
		jobID = job.JobID
	}

	s.emitPublished(ctx, events.JobPublishedEvent{
		JobID:       jobID,
		PostID:      result.PostID,
		ImageURL:    imageURL,
		PublishedAt: publishedAt,
	})

	s.logger.Info("Job published",
		slog.String("job_id", jobID),
		slog.String("post_id", result.PostID),
	)

	return &PublishReceipt{
		JobID:       jobID,
		PostID:      result.PostID,
		PublishedAt: publishedAt,
	}, nil
}

// ListQueue returns jobs ordered newest created first.
func (s *Service) ListQueue(ctx context.Context, filter store.Filter) ([]domain.Job, error) {
	return s.store.List(ctx, filter)
}

// GetJob retrieves a single job by id.
func (s *Service) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.store.Get(ctx, jobID)
}

// DeleteJob removes the record unconditionally. Deleting an absent or
// mid-flight job succeeds.
func (s *Service) DeleteJob(ctx context.Context, jobID string) error {
	if err := s.store.Delete(ctx, jobID); err != nil {
		return err
	}

	s.logger.Info("Job deleted",
		slog.String("job_id", jobID),
	)

	return nil
}

// callPublisher runs the publisher capability under the configured timeout and
// wraps any failure as ErrPublishFailed.
func (s *Service) callPublisher(ctx context.Context, imageURL, caption string) (*publisher.Result, error) {
	pubCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	result, err := s.publisher.Publish(pubCtx, imageURL, caption)
	if err != nil {
		s.logger.Error("Publisher call failed",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrPublishFailed, err)
	}

	return result, nil
}

// emitPublished sends the job-published event when a notifier is configured.
// Event emission is best-effort and never fails the publish.
func (s *Service) emitPublished(ctx context.Context, event events.JobPublishedEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.JobPublished(ctx, event); err != nil {
		s.logger.Warn("Failed to emit job published event",
			slog.String("job_id", event.JobID),
			slog.String("error", err.Error()),
		)
	}
}
