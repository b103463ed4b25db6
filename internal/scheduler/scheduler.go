package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/postpilot/backend/internal/clock"
	"github.com/postpilot/backend/internal/domain"
	"github.com/postpilot/backend/internal/events"
	"github.com/postpilot/backend/internal/publisher"
)

// Store is the persistence surface the scheduler depends on.
type Store interface {
	ListDue(ctx context.Context, now time.Time) ([]domain.Job, error)
	MarkPublishedFrom(ctx context.Context, jobID, fromStatus string, publishedAt time.Time) (bool, error)
}

// Config holds scheduler configuration
type Config struct {
	Logger         *slog.Logger
	Store          Store
	Publisher      publisher.Publisher
	Clock          clock.Clock
	Notifier       events.Notifier // optional
	TickInterval   time.Duration
	PublishTimeout time.Duration
}

// Scheduler runs the periodic due-job scan. It keeps no job state between
// ticks: every tick re-reads the store, which is the single source of truth
// shared with the API service.
type Scheduler struct {
	logger         *slog.Logger
	store          Store
	publisher      publisher.Publisher
	clock          clock.Clock
	notifier       events.Notifier
	tickInterval   time.Duration
	publishTimeout time.Duration
	wg             sync.WaitGroup
	stopChan       chan struct{}
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *Config) *Scheduler {
	c := cfg.Clock
	if c == nil {
		c = clock.Real{}
	}
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = time.Minute
	}
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		logger:         cfg.Logger,
		store:          cfg.Store,
		publisher:      cfg.Publisher,
		clock:          c,
		notifier:       cfg.Notifier,
		tickInterval:   interval,
		publishTimeout: timeout,
		stopChan:       make(chan struct{}),
	}
}

// Start runs the tick loop until the context is canceled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting scheduler",
		slog.Duration("tick_interval", s.tickInterval),
		slog.Duration("publish_timeout", s.publishTimeout),
	)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	s.wg.Add(1)
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			s.logger.Info("Scheduler stopping - stopChan closed")
			return nil

		case <-ctx.Done():
			s.logger.Info("Scheduler stopping - context canceled")
			return nil

		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler...")
	close(s.stopChan)
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// Tick runs one due-job scan. The current time is snapshotted once at tick
// start so a job cannot become due mid-tick. Each due job is processed
// independently: one job's failure never aborts the rest of the tick.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.clock.Now()

	due, err := s.store.ListDue(ctx, now)
	if err != nil {
		// Store unavailable: log and wait for the next tick.
		s.logger.Error("Failed to list due jobs",
			slog.String("error", err.Error()),
		)
		return
	}

	if len(due) == 0 {
		s.logger.Debug("Tick - no due jobs",
			slog.Time("snapshot", now),
		)
		return
	}

	s.logger.Info("Tick - processing due jobs",
		slog.Int("due_count", len(due)),
		slog.Time("snapshot", now),
	)

	for _, job := range due {
		s.publishJob(ctx, &job)
	}
}

// publishJob invokes the publisher for one due job, then performs the
// conditional PUBLISHED transition. The write only succeeds if the stored
// status still equals SCHEDULED, so a concurrent delete or manual publish that
// raced ahead of this tick results in a logged no-op, not a double publish.
func (s *Scheduler) publishJob(ctx context.Context, job *domain.Job) {
	pubCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	result, err := s.publisher.Publish(pubCtx, job.ImageURL, job.Caption)
	if err != nil {
		// Left in SCHEDULED; the next tick retries.
		s.logger.Error("Publisher call failed, job left for retry",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
		return
	}

	publishedAt := s.clock.Now()

	updated, err := s.store.MarkPublishedFrom(ctx, job.JobID, domain.JobStatusScheduled, publishedAt)
	if err != nil {
		s.logger.Error("Failed to mark job published",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
		return
	}

	if !updated {
		s.logger.Warn("Skipped duplicate publish - job deleted or published elsewhere",
			slog.String("job_id", job.JobID),
		)
		return
	}

	s.logger.Info("Due job published",
		slog.String("job_id", job.JobID),
		slog.String("post_id", result.PostID),
		slog.Time("published_at", publishedAt),
	)

	if s.notifier != nil {
		if err := s.notifier.JobPublished(ctx, events.JobPublishedEvent{
			JobID:       job.JobID,
			PostID:      result.PostID,
			ImageURL:    job.ImageURL,
			PublishedAt: publishedAt,
		}); err != nil {
			s.logger.Warn("Failed to emit job published event",
				slog.String("job_id", job.JobID),
				slog.String("error", err.Error()),
			)
		}
	}
}
