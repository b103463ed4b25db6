package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/postpilot/backend/shared/rabbitmq"
)

// JobPublishedEvent is emitted after a job transitions to PUBLISHED.
type JobPublishedEvent struct {
	JobID       string    `json:"job_id"`
	PostID      string    `json:"post_id"`
	ImageURL    string    `json:"image_url"`
	PublishedAt time.Time `json:"published_at"`
}

// Notifier announces job lifecycle events to downstream consumers. Emitting is
// best-effort: callers log failures but never fail the triggering operation.
type Notifier interface {
	JobPublished(ctx context.Context, event JobPublishedEvent) error
}

// RabbitNotifier publishes events to a RabbitMQ exchange.
type RabbitNotifier struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

// NewRabbitNotifier creates a notifier backed by the given RabbitMQ client.
func NewRabbitNotifier(client *rabbitmq.Client, logger *slog.Logger) *RabbitNotifier {
	return &RabbitNotifier{
		client: client,
		logger: logger,
	}
}

// JobPublished emits a job-published event.
func (n *RabbitNotifier) JobPublished(ctx context.Context, event JobPublishedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := n.client.PublishWithRetry(ctx, body, "application/json"); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	n.logger.Debug("Job published event emitted",
		slog.String("job_id", event.JobID),
		slog.String("post_id", event.PostID),
	)

	return nil
}
