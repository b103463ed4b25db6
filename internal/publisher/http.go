package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// HTTPPublisher posts content to an external publish endpoint.
type HTTPPublisher struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTPPublisher creates a publisher that POSTs to endpoint. The per-call
// timeout is enforced by the caller's context, not the client.
func NewHTTPPublisher(endpoint string, logger *slog.Logger) *HTTPPublisher {
	return &HTTPPublisher{
		endpoint: endpoint,
		client:   &http.Client{},
		logger:   logger,
	}
}

type publishRequest struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
}

type publishResponse struct {
	PostID string `json:"post_id"`
}

// Publish sends the image reference and caption to the publish endpoint and
// returns the external post id from the response.
func (p *HTTPPublisher) Publish(ctx context.Context, imageURL, caption string) (*Result, error) {
	body, err := json.Marshal(publishRequest{
		ImageURL: imageURL,
		Caption:  caption,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal publish request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("publish request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.logger.Error("Publish endpoint returned error status",
			slog.Int("status", resp.StatusCode),
			slog.String("endpoint", p.endpoint),
		)
		return nil, fmt.Errorf("publish endpoint returned status %d", resp.StatusCode)
	}

	var out publishResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode publish response: %w", err)
	}

	if out.PostID == "" {
		return nil, fmt.Errorf("publish response missing post_id")
	}

	p.logger.Debug("Publish call succeeded",
		slog.String("post_id", out.PostID),
	)

	return &Result{PostID: out.PostID}, nil
}
