package publisher

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPPublisher_Publish(t *testing.T) {
	var received publishRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		json.NewEncoder(w).Encode(publishResponse{PostID: "ig-42"})
	}))
	defer srv.Close()

	p := NewHTTPPublisher(srv.URL, testLogger())

	result, err := p.Publish(context.Background(), "http://x/a.jpg", "hello world")
	require.NoError(t, err)
	assert.Equal(t, "ig-42", result.PostID)
	assert.Equal(t, "http://x/a.jpg", received.ImageURL)
	assert.Equal(t, "hello world", received.Caption)
}

func TestHTTPPublisher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "feedback_required", http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewHTTPPublisher(srv.URL, testLogger())

	result, err := p.Publish(context.Background(), "http://x/a.jpg", "")
	assert.Nil(t, result)
	assert.ErrorContains(t, err, "status 403")
}

func TestHTTPPublisher_MissingPostID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p := NewHTTPPublisher(srv.URL, testLogger())

	_, err := p.Publish(context.Background(), "http://x/a.jpg", "")
	assert.ErrorContains(t, err, "missing post_id")
}

func TestHTTPPublisher_ContextTimeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	p := NewHTTPPublisher(srv.URL, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Publish(ctx, "http://x/a.jpg", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
