package store

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/postpilot/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewStorage(db, logger), mock
}

func jobColumns() []string {
	return []string{"job_id", "image_url", "caption", "status", "scheduled_at", "created_at", "updated_at"}
}

func TestStorage_Insert(t *testing.T) {
	s, mock := newMockStorage(t)

	now := time.Now()
	job := &domain.Job{
		JobID:     "a1b2",
		ImageURL:  "http://img.example/a.jpg",
		Caption:   "hello",
		Status:    domain.JobStatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectExec("INSERT INTO jobs").
		WithArgs(job.JobID, job.ImageURL, job.Caption, job.Status, job.ScheduledAt, job.CreatedAt, job.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Insert(context.Background(), job)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_Get_NotFound(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectQuery("SELECT (.+) FROM jobs").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	job, err := s.Get(context.Background(), "missing")
	assert.Nil(t, job)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestStorage_ListDue(t *testing.T) {
	s, mock := newMockStorage(t)

	now := time.Now()
	due := now.Add(-time.Minute)

	rows := sqlmock.NewRows(jobColumns()).
		AddRow("j1", "http://img.example/1.jpg", "", domain.JobStatusScheduled, due, now.Add(-time.Hour), now.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM jobs").
		WithArgs(domain.JobStatusScheduled, now).
		WillReturnRows(rows)

	jobs, err := s.ListDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "j1", jobs[0].JobID)
	assert.Equal(t, domain.JobStatusScheduled, jobs[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_MarkPublishedFrom(t *testing.T) {
	t.Run("transition succeeds when status still matches", func(t *testing.T) {
		s, mock := newMockStorage(t)

		publishedAt := time.Now()
		mock.ExpectExec("UPDATE jobs").
			WithArgs(domain.JobStatusPublished, publishedAt, "j1", domain.JobStatusScheduled).
			WillReturnResult(sqlmock.NewResult(0, 1))

		updated, err := s.MarkPublishedFrom(context.Background(), "j1", domain.JobStatusScheduled, publishedAt)
		require.NoError(t, err)
		assert.True(t, updated)
	})

	t.Run("zero rows is a no-op, not an error", func(t *testing.T) {
		s, mock := newMockStorage(t)

		publishedAt := time.Now()
		mock.ExpectExec("UPDATE jobs").
			WithArgs(domain.JobStatusPublished, publishedAt, "gone", domain.JobStatusScheduled).
			WillReturnResult(sqlmock.NewResult(0, 0))

		updated, err := s.MarkPublishedFrom(context.Background(), "gone", domain.JobStatusScheduled, publishedAt)
		require.NoError(t, err)
		assert.False(t, updated)
	})
}

func TestStorage_Schedule(t *testing.T) {
	t.Run("promotes a created job", func(t *testing.T) {
		s, mock := newMockStorage(t)

		at := time.Now().Add(time.Hour)
		mock.ExpectExec("UPDATE jobs").
			WithArgs(domain.JobStatusScheduled, at, "j1", domain.JobStatusCreated).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := s.Schedule(context.Background(), "j1", at)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("no-op when job is not in created status", func(t *testing.T) {
		s, mock := newMockStorage(t)

		at := time.Now().Add(time.Hour)
		mock.ExpectExec("UPDATE jobs").
			WithArgs(domain.JobStatusScheduled, at, "j1", domain.JobStatusCreated).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := s.Schedule(context.Background(), "j1", at)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStorage_Delete_Idempotent(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectExec("DELETE FROM jobs").
		WithArgs("j1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM jobs").
		WithArgs("j1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Delete(context.Background(), "j1"))
	// Second delete matches zero rows and still succeeds.
	require.NoError(t, s.Delete(context.Background(), "j1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_List_CursorAndStatus(t *testing.T) {
	s, mock := newMockStorage(t)

	now := time.Now()
	cursor := &Cursor{CreatedAt: now, JobID: "j9"}

	rows := sqlmock.NewRows(jobColumns()).
		AddRow("j2", "http://img.example/2.jpg", "two", domain.JobStatusScheduled, now, now.Add(-time.Minute), now.Add(-time.Minute)).
		AddRow("j1", "http://img.example/1.jpg", "one", domain.JobStatusScheduled, now, now.Add(-2*time.Minute), now.Add(-2*time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM jobs").
		WithArgs(domain.JobStatusScheduled, cursor.CreatedAt, cursor.JobID, 3).
		WillReturnRows(rows)

	jobs, err := s.List(context.Background(), Filter{
		Status:   domain.JobStatusScheduled,
		PageSize: 2,
		Cursor:   cursor,
	})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "j2", jobs[0].JobID)
	require.NoError(t, mock.ExpectationsWereMet())
}
