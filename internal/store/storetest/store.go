// Package storetest provides an in-memory job store with the same conditional
// update semantics as the PostgreSQL store, for queue and scheduler tests.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/postpilot/backend/internal/domain"
	"github.com/postpilot/backend/internal/store"
)

// Store keeps jobs in a mutex-guarded map. Each method is atomic, mirroring the
// single-statement guarantee of the SQL store.
type Store struct {
	mu   sync.Mutex
	jobs map[string]domain.Job

	// FailWith, when set, is returned by every operation. Simulates an
	// unavailable store.
	FailWith error
}

func New() *Store {
	return &Store{jobs: make(map[string]domain.Job)}
}

func (s *Store) Insert(ctx context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.jobs[job.JobID] = *job
	return nil
}

func (s *Store) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &job, nil
}

func (s *Store) List(ctx context.Context, filter store.Filter) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}

	var jobs []domain.Job
	for _, job := range s.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		jobs = append(jobs, job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		}
		return jobs[i].JobID > jobs[j].JobID
	})

	if filter.Cursor != nil {
		after := jobs[:0]
		for _, job := range jobs {
			if job.CreatedAt.Before(filter.Cursor.CreatedAt) ||
				(job.CreatedAt.Equal(filter.Cursor.CreatedAt) && job.JobID < filter.Cursor.JobID) {
				after = append(after, job)
			}
		}
		jobs = after
	}

	if filter.PageSize > 0 && len(jobs) > filter.PageSize+1 {
		jobs = jobs[:filter.PageSize+1]
	}

	return jobs, nil
}

func (s *Store) ListDue(ctx context.Context, now time.Time) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}

	var due []domain.Job
	for _, job := range s.jobs {
		if job.IsDue(now) {
			due = append(due, job)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].ScheduledAt.Time.Before(due[j].ScheduledAt.Time)
	})
	return due, nil
}

func (s *Store) MarkPublishedFrom(ctx context.Context, jobID, fromStatus string, publishedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return false, s.FailWith
	}

	job, ok := s.jobs[jobID]
	if !ok || job.Status != fromStatus {
		return false, nil
	}

	job.Status = domain.JobStatusPublished
	job.ScheduledAt.Valid = true
	job.ScheduledAt.Time = publishedAt
	job.UpdatedAt = publishedAt
	s.jobs[jobID] = job
	return true, nil
}

func (s *Store) Schedule(ctx context.Context, jobID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return false, s.FailWith
	}

	job, ok := s.jobs[jobID]
	if !ok || job.Status != domain.JobStatusCreated {
		return false, nil
	}

	job.Status = domain.JobStatusScheduled
	job.ScheduledAt.Valid = true
	job.ScheduledAt.Time = at
	s.jobs[jobID] = job
	return true, nil
}

func (s *Store) Delete(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	delete(s.jobs, jobID)
	return nil
}
