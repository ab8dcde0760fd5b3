package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lombard-poster-bot/internal/database/models"
)

// MemoryLinkJobRepository is the in-process LinkJobRepository used when
// Mongo is not configured. Jobs are lost on restart.
type MemoryLinkJobRepository struct {
	mu     sync.Mutex
	nextID int
	jobs   map[string]models.LinkJob
}

// NewMemoryLinkJobRepository creates an empty in-memory job store.
func NewMemoryLinkJobRepository() *MemoryLinkJobRepository {
	return &MemoryLinkJobRepository{jobs: make(map[string]models.LinkJob)}
}

// Enqueue stores a new pending job and returns its ID.
func (m *MemoryLinkJobRepository) Enqueue(_ context.Context, job models.LinkJob) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	now := time.Now()
	job.ID = fmt.Sprintf("mem-%d", m.nextID)
	job.Status = models.LinkJobPending
	job.CreatedAt = now
	job.UpdatedAt = now
	m.jobs[job.ID] = job
	return job.ID, nil
}

// DueJobs returns pending jobs whose RunAt is at or before now.
func (m *MemoryLinkJobRepository) DueJobs(_ context.Context, now time.Time) ([]models.LinkJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []models.LinkJob
	for _, job := range m.jobs {
		if job.Status == models.LinkJobPending && !job.RunAt.After(now) {
			due = append(due, job)
		}
	}
	return due, nil
}

// MarkDone marks a job finished with the given status.
func (m *MemoryLinkJobRepository) MarkDone(_ context.Context, id string, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("link job %s not found", id)
	}
	job.Status = status
	job.UpdatedAt = time.Now()
	m.jobs[id] = job
	return nil
}

// Reschedule pushes a job's RunAt forward and decrements its attempts.
func (m *MemoryLinkJobRepository) Reschedule(_ context.Context, id string, runAt time.Time, attemptsLeft int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("link job %s not found", id)
	}
	job.RunAt = runAt
	job.AttemptsLeft = attemptsLeft
	job.UpdatedAt = time.Now()
	m.jobs[id] = job
	return nil
}
