package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lombard-poster-bot/internal/database"
	"lombard-poster-bot/internal/database/models"
)

type publishRecorder struct {
	mu    sync.Mutex
	urls  []string
	fail  bool
	calls int
}

func (r *publishRecorder) publish(_ context.Context, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.urls = append(r.urls, url)
	if r.fail {
		return errors.New("gateway down")
	}
	return nil
}

func (r *publishRecorder) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestScheduleLinksStaggersRunTimes(t *testing.T) {
	repo := database.NewMemoryLinkJobRepository()
	s := New(repo, (&publishRecorder{}).publish)

	queued, err := s.ScheduleLinks(context.Background(), []string{
		"https://example.com/1",
		"https://example.com/2",
		"https://example.com/3",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, queued)

	due, err := repo.DueJobs(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "https://example.com/1", due[0].URL)
	assert.Equal(t, MaxRetries, due[0].AttemptsLeft)

	due, err = repo.DueJobs(context.Background(), time.Now().Add(3*time.Minute))
	require.NoError(t, err)
	assert.Len(t, due, 3)
}

func TestRunPublishesDueJobs(t *testing.T) {
	repo := database.NewMemoryLinkJobRepository()
	rec := &publishRecorder{}
	s := New(repo, rec.publish)
	s.pollInterval = 10 * time.Millisecond

	_, err := repo.Enqueue(context.Background(), models.LinkJob{
		URL: "https://example.com/due", AttemptsLeft: MaxRetries, RunAt: time.Now().Add(-time.Second),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	assert.Equal(t, 1, rec.callCount())
	due, err := repo.DueJobs(context.Background(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestRunExhaustsRetriesThenFails(t *testing.T) {
	repo := database.NewMemoryLinkJobRepository()
	rec := &publishRecorder{fail: true}
	s := New(repo, rec.publish)
	s.pollInterval = 10 * time.Millisecond
	s.retryDelay = 20 * time.Millisecond

	_, err := repo.Enqueue(context.Background(), models.LinkJob{
		URL: "https://example.com/bad", AttemptsLeft: 2, RunAt: time.Now().Add(-time.Second),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	assert.Equal(t, 2, rec.callCount())
	// The job is failed, not pending, so nothing is due even far ahead.
	due, err := repo.DueJobs(context.Background(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)
}
