package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lombard-poster-bot/internal/database/models"
)

func TestMemoryLinkJobRepositoryLifecycle(t *testing.T) {
	repo := NewMemoryLinkJobRepository()
	ctx := context.Background()
	now := time.Now()

	id, err := repo.Enqueue(ctx, models.LinkJob{URL: "https://example.com/1", AttemptsLeft: 3, RunAt: now.Add(-time.Minute)})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = repo.Enqueue(ctx, models.LinkJob{URL: "https://example.com/2", AttemptsLeft: 3, RunAt: now.Add(time.Hour)})
	require.NoError(t, err)

	due, err := repo.DueJobs(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "https://example.com/1", due[0].URL)
	assert.Equal(t, models.LinkJobPending, due[0].Status)

	require.NoError(t, repo.MarkDone(ctx, id, models.LinkJobDone))
	due, err = repo.DueJobs(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestMemoryLinkJobRepositoryReschedule(t *testing.T) {
	repo := NewMemoryLinkJobRepository()
	ctx := context.Background()
	now := time.Now()

	id, err := repo.Enqueue(ctx, models.LinkJob{URL: "https://example.com/1", AttemptsLeft: 3, RunAt: now})
	require.NoError(t, err)

	require.NoError(t, repo.Reschedule(ctx, id, now.Add(5*time.Minute), 2))

	due, err := repo.DueJobs(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = repo.DueJobs(ctx, now.Add(6*time.Minute))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 2, due[0].AttemptsLeft)
}

func TestMemoryLinkJobRepositoryUnknownID(t *testing.T) {
	repo := NewMemoryLinkJobRepository()
	assert.Error(t, repo.MarkDone(context.Background(), "missing", models.LinkJobDone))
	assert.Error(t, repo.Reschedule(context.Background(), "missing", time.Now(), 1))
}
