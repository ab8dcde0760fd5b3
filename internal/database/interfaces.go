package database

import (
	"context"
	"time"

	"lombard-poster-bot/internal/database/models"
)

// PostLogger defines the interface for logging publish attempts.
type PostLogger interface {
	// LogPublishedPost records one publish attempt to one destination.
	LogPublishedPost(ctx context.Context, entry models.PostLog) error
}

// LinkJobRepository stores scheduled link-publishing jobs.
type LinkJobRepository interface {
	// Enqueue stores a new pending job and returns its ID.
	Enqueue(ctx context.Context, job models.LinkJob) (string, error)
	// DueJobs returns pending jobs whose RunAt is at or before now.
	DueJobs(ctx context.Context, now time.Time) ([]models.LinkJob, error)
	// MarkDone marks a job finished with the given status.
	MarkDone(ctx context.Context, id string, status string) error
	// Reschedule pushes a job's RunAt forward and decrements its attempts.
	Reschedule(ctx context.Context, id string, runAt time.Time, attemptsLeft int) error
}
