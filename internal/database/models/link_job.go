package models

import "time"

// Link job statuses.
const (
	LinkJobPending = "pending"
	LinkJobDone    = "done"
	LinkJobFailed  = "failed"
)

// LinkJob is one scheduled publish-by-URL task. Jobs survive restarts when
// backed by Mongo; AttemptsLeft drives the retry policy.
type LinkJob struct {
	ID           string    `bson:"_id,omitempty"`
	URL          string    `bson:"url"`
	AttemptsLeft int       `bson:"attempts_left"`
	Status       string    `bson:"status"`
	RunAt        time.Time `bson:"run_at"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}
