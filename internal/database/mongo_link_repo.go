package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"lombard-poster-bot/internal/database/models"
)

const linkJobCollection = "link_jobs"

// MongoLinkJobRepository implements LinkJobRepository on MongoDB, so
// queued links survive restarts.
type MongoLinkJobRepository struct {
	db *mongo.Database
}

// NewMongoLinkJobRepository creates a job repository on a connected database.
func NewMongoLinkJobRepository(db *mongo.Database) *MongoLinkJobRepository {
	return &MongoLinkJobRepository{db: db}
}

// Enqueue stores a new pending job and returns its ID.
func (m *MongoLinkJobRepository) Enqueue(ctx context.Context, job models.LinkJob) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	job.ID = primitive.NewObjectID().Hex()
	job.Status = models.LinkJobPending
	job.CreatedAt = now
	job.UpdatedAt = now

	if _, err := m.db.Collection(linkJobCollection).InsertOne(ctx, job); err != nil {
		return "", fmt.Errorf("failed to enqueue link job for %s: %w", job.URL, err)
	}
	return job.ID, nil
}

// DueJobs returns pending jobs whose RunAt is at or before now, oldest
// first.
func (m *MongoLinkJobRepository) DueJobs(ctx context.Context, now time.Time) ([]models.LinkJob, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"status": models.LinkJobPending,
		"run_at": bson.M{"$lte": now},
	}
	cursor, err := m.db.Collection(linkJobCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query due link jobs: %w", err)
	}
	defer cursor.Close(ctx)

	var jobs []models.LinkJob
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode due link jobs: %w", err)
	}
	return jobs, nil
}

// MarkDone marks a job finished with the given status.
func (m *MongoLinkJobRepository) MarkDone(ctx context.Context, id string, status string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}}
	if _, err := m.db.Collection(linkJobCollection).UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("failed to finish link job %s: %w", id, err)
	}
	return nil
}

// Reschedule pushes a job's RunAt forward and decrements its attempts.
func (m *MongoLinkJobRepository) Reschedule(ctx context.Context, id string, runAt time.Time, attemptsLeft int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"run_at":        runAt,
		"attempts_left": attemptsLeft,
		"updated_at":    time.Now(),
	}}
	if _, err := m.db.Collection(linkJobCollection).UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("failed to reschedule link job %s: %w", id, err)
	}
	return nil
}
