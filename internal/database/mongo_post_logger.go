package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"lombard-poster-bot/internal/database/models"
)

const postLogCollection = "post_logs"

// MongoPostLogger implements PostLogger on MongoDB.
type MongoPostLogger struct {
	db *mongo.Database
}

// NewMongoPostLogger creates a post logger on a connected database.
func NewMongoPostLogger(db *mongo.Database) *MongoPostLogger {
	return &MongoPostLogger{db: db}
}

// LogPublishedPost writes one publish-attempt record. The write has its
// own timeout so a slow database never stalls a send.
func (m *MongoPostLogger) LogPublishedPost(ctx context.Context, entry models.PostLog) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if entry.PublishedAt.IsZero() {
		entry.PublishedAt = time.Now()
	}
	if _, err := m.db.Collection(postLogCollection).InsertOne(ctx, entry); err != nil {
		wrappedErr := fmt.Errorf("failed to insert post log into collection '%s': %w", postLogCollection, err)
		log.Printf("%v", wrappedErr)
		return wrappedErr
	}
	return nil
}

// LogPostLogger is the fallback PostLogger when Mongo is not configured;
// attempts end up in the process log only.
type LogPostLogger struct{}

// LogPublishedPost writes the attempt to the process log.
func (LogPostLogger) LogPublishedPost(_ context.Context, entry models.PostLog) error {
	log.Printf("[PostLog] dest=%s(%d) photos=%d videos=%d success=%t err=%q",
		entry.DestinationName, entry.DestinationID, entry.PhotoCount, entry.VideoCount, entry.Success, entry.Error)
	return nil
}
