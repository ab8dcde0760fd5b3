package models

import "time"

// PostLog stores information about one publish attempt to a destination.
type PostLog struct {
	SourceURL       string    `bson:"source_url,omitempty"`
	Caption         string    `bson:"caption,omitempty"`
	PhotoCount      int       `bson:"photo_count"`
	VideoCount      int       `bson:"video_count"`
	DestinationName string    `bson:"destination_name"`
	DestinationID   int64     `bson:"destination_id"`
	OperatorID      int64     `bson:"operator_id,omitempty"`
	Success         bool      `bson:"success"`
	Error           string    `bson:"error,omitempty"`
	PublishedAt     time.Time `bson:"published_at"`
}
