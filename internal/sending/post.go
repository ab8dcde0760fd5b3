// Package sending turns a curated session into Telegram transmissions,
// with grouped-album fallback and independent multi-destination delivery.
package sending

import (
	"lombard-poster-bot/internal/media"
	"lombard-poster-bot/internal/session"
)

// Post is an immutable snapshot of what to publish. Deferred jobs and the
// dispatch path work from a Post, never from the live session, so a
// session cleared mid-flight cannot corrupt a send.
type Post struct {
	Caption string
	Photos  []media.Item
	Videos  []media.Item
}

// Snapshot captures the session's caption and working sets. The caller
// must hold the session lock.
func Snapshot(s *session.Session) Post {
	return Post{
		Caption: s.CaptionText,
		Photos:  append([]media.Item(nil), s.SelectedPhotos...),
		Videos:  append([]media.Item(nil), s.SelectedVideos...),
	}
}

// HasContent reports whether the post carries anything worth sending.
func (p Post) HasContent() bool {
	return p.Caption != "" || len(p.Photos) > 0 || len(p.Videos) > 0
}
