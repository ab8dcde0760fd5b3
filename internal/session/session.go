package session

import (
	"sync"

	"lombard-poster-bot/internal/media"
)

// Phase tracks where a chat currently is in the curation flow.
type Phase string

const (
	PhaseIdle               Phase = ""
	PhaseCurating           Phase = "curating"
	PhaseChoosingDestination Phase = "choosing_destination"
	PhaseConfirmingSend     Phase = "confirming_send"
)

// DestinationMode selects how a confirmed post is fanned out.
type DestinationMode string

const (
	SendEverywhere DestinationMode = "everywhere"
	SendSelfOnly   DestinationMode = "self_only"
	SendSingle     DestinationMode = "single"
)

// DestinationChoice is the pending send target picked by the operator.
// ChannelID is meaningful only for SendSingle.
type DestinationChoice struct {
	Mode      DestinationMode
	ChannelID int64
}

// Session is the per-chat mutable curation state. All fields are guarded by
// the session's own mutex: handlers must hold Lock for the whole duration of
// a mutating event, which gives the per-chat exclusive-mutation guarantee
// without any cross-chat locking.
type Session struct {
	mu sync.Mutex

	ChatID    int64
	SourceURL string

	// CaptionText is rendered HTML: title link, bolded fields, contact block.
	CaptionText string

	// AllPhotos/AllVideos are the immutable discovery record; the Selected
	// lists are the mutable working sets the curation operations act on.
	AllPhotos      []media.Item
	SelectedPhotos []media.Item
	AllVideos      []media.Item
	SelectedVideos []media.Item

	// Pending multi-select for bulk removal, keyed by current selected index.
	BulkRemovePhotos map[int]bool
	BulkRemoveVideos map[int]bool

	// PendingDestination must be set before the confirm/cancel step.
	PendingDestination *DestinationChoice

	// AwaitingTextEdit marks that the next free-text message from this chat
	// replaces the caption (the "register next step" continuation).
	AwaitingTextEdit bool

	Phase Phase

	// TransientMessageIDs collects bot messages to delete on cleanup.
	TransientMessageIDs []int
}

// New creates an empty session for a chat.
func New(chatID int64) *Session {
	return &Session{
		ChatID:           chatID,
		BulkRemovePhotos: make(map[int]bool),
		BulkRemoveVideos: make(map[int]bool),
	}
}

// Lock acquires the per-chat mutation lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-chat mutation lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Selected returns the mutable working set for the given kind.
func (s *Session) Selected(kind media.Kind) []media.Item {
	if kind == media.KindVideo {
		return s.SelectedVideos
	}
	return s.SelectedPhotos
}

// SetSelected replaces the working set for the given kind.
func (s *Session) SetSelected(kind media.Kind, items []media.Item) {
	if kind == media.KindVideo {
		s.SelectedVideos = items
		return
	}
	s.SelectedPhotos = items
}

// BulkSet returns the pending bulk-removal set for the given kind.
func (s *Session) BulkSet(kind media.Kind) map[int]bool {
	if kind == media.KindVideo {
		return s.BulkRemoveVideos
	}
	return s.BulkRemovePhotos
}

// SelectedCount is the total size of both working sets.
func (s *Session) SelectedCount() int {
	return len(s.SelectedPhotos) + len(s.SelectedVideos)
}

// HasMedia reports whether anything is left to publish besides text.
func (s *Session) HasMedia() bool {
	return s.SelectedCount() > 0
}

// RememberMessage records a bot message id for later cleanup.
func (s *Session) RememberMessage(messageID int) {
	s.TransientMessageIDs = append(s.TransientMessageIDs, messageID)
}

// ClearBulkSelection drops both pending bulk-removal sets.
func (s *Session) ClearBulkSelection() {
	s.BulkRemovePhotos = make(map[int]bool)
	s.BulkRemoveVideos = make(map[int]bool)
}

// Reset returns the session to its initial empty state. The session object
// itself stays registered in the store; callers decide whether to Delete it.
func (s *Session) Reset() {
	s.SourceURL = ""
	s.CaptionText = ""
	s.AllPhotos = nil
	s.SelectedPhotos = nil
	s.AllVideos = nil
	s.SelectedVideos = nil
	s.PendingDestination = nil
	s.AwaitingTextEdit = false
	s.Phase = PhaseIdle
	s.TransientMessageIDs = nil
	s.ClearBulkSelection()
}
