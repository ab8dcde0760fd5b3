package curation

import (
	"log"
	"os"
	"sort"
	"strings"

	"lombard-poster-bot/internal/media"
	"lombard-poster-bot/internal/session"
)

// statFile is swapped out in tests to avoid touching the real filesystem.
var statFile = os.Stat

// Limits holds the configured curation bounds.
type Limits struct {
	// MaxMedia caps the combined selected photo+video count. Adds beyond
	// the cap are silently truncated, never an error.
	MaxMedia int
	// MaxTextLength caps the caption; violating edits are rejected whole.
	MaxTextLength int
	// VideoCapExempt keeps custom videos outside the MaxMedia cap. The
	// upstream behavior capped only photo lists; this makes that policy an
	// explicit configuration choice instead of an accident.
	VideoCapExempt bool
}

// Engine implements the curation operations on a Session. It is stateless
// apart from the limits, so one instance serves every chat.
type Engine struct {
	limits Limits
}

// NewEngine creates an engine with the given limits.
func NewEngine(limits Limits) *Engine {
	return &Engine{limits: limits}
}

// Limits returns the configured bounds (used by diagnostics output).
func (e *Engine) Limits() Limits { return e.limits }

// ValidateText checks a candidate caption against the length limit.
func (e *Engine) ValidateText(text string) error {
	if len([]rune(text)) > e.limits.MaxTextLength {
		return &TextTooLongError{Length: len([]rune(text)), Limit: e.limits.MaxTextLength}
	}
	return nil
}

// Populate fills a fresh session from a scrape result plus the configured
// custom media. It fails before committing anything if the scraped text is
// over the limit. Photos are admitted web-first, then custom, within the
// remaining capacity; custom videos follow the VideoCapExempt policy.
func (e *Engine) Populate(s *session.Session, sourceURL, captionHTML string, webPhotoURLs, customPhotoPaths, customVideoPaths []string) error {
	if err := e.ValidateText(captionHTML); err != nil {
		return err
	}

	s.SourceURL = sourceURL
	s.CaptionText = captionHTML

	e.AddWebPhotos(s, webPhotoURLs)
	e.AddCustomPhotos(s, customPhotoPaths)
	e.AddCustomVideos(s, customVideoPaths)
	return nil
}

// AddWebPhotos appends scraped photo URLs to the discovery record and the
// working set. Capacity is computed once at entry, so a call always admits
// exactly min(free slots, offered) items. Returns how many were added.
func (e *Engine) AddWebPhotos(s *session.Session, urls []string) int {
	slots := e.freeSlots(s)
	added := 0
	for _, url := range urls {
		if added >= slots {
			break
		}
		item := media.WebPhoto(url)
		s.AllPhotos = append(s.AllPhotos, item)
		s.SelectedPhotos = append(s.SelectedPhotos, item)
		added++
	}
	return added
}

// AddCustomPhotos appends configured local photos, skipping missing files
// with a warning. Capacity is computed once at entry, same as web photos.
func (e *Engine) AddCustomPhotos(s *session.Session, paths []string) int {
	slots := e.freeSlots(s)
	added := 0
	for _, path := range paths {
		if added >= slots {
			break
		}
		if _, err := statFile(path); err != nil {
			log.Printf("[Curation Chat:%d] Skipping missing custom photo %s: %v", s.ChatID, path, err)
			continue
		}
		item := media.CustomPhoto(path)
		s.AllPhotos = append(s.AllPhotos, item)
		s.SelectedPhotos = append(s.SelectedPhotos, item)
		added++
	}
	return added
}

// AddCustomVideos appends configured local videos. When VideoCapExempt is
// set the media capacity does not apply to videos.
func (e *Engine) AddCustomVideos(s *session.Session, paths []string) int {
	slots := len(paths)
	if !e.limits.VideoCapExempt {
		slots = e.freeSlots(s)
	}
	added := 0
	for _, path := range paths {
		if added >= slots {
			break
		}
		if _, err := statFile(path); err != nil {
			log.Printf("[Curation Chat:%d] Skipping missing custom video %s: %v", s.ChatID, path, err)
			continue
		}
		item := media.CustomVideo(path)
		s.AllVideos = append(s.AllVideos, item)
		s.SelectedVideos = append(s.SelectedVideos, item)
		added++
	}
	return added
}

func (e *Engine) freeSlots(s *session.Session) int {
	free := e.limits.MaxMedia - s.SelectedCount()
	if free < 0 {
		return 0
	}
	return free
}

// ReorderUp swaps the item at index with its predecessor in the matching
// working set. A boundary or out-of-range index is a no-op, not an error.
func (e *Engine) ReorderUp(s *session.Session, kind media.Kind, index int) {
	items := s.Selected(kind)
	if index <= 0 || index >= len(items) {
		return
	}
	items[index-1], items[index] = items[index], items[index-1]
}

// ReorderDown swaps the item at index with its successor.
func (e *Engine) ReorderDown(s *session.Session, kind media.Kind, index int) {
	items := s.Selected(kind)
	if index < 0 || index >= len(items)-1 {
		return
	}
	items[index], items[index+1] = items[index+1], items[index]
}

// RemoveAt removes and returns the item at index from the matching working
// set. Out-of-range indices yield ErrNotFound so the UI can tell the user
// the removal failed.
func (e *Engine) RemoveAt(s *session.Session, kind media.Kind, index int) (media.Item, error) {
	items := s.Selected(kind)
	if index < 0 || index >= len(items) {
		return media.Item{}, ErrNotFound
	}
	removed := items[index]
	s.SetSelected(kind, append(items[:index:index], items[index+1:]...))
	return removed, nil
}

// ToggleBulkSelection flips index membership in the matching pending
// bulk-removal set.
func (e *Engine) ToggleBulkSelection(s *session.Session, kind media.Kind, index int) error {
	if index < 0 || index >= len(s.Selected(kind)) {
		return ErrNotFound
	}
	set := s.BulkSet(kind)
	if set[index] {
		delete(set, index)
	} else {
		set[index] = true
	}
	return nil
}

// ApplyBulkRemoval removes every pending index from both working sets in
// descending order, so earlier removals cannot shift the indices of later
// ones, then clears both pending sets. Calling it with nothing pending is
// a harmless no-op. Returns the number of removed items.
func (e *Engine) ApplyBulkRemoval(s *session.Session) int {
	removed := 0
	removed += e.applyBulkRemoval(s, media.KindPhoto)
	removed += e.applyBulkRemoval(s, media.KindVideo)
	s.ClearBulkSelection()
	return removed
}

func (e *Engine) applyBulkRemoval(s *session.Session, kind media.Kind) int {
	set := s.BulkSet(kind)
	if len(set) == 0 {
		return 0
	}
	indices := make([]int, 0, len(set))
	for idx := range set {
		indices = append(indices, idx)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))

	removed := 0
	for _, idx := range indices {
		if _, err := e.RemoveAt(s, kind, idx); err == nil {
			removed++
		}
	}
	return removed
}

// UpdateText replaces the caption, rejecting over-limit text and leaving
// the session unchanged in that case.
func (e *Engine) UpdateText(s *session.Session, text string) error {
	if err := e.ValidateText(text); err != nil {
		return err
	}
	s.CaptionText = text
	return nil
}

// UpdateTextWithSourceLink replaces the caption with operator-supplied text
// whose first line is wrapped as a hyperlink back to the source page; the
// remaining lines are kept verbatim. This keeps the "always attach source
// link" policy even across manual edits.
func (e *Engine) UpdateTextWithSourceLink(s *session.Session, text string) error {
	linked := text
	if s.SourceURL != "" {
		first, rest, hasRest := strings.Cut(text, "\n")
		linked = `<a href="` + s.SourceURL + `"><b>` + first + `</b></a>`
		if hasRest {
			linked += "\n" + rest
		}
	}
	return e.UpdateText(s, linked)
}
