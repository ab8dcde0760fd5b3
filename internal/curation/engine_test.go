package curation

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lombard-poster-bot/internal/media"
	"lombard-poster-bot/internal/session"
)

func newTestEngine() *Engine {
	return NewEngine(Limits{MaxMedia: 10, MaxTextLength: 4096, VideoCapExempt: true})
}

func stubStat(existing ...string) func() {
	prev := statFile
	set := make(map[string]bool, len(existing))
	for _, p := range existing {
		set[p] = true
	}
	statFile = func(path string) (os.FileInfo, error) {
		if set[path] {
			return nil, nil
		}
		return nil, os.ErrNotExist
	}
	return func() { statFile = prev }
}

func TestPopulateOrdersWebBeforeCustom(t *testing.T) {
	defer stubStat("/media/a.jpg", "/media/v.mp4")()
	e := newTestEngine()
	s := session.New(1)

	err := e.Populate(s, "https://example.com/p/1", "caption",
		[]string{"https://cdn/1.jpg", "https://cdn/2.jpg"},
		[]string{"/media/a.jpg"},
		[]string{"/media/v.mp4"})
	require.NoError(t, err)

	require.Len(t, s.SelectedPhotos, 3)
	assert.Equal(t, media.OriginWeb, s.SelectedPhotos[0].Origin)
	assert.Equal(t, media.OriginWeb, s.SelectedPhotos[1].Origin)
	assert.Equal(t, media.OriginCustom, s.SelectedPhotos[2].Origin)
	require.Len(t, s.SelectedVideos, 1)
	assert.Equal(t, "caption", s.CaptionText)
}

func TestPopulateRejectsLongTextBeforeAddingMedia(t *testing.T) {
	e := NewEngine(Limits{MaxMedia: 10, MaxTextLength: 5, VideoCapExempt: true})
	s := session.New(1)

	err := e.Populate(s, "https://example.com/p/1", "too long caption",
		[]string{"https://cdn/1.jpg"}, nil, nil)

	var tooLong *TextTooLongError
	require.ErrorAs(t, err, &tooLong)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, 5, tooLong.Limit)
	assert.Empty(t, s.SelectedPhotos)
	assert.Empty(t, s.CaptionText)
}

func TestAddWebPhotosCapacityComputedAtEntry(t *testing.T) {
	e := NewEngine(Limits{MaxMedia: 3, MaxTextLength: 4096, VideoCapExempt: true})
	s := session.New(1)

	added := e.AddWebPhotos(s, []string{"u1", "u2", "u3", "u4", "u5"})
	assert.Equal(t, 3, added)
	assert.Len(t, s.SelectedPhotos, 3)

	// Full session admits nothing more.
	assert.Equal(t, 0, e.AddWebPhotos(s, []string{"u6"}))
}

func TestAddCustomPhotosSkipsMissingFiles(t *testing.T) {
	defer stubStat("/media/ok.jpg")()
	e := newTestEngine()
	s := session.New(1)

	added := e.AddCustomPhotos(s, []string{"/media/missing.jpg", "/media/ok.jpg"})
	assert.Equal(t, 1, added)
	require.Len(t, s.SelectedPhotos, 1)
	assert.Equal(t, "/media/ok.jpg", s.SelectedPhotos[0].Ref)
}

func TestAddCustomVideosExemptFromCap(t *testing.T) {
	defer stubStat("/media/v1.mp4", "/media/v2.mp4")()
	e := NewEngine(Limits{MaxMedia: 1, MaxTextLength: 4096, VideoCapExempt: true})
	s := session.New(1)
	e.AddWebPhotos(s, []string{"u1"})

	added := e.AddCustomVideos(s, []string{"/media/v1.mp4", "/media/v2.mp4"})
	assert.Equal(t, 2, added)
	assert.Len(t, s.SelectedVideos, 2)
}

func TestAddCustomVideosHonorsCapWhenNotExempt(t *testing.T) {
	defer stubStat("/media/v1.mp4", "/media/v2.mp4")()
	e := NewEngine(Limits{MaxMedia: 2, MaxTextLength: 4096, VideoCapExempt: false})
	s := session.New(1)
	e.AddWebPhotos(s, []string{"u1"})

	added := e.AddCustomVideos(s, []string{"/media/v1.mp4", "/media/v2.mp4"})
	assert.Equal(t, 1, added)
}

func TestReorderRoundTrip(t *testing.T) {
	e := newTestEngine()
	s := session.New(1)
	e.AddWebPhotos(s, []string{"u1", "u2", "u3"})

	e.ReorderDown(s, media.KindPhoto, 0)
	assert.Equal(t, "u2", s.SelectedPhotos[0].Ref)
	e.ReorderUp(s, media.KindPhoto, 1)
	assert.Equal(t, "u1", s.SelectedPhotos[0].Ref)
}

func TestReorderBoundariesAreNoOps(t *testing.T) {
	e := newTestEngine()
	s := session.New(1)
	e.AddWebPhotos(s, []string{"u1", "u2"})

	e.ReorderUp(s, media.KindPhoto, 0)
	e.ReorderDown(s, media.KindPhoto, 1)
	e.ReorderUp(s, media.KindPhoto, -1)
	e.ReorderDown(s, media.KindPhoto, 5)

	assert.Equal(t, "u1", s.SelectedPhotos[0].Ref)
	assert.Equal(t, "u2", s.SelectedPhotos[1].Ref)
}

func TestRemoveAt(t *testing.T) {
	e := newTestEngine()
	s := session.New(1)
	e.AddWebPhotos(s, []string{"u1", "u2", "u3"})

	removed, err := e.RemoveAt(s, media.KindPhoto, 1)
	require.NoError(t, err)
	assert.Equal(t, "u2", removed.Ref)
	require.Len(t, s.SelectedPhotos, 2)
	assert.Equal(t, "u3", s.SelectedPhotos[1].Ref)

	_, err = e.RemoveAt(s, media.KindPhoto, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBulkRemovalDescendingOrder(t *testing.T) {
	defer stubStat("/media/v.mp4")()
	e := newTestEngine()
	s := session.New(1)
	e.AddWebPhotos(s, []string{"u1", "u2", "u3", "u4"})
	e.AddCustomVideos(s, []string{"/media/v.mp4"})

	require.NoError(t, e.ToggleBulkSelection(s, media.KindPhoto, 0))
	require.NoError(t, e.ToggleBulkSelection(s, media.KindPhoto, 2))
	require.NoError(t, e.ToggleBulkSelection(s, media.KindVideo, 0))

	removed := e.ApplyBulkRemoval(s)
	assert.Equal(t, 3, removed)
	require.Len(t, s.SelectedPhotos, 2)
	assert.Equal(t, "u2", s.SelectedPhotos[0].Ref)
	assert.Equal(t, "u4", s.SelectedPhotos[1].Ref)
	assert.Empty(t, s.SelectedVideos)
	assert.Empty(t, s.BulkSet(media.KindPhoto))
	assert.Empty(t, s.BulkSet(media.KindVideo))
}

func TestBulkToggleFlipsMembership(t *testing.T) {
	e := newTestEngine()
	s := session.New(1)
	e.AddWebPhotos(s, []string{"u1"})

	require.NoError(t, e.ToggleBulkSelection(s, media.KindPhoto, 0))
	assert.True(t, s.BulkSet(media.KindPhoto)[0])
	require.NoError(t, e.ToggleBulkSelection(s, media.KindPhoto, 0))
	assert.False(t, s.BulkSet(media.KindPhoto)[0])
	assert.ErrorIs(t, e.ToggleBulkSelection(s, media.KindPhoto, 3), ErrNotFound)
}

func TestApplyBulkRemovalEmptyIsNoOp(t *testing.T) {
	e := newTestEngine()
	s := session.New(1)
	e.AddWebPhotos(s, []string{"u1"})

	assert.Equal(t, 0, e.ApplyBulkRemoval(s))
	assert.Len(t, s.SelectedPhotos, 1)
}

func TestUpdateTextRejectsOverLimitWithoutChange(t *testing.T) {
	e := NewEngine(Limits{MaxMedia: 10, MaxTextLength: 10, VideoCapExempt: true})
	s := session.New(1)
	s.CaptionText = "old"

	err := e.UpdateText(s, strings.Repeat("x", 11))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "old", s.CaptionText)

	require.NoError(t, e.UpdateText(s, "new"))
	assert.Equal(t, "new", s.CaptionText)
}

func TestUpdateTextWithSourceLinkWrapsFirstLine(t *testing.T) {
	e := newTestEngine()
	s := session.New(1)
	s.SourceURL = "https://example.com/p/1"

	require.NoError(t, e.UpdateTextWithSourceLink(s, "Title line\nsecond line\nthird"))
	assert.Equal(t, `<a href="https://example.com/p/1"><b>Title line</b></a>`+"\nsecond line\nthird", s.CaptionText)
}

func TestRenderMarkupPlanBoundaries(t *testing.T) {
	defer stubStat("/media/v.mp4")()
	e := newTestEngine()
	s := session.New(1)
	e.AddWebPhotos(s, []string{"u1", "u2", "u3"})
	e.AddCustomVideos(s, []string{"/media/v.mp4"})

	plan := e.RenderMarkupPlan(s, MarkupOptions{})
	// 4 item rows plus footer and destination rows.
	require.Len(t, plan.Rows, 6)

	first := plan.Rows[0]
	for _, c := range first {
		assert.NotEqual(t, ControlMoveUp, c.Kind)
	}
	last := plan.Rows[2]
	for _, c := range last {
		assert.NotEqual(t, ControlMoveDown, c.Kind)
	}
	// Single video row offers no reorder at all.
	require.Len(t, plan.Rows[3], 1)
	assert.Equal(t, ControlRemove, plan.Rows[3][0].Kind)
	assert.Equal(t, media.KindVideo, plan.Rows[3][0].Media)
}

func TestRenderMarkupPlanPendingRemove(t *testing.T) {
	e := newTestEngine()
	s := session.New(1)
	e.AddWebPhotos(s, []string{"u1", "u2"})

	plan := e.RenderMarkupPlan(s, MarkupOptions{PendingRemove: &ItemRef{Media: media.KindPhoto, Index: 1}})
	row := plan.Rows[1]
	require.Len(t, row, 2)
	assert.Equal(t, ControlConfirmRemove, row[0].Kind)
	assert.Equal(t, ControlCancelRemove, row[1].Kind)
}

func TestRenderMarkupPlanBulkMode(t *testing.T) {
	e := newTestEngine()
	s := session.New(1)
	e.AddWebPhotos(s, []string{"u1", "u2"})
	require.NoError(t, e.ToggleBulkSelection(s, media.KindPhoto, 0))

	plan := e.RenderMarkupPlan(s, MarkupOptions{BulkMode: true})
	require.Len(t, plan.Rows, 3)
	assert.Contains(t, plan.Rows[0][0].Label, "☑")
	assert.Contains(t, plan.Rows[1][1].Label, "☐")
	footer := plan.Rows[2]
	assert.Equal(t, ControlConfirmBulk, footer[0].Kind)
	assert.Equal(t, ControlCancelBulk, footer[1].Kind)
}

func TestBulkRemoveButtonOnlyWithMultipleItems(t *testing.T) {
	e := newTestEngine()
	s := session.New(1)
	e.AddWebPhotos(s, []string{"u1"})

	plan := e.RenderMarkupPlan(s, MarkupOptions{})
	for _, row := range plan.Rows {
		for _, c := range row {
			assert.NotEqual(t, ControlBulkRemove, c.Kind)
		}
	}

	e.AddWebPhotos(s, []string{"u2"})
	plan = e.RenderMarkupPlan(s, MarkupOptions{})
	found := false
	for _, row := range plan.Rows {
		for _, c := range row {
			if c.Kind == ControlBulkRemove {
				found = true
			}
		}
	}
	assert.True(t, found)
}
