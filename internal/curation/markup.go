package curation

import (
	"fmt"

	"lombard-poster-bot/internal/media"
	"lombard-poster-bot/internal/session"
)

// ControlKind identifies what a markup control does. The handler layer
// translates these into concrete inline keyboard buttons; the engine only
// decides which controls exist for the current session state.
type ControlKind int

const (
	ControlMoveUp ControlKind = iota
	ControlMoveDown
	ControlRemove
	ControlConfirmRemove
	ControlCancelRemove
	ControlToggleBulk
	ControlBulkRemove
	ControlConfirmBulk
	ControlCancelBulk
	ControlEditText
	ControlChooseDestination
)

// Control is one button in the curation panel.
type Control struct {
	Kind  ControlKind
	Media media.Kind // valid for per-item controls
	Index int        // valid for per-item controls
	Label string
}

// Row is one keyboard row.
type Row []Control

// Plan is the full declarative layout of the curation panel.
type Plan struct {
	Rows []Row
}

// MarkupOptions adjusts how RenderMarkupPlan lays out per-item controls.
type MarkupOptions struct {
	// PendingRemove marks one item as awaiting removal confirmation; its
	// row shows confirm/cancel instead of the normal controls.
	PendingRemove *ItemRef
	// BulkMode swaps per-item remove buttons for bulk toggles and the
	// footer for confirm/cancel bulk controls.
	BulkMode bool
}

// ItemRef addresses one item in a working set.
type ItemRef struct {
	Media media.Kind
	Index int
}

// RenderMarkupPlan builds the curation panel layout for the session's
// current working sets. Photos are listed before videos, one row per item.
// First items get no move-up control and last items no move-down, so the
// panel never offers a no-op reorder.
func (e *Engine) RenderMarkupPlan(s *session.Session, opts MarkupOptions) Plan {
	var plan Plan
	plan.Rows = append(plan.Rows, e.itemRows(s, media.KindPhoto, opts)...)
	plan.Rows = append(plan.Rows, e.itemRows(s, media.KindVideo, opts)...)

	if opts.BulkMode {
		plan.Rows = append(plan.Rows, Row{
			{Kind: ControlConfirmBulk, Label: fmt.Sprintf("confirm (%d)", len(s.BulkSet(media.KindPhoto))+len(s.BulkSet(media.KindVideo)))},
			{Kind: ControlCancelBulk},
		})
		return plan
	}

	var footer Row
	if s.SelectedCount() > 1 {
		footer = append(footer, Control{Kind: ControlBulkRemove})
	}
	footer = append(footer, Control{Kind: ControlEditText})
	plan.Rows = append(plan.Rows, footer)
	plan.Rows = append(plan.Rows, Row{{Kind: ControlChooseDestination}})
	return plan
}

func (e *Engine) itemRows(s *session.Session, kind media.Kind, opts MarkupOptions) []Row {
	items := s.Selected(kind)
	bulk := s.BulkSet(kind)
	rows := make([]Row, 0, len(items))
	for i, item := range items {
		label := fmt.Sprintf("%d. %s %s", i+1, kindNoun(kind), item.DisplayName())

		if opts.PendingRemove != nil && opts.PendingRemove.Media == kind && opts.PendingRemove.Index == i {
			rows = append(rows, Row{
				{Kind: ControlConfirmRemove, Media: kind, Index: i, Label: label},
				{Kind: ControlCancelRemove, Media: kind, Index: i},
			})
			continue
		}

		var row Row
		if i > 0 {
			row = append(row, Control{Kind: ControlMoveUp, Media: kind, Index: i})
		}
		if opts.BulkMode {
			mark := "☐"
			if bulk[i] {
				mark = "☑"
			}
			row = append(row, Control{Kind: ControlToggleBulk, Media: kind, Index: i, Label: mark + " " + label})
		} else {
			row = append(row, Control{Kind: ControlRemove, Media: kind, Index: i, Label: label})
		}
		if i < len(items)-1 {
			row = append(row, Control{Kind: ControlMoveDown, Media: kind, Index: i})
		}
		rows = append(rows, row)
	}
	return rows
}

func kindNoun(kind media.Kind) string {
	if kind == media.KindVideo {
		return "Видео"
	}
	return "Фото"
}
