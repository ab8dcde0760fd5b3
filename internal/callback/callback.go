// Package callback defines the inline keyboard payload grammar and its
// codec. Handlers never parse payload strings themselves; they decode into
// a typed Action and switch on its Op.
package callback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"lombard-poster-bot/internal/media"
)

// ErrBadPayload marks payloads that do not match the grammar. The press is
// still answered so the button stops spinning, but nothing is executed.
var ErrBadPayload = errors.New("callback: bad payload")

// Op enumerates every recognized callback operation.
type Op int

const (
	OpMoveUp Op = iota
	OpMoveDown
	OpRemove
	OpConfirmRemove
	OpCancelRemove
	OpToggleBulk
	OpBulkRemove
	OpConfirmBulk
	OpCancelBulk
	OpSelectPhotos
	OpConfirmPhotos
	OpEditText
	OpChooseDestination
	OpSendEverywhere
	OpSendSelfOnly
	OpSendSingle
	OpConfirmSend
	OpCancelSend
	OpConfirmBatch
	OpCancelBatch
)

// Action is a decoded callback payload. Media and Index are set for
// per-item operations, ChannelID for OpSendSingle, BatchID for the batch
// confirmation pair.
type Action struct {
	Op        Op
	Media     media.Kind
	Index     int
	ChannelID int64
	BatchID   string
}

// Encode renders an Action back into its wire payload. It is the inverse
// of Decode and is what the markup builders use, so the two sides cannot
// drift apart.
func Encode(a Action) string {
	switch a.Op {
	case OpMoveUp:
		return fmt.Sprintf("move_up_%s_%d", a.Media, a.Index)
	case OpMoveDown:
		return fmt.Sprintf("move_down_%s_%d", a.Media, a.Index)
	case OpRemove:
		return fmt.Sprintf("remove_%s_%d", a.Media, a.Index)
	case OpConfirmRemove:
		return fmt.Sprintf("confirm_remove_%s_%d", a.Media, a.Index)
	case OpCancelRemove:
		return fmt.Sprintf("cancel_remove_%s_%d", a.Media, a.Index)
	case OpToggleBulk:
		return fmt.Sprintf("toggle_remove_%s_%d", a.Media, a.Index)
	case OpBulkRemove:
		return "bulk_remove"
	case OpConfirmBulk:
		return "confirm_bulk_remove"
	case OpCancelBulk:
		return "cancel_bulk_remove"
	case OpSelectPhotos:
		return "select_photos"
	case OpConfirmPhotos:
		return "confirm_photos"
	case OpEditText:
		return "edit_text"
	case OpChooseDestination:
		return "send_to_channel"
	case OpSendEverywhere:
		return "send_everywhere"
	case OpSendSelfOnly:
		return "send_self_only"
	case OpSendSingle:
		return fmt.Sprintf("send_to_%d", a.ChannelID)
	case OpConfirmSend:
		return "confirm_send"
	case OpCancelSend:
		return "cancel_send"
	case OpConfirmBatch:
		return "confirm_batch_" + a.BatchID
	case OpCancelBatch:
		return "cancel_batch_" + a.BatchID
	}
	return ""
}

var literals = map[string]Op{
	"bulk_remove":         OpBulkRemove,
	"confirm_bulk_remove": OpConfirmBulk,
	"cancel_bulk_remove":  OpCancelBulk,
	"select_photos":       OpSelectPhotos,
	"confirm_photos":      OpConfirmPhotos,
	"edit_text":           OpEditText,
	"send_to_channel":     OpChooseDestination,
	"send_everywhere":     OpSendEverywhere,
	"send_self_only":      OpSendSelfOnly,
	"confirm_send":        OpConfirmSend,
	"cancel_send":         OpCancelSend,
}

var itemPrefixes = []struct {
	prefix string
	op     Op
}{
	{"move_up_", OpMoveUp},
	{"move_down_", OpMoveDown},
	{"confirm_remove_", OpConfirmRemove},
	{"cancel_remove_", OpCancelRemove},
	{"toggle_remove_", OpToggleBulk},
	{"remove_", OpRemove},
}

// Decode parses a callback payload into a typed Action. Literal payloads
// are matched before prefixed ones, so "send_to_channel" is never read as
// a "send_to_<id>" with a garbage id.
func Decode(payload string) (Action, error) {
	if op, ok := literals[payload]; ok {
		return Action{Op: op}, nil
	}

	for _, p := range itemPrefixes {
		if rest, ok := strings.CutPrefix(payload, p.prefix); ok {
			kindStr, idxStr, found := strings.Cut(rest, "_")
			if !found {
				return Action{}, fmt.Errorf("%w: %q", ErrBadPayload, payload)
			}
			kind, err := media.ParseKind(kindStr)
			if err != nil {
				return Action{}, fmt.Errorf("%w: %q", ErrBadPayload, payload)
			}
			idx, err := strconv.Atoi(idxStr)
			if err != nil || idx < 0 {
				return Action{}, fmt.Errorf("%w: %q", ErrBadPayload, payload)
			}
			return Action{Op: p.op, Media: kind, Index: idx}, nil
		}
	}

	if rest, ok := strings.CutPrefix(payload, "send_to_"); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return Action{}, fmt.Errorf("%w: %q", ErrBadPayload, payload)
		}
		return Action{Op: OpSendSingle, ChannelID: id}, nil
	}
	if rest, ok := strings.CutPrefix(payload, "confirm_batch_"); ok && rest != "" {
		return Action{Op: OpConfirmBatch, BatchID: rest}, nil
	}
	if rest, ok := strings.CutPrefix(payload, "cancel_batch_"); ok && rest != "" {
		return Action{Op: OpCancelBatch, BatchID: rest}, nil
	}

	return Action{}, fmt.Errorf("%w: %q", ErrBadPayload, payload)
}
