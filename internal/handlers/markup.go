package handlers

import (
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"

	"lombard-poster-bot/internal/callback"
	"lombard-poster-bot/internal/curation"
	"lombard-poster-bot/internal/locales"
	"lombard-poster-bot/internal/session"
)

// mainMenuMarkup is the action menu shown after a preview.
func (h *MessageHandler) mainMenuMarkup(loc *i18n.Localizer) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(loc, "BtnEditText", nil, nil)).
				WithCallbackData(callback.Encode(callback.Action{Op: callback.OpEditText})),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(loc, "BtnManagePhotos", nil, nil)).
				WithCallbackData(callback.Encode(callback.Action{Op: callback.OpSelectPhotos})),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(loc, "BtnSendToChannel", nil, nil)).
				WithCallbackData(callback.Encode(callback.Action{Op: callback.OpChooseDestination})),
		),
	)
}

// managementMarkup renders the curation panel from the engine's
// declarative plan.
func (h *MessageHandler) managementMarkup(loc *i18n.Localizer, s *session.Session, opts curation.MarkupOptions) *telego.InlineKeyboardMarkup {
	plan := h.engine.RenderMarkupPlan(s, opts)

	rows := make([][]telego.InlineKeyboardButton, 0, len(plan.Rows)+1)
	for _, row := range plan.Rows {
		buttons := make([]telego.InlineKeyboardButton, 0, len(row))
		for _, control := range row {
			buttons = append(buttons, h.controlButton(loc, control))
		}
		rows = append(rows, buttons)
	}
	if !opts.BulkMode {
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(loc, "BtnConfirmPhotos", nil, nil)).
				WithCallbackData(callback.Encode(callback.Action{Op: callback.OpConfirmPhotos})),
		))
	}
	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (h *MessageHandler) controlButton(loc *i18n.Localizer, control curation.Control) telego.InlineKeyboardButton {
	item := callback.Action{Media: control.Media, Index: control.Index}
	switch control.Kind {
	case curation.ControlMoveUp:
		item.Op = callback.OpMoveUp
		return tu.InlineKeyboardButton("⬆️").WithCallbackData(callback.Encode(item))
	case curation.ControlMoveDown:
		item.Op = callback.OpMoveDown
		return tu.InlineKeyboardButton("⬇️").WithCallbackData(callback.Encode(item))
	case curation.ControlRemove:
		item.Op = callback.OpRemove
		return tu.InlineKeyboardButton("❌ " + control.Label).WithCallbackData(callback.Encode(item))
	case curation.ControlConfirmRemove:
		item.Op = callback.OpConfirmRemove
		return tu.InlineKeyboardButton(locales.GetMessage(loc, "BtnConfirmRemove", nil, nil)).
			WithCallbackData(callback.Encode(item))
	case curation.ControlCancelRemove:
		item.Op = callback.OpCancelRemove
		return tu.InlineKeyboardButton(locales.GetMessage(loc, "BtnCancelRemove", nil, nil)).
			WithCallbackData(callback.Encode(item))
	case curation.ControlToggleBulk:
		item.Op = callback.OpToggleBulk
		return tu.InlineKeyboardButton(control.Label).WithCallbackData(callback.Encode(item))
	case curation.ControlBulkRemove:
		return tu.InlineKeyboardButton(locales.GetMessage(loc, "BtnBulkRemove", nil, nil)).
			WithCallbackData(callback.Encode(callback.Action{Op: callback.OpBulkRemove}))
	case curation.ControlConfirmBulk:
		return tu.InlineKeyboardButton(locales.GetMessage(loc, "BtnBulkApply", nil, nil)).
			WithCallbackData(callback.Encode(callback.Action{Op: callback.OpConfirmBulk}))
	case curation.ControlCancelBulk:
		return tu.InlineKeyboardButton(locales.GetMessage(loc, "BtnBack", nil, nil)).
			WithCallbackData(callback.Encode(callback.Action{Op: callback.OpCancelBulk}))
	case curation.ControlEditText:
		return tu.InlineKeyboardButton(locales.GetMessage(loc, "BtnEditText", nil, nil)).
			WithCallbackData(callback.Encode(callback.Action{Op: callback.OpEditText}))
	case curation.ControlChooseDestination:
		return tu.InlineKeyboardButton(locales.GetMessage(loc, "BtnSendToChannel", nil, nil)).
			WithCallbackData(callback.Encode(callback.Action{Op: callback.OpChooseDestination}))
	}
	return tu.InlineKeyboardButton("?").WithCallbackData("noop")
}

// destinationMarkup lists the publish options: everywhere, self-test and
// each configured channel.
func (h *MessageHandler) destinationMarkup(loc *i18n.Localizer) *telego.InlineKeyboardMarkup {
	rows := [][]telego.InlineKeyboardButton{
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(loc, "BtnSendEverywhere", nil, nil)).
				WithCallbackData(callback.Encode(callback.Action{Op: callback.OpSendEverywhere})),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(loc, "BtnSendSelfOnly", nil, nil)).
				WithCallbackData(callback.Encode(callback.Action{Op: callback.OpSendSelfOnly})),
		),
	}
	for _, d := range h.destinations() {
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(d.Name).
				WithCallbackData(callback.Encode(callback.Action{Op: callback.OpSendSingle, ChannelID: d.ChatID})),
		))
	}
	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// sendConfirmMarkup is the final yes/no before dispatch.
func (h *MessageHandler) sendConfirmMarkup(loc *i18n.Localizer) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(loc, "BtnConfirmSend", nil, nil)).
				WithCallbackData(callback.Encode(callback.Action{Op: callback.OpConfirmSend})),
			tu.InlineKeyboardButton(locales.GetMessage(loc, "BtnCancelSend", nil, nil)).
				WithCallbackData(callback.Encode(callback.Action{Op: callback.OpCancelSend})),
		),
	)
}

// batchConfirmMarkup confirms or cancels a parsed /addlinks batch.
func (h *MessageHandler) batchConfirmMarkup(loc *i18n.Localizer, batchID string) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(loc, "BtnConfirmBatch", nil, nil)).
				WithCallbackData(callback.Encode(callback.Action{Op: callback.OpConfirmBatch, BatchID: batchID})),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(loc, "BtnCancelBatch", nil, nil)).
				WithCallbackData(callback.Encode(callback.Action{Op: callback.OpCancelBatch, BatchID: batchID})),
		),
	)
}
