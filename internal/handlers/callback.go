package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/mymmrac/telego"
	"github.com/nicksnyder/go-i18n/v2/i18n"

	"lombard-poster-bot/internal/callback"
	"lombard-poster-bot/internal/curation"
	"lombard-poster-bot/internal/locales"
	"lombard-poster-bot/internal/sending"
	"lombard-poster-bot/internal/session"
	"lombard-poster-bot/pkg/telegoapi"
)

// HandleCallbackQuery processes every inline keyboard press. Each press
// gets exactly one answerCallbackQuery, optionally with a toast.
func (h *MessageHandler) HandleCallbackQuery(ctx context.Context, bot telegoapi.BotAPI, query telego.CallbackQuery) error {
	loc := h.getLocalizer(&query.From)

	if !h.auth.IsOperator(query.From.ID) {
		return h.answerCallback(ctx, bot, query.ID, locales.GetMessage(loc, "MsgAccessDenied", nil, nil), true)
	}

	action, err := callback.Decode(query.Data)
	if err != nil {
		log.Printf("[Callback User:%d] Undecodable payload %q: %v", query.From.ID, query.Data, err)
		return h.answerCallback(ctx, bot, query.ID, locales.GetMessage(loc, "MsgBadCallback", nil, nil), false)
	}

	var chatID int64
	var messageID int
	if query.Message != nil {
		if msg, ok := query.Message.(*telego.Message); ok && msg != nil {
			chatID = msg.Chat.ID
			messageID = msg.MessageID
		}
	}
	if chatID == 0 {
		log.Printf("[Callback User:%d] No accessible message for payload %q", query.From.ID, query.Data)
		return h.answerCallback(ctx, bot, query.ID, "", false)
	}

	// Batch confirmations do not depend on a curation session.
	switch action.Op {
	case callback.OpConfirmBatch, callback.OpCancelBatch:
		return h.handleBatchCallback(ctx, bot, query.ID, chatID, messageID, loc, action)
	}

	s, ok := h.store.Get(chatID)
	if !ok {
		return h.answerCallback(ctx, bot, query.ID, locales.GetMessage(loc, "MsgSessionExpired", nil, nil), true)
	}

	switch action.Op {
	case callback.OpMoveUp, callback.OpMoveDown:
		return h.handleReorder(ctx, bot, query.ID, chatID, messageID, loc, s, action)
	case callback.OpRemove:
		return h.handleRemoveRequest(ctx, bot, query.ID, chatID, messageID, loc, s, action)
	case callback.OpConfirmRemove:
		return h.handleRemoveConfirm(ctx, bot, query.ID, chatID, messageID, loc, s, action)
	case callback.OpCancelRemove:
		return h.handleRemoveCancel(ctx, bot, query.ID, chatID, messageID, loc, s)
	case callback.OpSelectPhotos:
		return h.handleSelectPhotos(ctx, bot, query.ID, chatID, messageID, loc, s)
	case callback.OpToggleBulk:
		return h.handleToggleBulk(ctx, bot, query.ID, chatID, messageID, loc, s, action)
	case callback.OpBulkRemove:
		return h.handleBulkStart(ctx, bot, query.ID, chatID, messageID, loc, s)
	case callback.OpConfirmBulk:
		return h.handleBulkConfirm(ctx, bot, query.ID, chatID, messageID, loc, s)
	case callback.OpCancelBulk:
		return h.handleBulkCancel(ctx, bot, query.ID, chatID, messageID, loc, s)
	case callback.OpConfirmPhotos:
		return h.handleConfirmPhotos(ctx, bot, query.ID, chatID, loc, s)
	case callback.OpEditText:
		return h.handleEditTextRequest(ctx, bot, query.ID, chatID, loc, s)
	case callback.OpChooseDestination:
		return h.handleChooseDestination(ctx, bot, query.ID, chatID, messageID, loc, s)
	case callback.OpSendEverywhere:
		return h.handleDestinationPick(ctx, bot, query.ID, chatID, messageID, loc, s,
			session.DestinationChoice{Mode: session.SendEverywhere})
	case callback.OpSendSelfOnly:
		return h.handleDestinationPick(ctx, bot, query.ID, chatID, messageID, loc, s,
			session.DestinationChoice{Mode: session.SendSelfOnly})
	case callback.OpSendSingle:
		if _, ok := h.destinationByID(action.ChannelID); !ok {
			return h.answerCallback(ctx, bot, query.ID, locales.GetMessage(loc, "MsgErrorGeneral", nil, nil), true)
		}
		return h.handleDestinationPick(ctx, bot, query.ID, chatID, messageID, loc, s,
			session.DestinationChoice{Mode: session.SendSingle, ChannelID: action.ChannelID})
	case callback.OpConfirmSend:
		return h.handleConfirmSend(ctx, bot, query.ID, chatID, messageID, loc, s)
	case callback.OpCancelSend:
		return h.handleCancelSend(ctx, bot, query.ID, chatID, messageID, loc, s)
	}

	log.Printf("[Callback Chat:%d] Unhandled op for payload %q", chatID, query.Data)
	return h.answerCallback(ctx, bot, query.ID, "", false)
}

func (h *MessageHandler) handleReorder(ctx context.Context, bot telegoapi.BotAPI, queryID string, chatID int64, messageID int, loc *i18n.Localizer, s *session.Session, action callback.Action) error {
	s.Lock()
	if action.Op == callback.OpMoveUp {
		h.engine.ReorderUp(s, action.Media, action.Index)
	} else {
		h.engine.ReorderDown(s, action.Media, action.Index)
	}
	markup := h.managementMarkup(loc, s, curation.MarkupOptions{})
	s.Unlock()

	h.editMarkup(ctx, bot, chatID, messageID, markup)
	return h.answerCallback(ctx, bot, queryID, "", false)
}

func (h *MessageHandler) handleRemoveRequest(ctx context.Context, bot telegoapi.BotAPI, queryID string, chatID int64, messageID int, loc *i18n.Localizer, s *session.Session, action callback.Action) error {
	s.Lock()
	items := s.Selected(action.Media)
	var name string
	var markup *telego.InlineKeyboardMarkup
	if action.Index >= 0 && action.Index < len(items) {
		name = items[action.Index].DisplayName()
		markup = h.managementMarkup(loc, s, curation.MarkupOptions{
			PendingRemove: &curation.ItemRef{Media: action.Media, Index: action.Index},
		})
	}
	s.Unlock()

	if name == "" {
		return h.answerCallback(ctx, bot, queryID, locales.GetMessage(loc, "MsgBadIndex", nil, nil), true)
	}

	text := locales.GetMessage(loc, "MsgRemoveConfirm", map[string]interface{}{
		"Item": name, "Index": action.Index + 1,
	}, nil)
	h.editText(ctx, bot, chatID, messageID, text, markup)
	return h.answerCallback(ctx, bot, queryID, "", false)
}

func (h *MessageHandler) handleRemoveConfirm(ctx context.Context, bot telegoapi.BotAPI, queryID string, chatID int64, messageID int, loc *i18n.Localizer, s *session.Session, action callback.Action) error {
	s.Lock()
	_, err := h.engine.RemoveAt(s, action.Media, action.Index)
	markup := h.managementMarkup(loc, s, curation.MarkupOptions{})
	s.Unlock()

	if err != nil {
		if errors.Is(err, curation.ErrNotFound) {
			return h.answerCallback(ctx, bot, queryID, locales.GetMessage(loc, "MsgBadIndex", nil, nil), true)
		}
		return h.answerCallback(ctx, bot, queryID, locales.GetMessage(loc, "MsgErrorGeneral", nil, nil), true)
	}

	h.editText(ctx, bot, chatID, messageID, locales.GetMessage(loc, "MsgUpdatedMediaList", nil, nil), markup)
	return h.answerCallback(ctx, bot, queryID, locales.GetMessage(loc, "MsgItemRemoved", nil, nil), false)
}

func (h *MessageHandler) handleRemoveCancel(ctx context.Context, bot telegoapi.BotAPI, queryID string, chatID int64, messageID int, loc *i18n.Localizer, s *session.Session) error {
	s.Lock()
	markup := h.managementMarkup(loc, s, curation.MarkupOptions{})
	s.Unlock()

	h.editText(ctx, bot, chatID, messageID, locales.GetMessage(loc, "MsgPhotoManage", nil, nil), markup)
	return h.answerCallback(ctx, bot, queryID, locales.GetMessage(loc, "MsgRemoveCanceled", nil, nil), false)
}

func (h *MessageHandler) handleSelectPhotos(ctx context.Context, bot telegoapi.BotAPI, queryID string, chatID int64, messageID int, loc *i18n.Localizer, s *session.Session) error {
	s.Lock()
	s.ClearBulkSelection()
	markup := h.managementMarkup(loc, s, curation.MarkupOptions{})
	s.Unlock()

	h.editText(ctx, bot, chatID, messageID, locales.GetMessage(loc, "MsgPhotoManage", nil, nil), markup)
	return h.answerCallback(ctx, bot, queryID, "", false)
}

func (h *MessageHandler) handleToggleBulk(ctx context.Context, bot telegoapi.BotAPI, queryID string, chatID int64, messageID int, loc *i18n.Localizer, s *session.Session, action callback.Action) error {
	s.Lock()
	err := h.engine.ToggleBulkSelection(s, action.Media, action.Index)
	markup := h.managementMarkup(loc, s, curation.MarkupOptions{BulkMode: true})
	s.Unlock()

	if err != nil {
		return h.answerCallback(ctx, bot, queryID, locales.GetMessage(loc, "MsgBadIndex", nil, nil), true)
	}
	h.editMarkup(ctx, bot, chatID, messageID, markup)
	return h.answerCallback(ctx, bot, queryID, "", false)
}

func (h *MessageHandler) handleBulkStart(ctx context.Context, bot telegoapi.BotAPI, queryID string, chatID int64, messageID int, loc *i18n.Localizer, s *session.Session) error {
	s.Lock()
	s.ClearBulkSelection()
	markup := h.managementMarkup(loc, s, curation.MarkupOptions{BulkMode: true})
	s.Unlock()

	h.editText(ctx, bot, chatID, messageID, locales.GetMessage(loc, "MsgBulkChoose", nil, nil), markup)
	return h.answerCallback(ctx, bot, queryID, "", false)
}

func (h *MessageHandler) handleBulkConfirm(ctx context.Context, bot telegoapi.BotAPI, queryID string, chatID int64, messageID int, loc *i18n.Localizer, s *session.Session) error {
	s.Lock()
	count := h.engine.ApplyBulkRemoval(s)
	markup := h.managementMarkup(loc, s, curation.MarkupOptions{})
	s.Unlock()

	if count == 0 {
		return h.answerCallback(ctx, bot, queryID, locales.GetMessage(loc, "MsgBulkNothingSelected", nil, nil), true)
	}

	text := locales.GetMessage(loc, "MsgBulkRemoved", map[string]interface{}{"Count": count}, nil)
	h.editText(ctx, bot, chatID, messageID, text, markup)
	return h.answerCallback(ctx, bot, queryID, "", false)
}

func (h *MessageHandler) handleBulkCancel(ctx context.Context, bot telegoapi.BotAPI, queryID string, chatID int64, messageID int, loc *i18n.Localizer, s *session.Session) error {
	s.Lock()
	s.ClearBulkSelection()
	markup := h.managementMarkup(loc, s, curation.MarkupOptions{})
	s.Unlock()

	h.editText(ctx, bot, chatID, messageID, locales.GetMessage(loc, "MsgPhotoManage", nil, nil), markup)
	return h.answerCallback(ctx, bot, queryID, "", false)
}

func (h *MessageHandler) handleConfirmPhotos(ctx context.Context, bot telegoapi.BotAPI, queryID string, chatID int64, loc *i18n.Localizer, s *session.Session) error {
	h.sendPreview(ctx, chatID, s)

	params := textMessage(chatID, locales.GetMessage(loc, "MsgPhotosConfirmed", nil, nil))
	params.ReplyMarkup = h.mainMenuMarkup(loc)
	if _, err := bot.SendMessage(ctx, params); err != nil {
		log.Printf("[Callback Chat:%d] Failed to send confirmed-photos menu: %v", chatID, err)
	}
	return h.answerCallback(ctx, bot, queryID, "", false)
}

func (h *MessageHandler) handleEditTextRequest(ctx context.Context, bot telegoapi.BotAPI, queryID string, chatID int64, loc *i18n.Localizer, s *session.Session) error {
	s.Lock()
	s.AwaitingTextEdit = true
	s.Unlock()

	if sent, err := h.sendMsg(ctx, bot, chatID, loc, "MsgEditTextPrompt", nil); err != nil {
		log.Printf("[Callback Chat:%d] Failed to send edit prompt: %v", chatID, err)
	} else if sent != nil {
		s.Lock()
		s.RememberMessage(sent.MessageID)
		s.Unlock()
	}
	return h.answerCallback(ctx, bot, queryID, "", false)
}

func (h *MessageHandler) handleChooseDestination(ctx context.Context, bot telegoapi.BotAPI, queryID string, chatID int64, messageID int, loc *i18n.Localizer, s *session.Session) error {
	s.Lock()
	s.Phase = session.PhaseChoosingDestination
	s.Unlock()

	h.editText(ctx, bot, chatID, messageID, locales.GetMessage(loc, "MsgChooseDestination", nil, nil), h.destinationMarkup(loc))
	return h.answerCallback(ctx, bot, queryID, "", false)
}

func (h *MessageHandler) handleDestinationPick(ctx context.Context, bot telegoapi.BotAPI, queryID string, chatID int64, messageID int, loc *i18n.Localizer, s *session.Session, choice session.DestinationChoice) error {
	s.Lock()
	s.PendingDestination = &choice
	s.Phase = session.PhaseConfirmingSend
	s.Unlock()

	text := locales.GetMessage(loc, "MsgConfirmSend", map[string]interface{}{
		"Destination": h.destinationLabel(loc, choice),
	}, nil)
	h.editText(ctx, bot, chatID, messageID, text, h.sendConfirmMarkup(loc))
	return h.answerCallback(ctx, bot, queryID, "", false)
}

func (h *MessageHandler) handleConfirmSend(ctx context.Context, bot telegoapi.BotAPI, queryID string, chatID int64, messageID int, loc *i18n.Localizer, s *session.Session) error {
	s.Lock()
	choice := s.PendingDestination
	phase := s.Phase
	post := sending.Snapshot(s)
	sourceURL := s.SourceURL
	transient := append([]int(nil), s.TransientMessageIDs...)
	s.Unlock()

	if choice == nil || phase != session.PhaseConfirmingSend || !post.HasContent() {
		return h.answerCallback(ctx, bot, queryID, locales.GetMessage(loc, "MsgSessionExpired", nil, nil), true)
	}

	dests, err := h.resolveDestinations(*choice)
	if err != nil {
		return h.answerCallback(ctx, bot, queryID, locales.GetMessage(loc, "MsgErrorGeneral", nil, nil), true)
	}

	log.Printf("[Send Chat:%d] Dispatching to %d destination(s)", chatID, len(dests))
	results := h.coordinator.DispatchAll(ctx, post, dests)
	for i, d := range dests {
		var resultErr error
		if !results[i].OK {
			resultErr = errors.New(results[i].Message)
		}
		h.logPublish(ctx, sourceURL, post, d, chatID, resultErr)
	}

	h.editText(ctx, bot, chatID, messageID, h.formatSendReport(loc, results), nil)

	if sent, err := h.sendMsg(ctx, bot, chatID, loc, "MsgPostSent", nil); err == nil && sent != nil {
		h.deleteAfter(bot, chatID, sent.MessageID, confirmationTTL)
	}
	for _, id := range transient {
		if err := bot.DeleteMessage(ctx, &telego.DeleteMessageParams{ChatID: telego.ChatID{ID: chatID}, MessageID: id}); err != nil {
			log.Printf("[Cleanup Chat:%d] Failed to delete transient message %d: %v", chatID, id, err)
		}
	}

	h.store.Delete(chatID)
	return h.answerCallback(ctx, bot, queryID, "", false)
}

func (h *MessageHandler) handleCancelSend(ctx context.Context, bot telegoapi.BotAPI, queryID string, chatID int64, messageID int, loc *i18n.Localizer, s *session.Session) error {
	s.Lock()
	s.PendingDestination = nil
	s.Phase = session.PhaseCurating
	s.Unlock()

	h.editText(ctx, bot, chatID, messageID, locales.GetMessage(loc, "MsgSendCanceled", nil, nil), h.mainMenuMarkup(loc))
	return h.answerCallback(ctx, bot, queryID, "", false)
}

func (h *MessageHandler) handleBatchCallback(ctx context.Context, bot telegoapi.BotAPI, queryID string, chatID int64, messageID int, loc *i18n.Localizer, action callback.Action) error {
	batch, ok := h.takeBatch(action.BatchID)
	if !ok {
		return h.answerCallback(ctx, bot, queryID, locales.GetMessage(loc, "MsgBatchExpired", nil, nil), true)
	}

	if action.Op == callback.OpCancelBatch {
		h.editText(ctx, bot, chatID, messageID, locales.GetMessage(loc, "MsgBatchCanceled", nil, nil), nil)
		return h.answerCallback(ctx, bot, queryID, "", false)
	}

	count, err := h.scheduler.ScheduleLinks(ctx, batch.urls)
	if err != nil {
		log.Printf("[Batch Chat:%d] Failed to queue %d link(s): %v", chatID, len(batch.urls), err)
		return h.answerCallback(ctx, bot, queryID, locales.GetMessage(loc, "MsgErrorGeneral", nil, nil), true)
	}

	text := locales.GetMessage(loc, "MsgLinksQueued", map[string]interface{}{"Count": count}, nil)
	h.editText(ctx, bot, chatID, messageID, text, nil)
	return h.answerCallback(ctx, bot, queryID, locales.GetMessage(loc, "MsgBatchConfirmed", nil, nil), false)
}

// resolveDestinations expands the operator's choice into concrete chats.
// Everywhere and self-only both include the operator chat so the result
// can be eyeballed.
func (h *MessageHandler) resolveDestinations(choice session.DestinationChoice) ([]sending.Destination, error) {
	operatorChat := sending.Destination{Name: "Админ (проверка)", ChatID: h.cfg.AdminID}
	switch choice.Mode {
	case session.SendEverywhere:
		return append(h.destinations(), operatorChat), nil
	case session.SendSelfOnly:
		return []sending.Destination{operatorChat}, nil
	case session.SendSingle:
		d, ok := h.destinationByID(choice.ChannelID)
		if !ok {
			return nil, errors.New("unknown destination channel")
		}
		return []sending.Destination{d}, nil
	}
	return nil, errors.New("unknown destination mode")
}

func (h *MessageHandler) answerCallback(ctx context.Context, bot telegoapi.BotAPI, queryID, text string, alert bool) error {
	err := bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		log.Printf("[Callback] Failed to answer query %s: %v", queryID, err)
	}
	return err
}

func (h *MessageHandler) editText(ctx context.Context, bot telegoapi.BotAPI, chatID int64, messageID int, text string, markup *telego.InlineKeyboardMarkup) {
	_, err := bot.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:      telego.ChatID{ID: chatID},
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil {
		log.Printf("[Callback Chat:%d] Failed to edit message %d: %v", chatID, messageID, err)
	}
}

func (h *MessageHandler) editMarkup(ctx context.Context, bot telegoapi.BotAPI, chatID int64, messageID int, markup *telego.InlineKeyboardMarkup) {
	_, err := bot.EditMessageReplyMarkup(ctx, &telego.EditMessageReplyMarkupParams{
		ChatID:      telego.ChatID{ID: chatID},
		MessageID:   messageID,
		ReplyMarkup: markup,
	})
	if err != nil {
		log.Printf("[Callback Chat:%d] Failed to edit markup of message %d: %v", chatID, messageID, err)
	}
}
