package handlers

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/mymmrac/telego"
	"github.com/nicksnyder/go-i18n/v2/i18n"

	"lombard-poster-bot/internal/curation"
	"lombard-poster-bot/internal/locales"
	"lombard-poster-bot/internal/parser"
	"lombard-poster-bot/internal/session"
	"lombard-poster-bot/pkg/telegoapi"
)

// HandleText routes a plain text message: it either continues a pending
// caption edit, starts a new session from a product link, or tells the
// operator the input was not understood.
func (h *MessageHandler) HandleText(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	chatID := message.Chat.ID
	loc := h.getLocalizer(message.From)
	text := strings.TrimSpace(message.Text)

	if s, ok := h.store.Get(chatID); ok {
		s.Lock()
		awaiting := s.AwaitingTextEdit
		s.Unlock()
		if awaiting {
			return h.handleTextEdit(ctx, bot, chatID, loc, s, text)
		}
	}

	if strings.HasPrefix(text, "http") {
		return h.handleProductLink(ctx, bot, chatID, loc, text)
	}

	if _, err := h.sendMsg(ctx, bot, chatID, loc, "MsgUnknownText", nil); err != nil {
		return h.sendError(ctx, bot, chatID, loc, err)
	}
	return nil
}

func (h *MessageHandler) handleTextEdit(ctx context.Context, bot telegoapi.BotAPI, chatID int64, loc *i18n.Localizer, s *session.Session, text string) error {
	s.Lock()
	err := h.engine.UpdateTextWithSourceLink(s, text)
	if err == nil {
		s.AwaitingTextEdit = false
	}
	s.Unlock()

	if err != nil {
		var tooLong *curation.TextTooLongError
		if errors.As(err, &tooLong) {
			_, sendErr := h.sendMsg(ctx, bot, chatID, loc, "MsgTextTooLong", map[string]interface{}{
				"Length": tooLong.Length, "Limit": tooLong.Limit,
			})
			return sendErr
		}
		return h.sendError(ctx, bot, chatID, loc, err)
	}

	h.sendPreview(ctx, chatID, s)

	msg := locales.GetMessage(loc, "MsgTextUpdated", nil, nil)
	params := textMessage(chatID, msg)
	params.ReplyMarkup = h.mainMenuMarkup(loc)
	if _, err := bot.SendMessage(ctx, params); err != nil {
		return h.sendError(ctx, bot, chatID, loc, err)
	}
	return nil
}

func (h *MessageHandler) handleProductLink(ctx context.Context, bot telegoapi.BotAPI, chatID int64, loc *i18n.Localizer, url string) error {
	if !parser.IsValidProductURL(url) {
		_, err := h.sendMsg(ctx, bot, chatID, loc, "MsgNotAProductLink", nil)
		return err
	}

	log.Printf("[Link Chat:%d] Parsing %s", chatID, url)
	product, err := h.parser.Parse(ctx, url)
	if err != nil {
		log.Printf("[Link Chat:%d] Parse of %s failed: %v", chatID, url, err)
		_, sendErr := h.sendMsg(ctx, bot, chatID, loc, "MsgParseError", nil)
		return sendErr
	}

	// Each link starts a fresh curation session.
	h.store.Delete(chatID)
	s := h.store.GetOrCreate(chatID)

	s.Lock()
	popErr := h.engine.Populate(s, url, product.CaptionHTML, product.PhotoURLs, h.cfg.CustomPhotos, h.cfg.CustomVideos)
	if popErr == nil {
		s.Phase = session.PhaseCurating
	}
	s.Unlock()

	if popErr != nil {
		var tooLong *curation.TextTooLongError
		if errors.As(popErr, &tooLong) {
			_, sendErr := h.sendMsg(ctx, bot, chatID, loc, "MsgTextTooLong", map[string]interface{}{
				"Length": tooLong.Length, "Limit": tooLong.Limit,
			})
			return sendErr
		}
		return h.sendError(ctx, bot, chatID, loc, popErr)
	}

	h.sendPreview(ctx, chatID, s)

	msg := locales.GetMessage(loc, "MsgChooseAction", nil, nil)
	params := textMessage(chatID, msg)
	params.ReplyMarkup = h.mainMenuMarkup(loc)
	if _, err := bot.SendMessage(ctx, params); err != nil {
		return h.sendError(ctx, bot, chatID, loc, err)
	}
	return nil
}
