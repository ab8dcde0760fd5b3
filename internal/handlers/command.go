package handlers

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log"
	"strings"

	"github.com/mymmrac/telego"
	"github.com/nicksnyder/go-i18n/v2/i18n"

	"lombard-poster-bot/internal/database/models"
	"lombard-poster-bot/internal/locales"
	"lombard-poster-bot/internal/media"
	"lombard-poster-bot/internal/parser"
	"lombard-poster-bot/internal/sending"
	"lombard-poster-bot/pkg/telegoapi"
)

// HandleStart resets the chat's session and sends the welcome prompt.
func (h *MessageHandler) HandleStart(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	chatID := message.Chat.ID
	loc := h.getLocalizer(message.From)
	log.Printf("[Cmd:start Chat:%d] Resetting session", chatID)

	h.store.Delete(chatID)
	if _, err := h.sendMsg(ctx, bot, chatID, loc, "MsgStart", nil); err != nil {
		return h.sendError(ctx, bot, chatID, loc, err)
	}
	return nil
}

// HandleHelp sends the command overview.
func (h *MessageHandler) HandleHelp(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	chatID := message.Chat.ID
	loc := h.getLocalizer(message.From)
	if _, err := h.sendMsg(ctx, bot, chatID, loc, "MsgHelp", nil); err != nil {
		return h.sendError(ctx, bot, chatID, loc, err)
	}
	return nil
}

// HandleStatus reports configuration and the chat's session state.
// Also serves /settings.
func (h *MessageHandler) HandleStatus(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	chatID := message.Chat.ID
	loc := h.getLocalizer(message.From)

	photos, videos := 0, 0
	if s, ok := h.store.Get(chatID); ok {
		s.Lock()
		photos = len(s.SelectedPhotos)
		videos = len(s.SelectedVideos)
		s.Unlock()
	}
	limits := h.engine.Limits()
	data := map[string]interface{}{
		"Version":       h.cfg.Version,
		"ChannelID":     h.cfg.ChannelID,
		"Channels":      len(h.destinations()),
		"MaxMedia":      limits.MaxMedia,
		"MaxTextLength": limits.MaxTextLength,
		"Photos":        photos,
		"Videos":        videos,
	}
	if _, err := h.sendMsg(ctx, bot, chatID, loc, "MsgStatus", data); err != nil {
		return h.sendError(ctx, bot, chatID, loc, err)
	}
	return nil
}

// HandleClear drops the chat's session. Also serves /cancel.
func (h *MessageHandler) HandleClear(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	chatID := message.Chat.ID
	loc := h.getLocalizer(message.From)
	log.Printf("[Cmd:clear Chat:%d] Clearing session", chatID)

	h.store.Delete(chatID)
	if _, err := h.sendMsg(ctx, bot, chatID, loc, "MsgSessionCleared", nil); err != nil {
		return h.sendError(ctx, bot, chatID, loc, err)
	}
	return nil
}

// HandleWhere lists the configured destinations.
func (h *MessageHandler) HandleWhere(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	chatID := message.Chat.ID
	loc := h.getLocalizer(message.From)

	lines := []string{locales.GetMessage(loc, "MsgWhereHeader", nil, nil)}
	for _, d := range h.destinations() {
		lines = append(lines, locales.GetMessage(loc, "MsgWhereLine", map[string]interface{}{
			"Name":   d.Name,
			"ChatID": d.ChatID,
		}, nil))
	}
	if _, err := bot.SendMessage(ctx, textMessage(chatID, strings.Join(lines, "\n"))); err != nil {
		return h.sendError(ctx, bot, chatID, loc, err)
	}
	return nil
}

// HandleDebugChannels probes every destination with getChat and reports
// which ones the bot can actually reach.
func (h *MessageHandler) HandleDebugChannels(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	chatID := message.Chat.ID
	loc := h.getLocalizer(message.From)

	var lines []string
	for _, d := range h.destinations() {
		chat, err := bot.GetChat(ctx, &telego.GetChatParams{ChatID: telego.ChatID{ID: d.ChatID}})
		if err != nil {
			log.Printf("[Cmd:debug_channels Chat:%d] Probe of %s (%d) failed: %v", chatID, d.Name, d.ChatID, err)
			lines = append(lines, locales.GetMessage(loc, "MsgDebugChannelFail", map[string]interface{}{
				"Name": d.Name, "ChatID": d.ChatID, "Error": err.Error(),
			}, nil))
			continue
		}
		lines = append(lines, locales.GetMessage(loc, "MsgDebugChannelOK", map[string]interface{}{
			"Name": d.Name, "ChatID": d.ChatID, "Title": chat.Title,
		}, nil))
	}
	if _, err := bot.SendMessage(ctx, textMessage(chatID, strings.Join(lines, "\n"))); err != nil {
		return h.sendError(ctx, bot, chatID, loc, err)
	}
	return nil
}

// HandleAddLinks parses every URL argument, previews each one and asks
// for a single confirmation before queuing the whole batch.
func (h *MessageHandler) HandleAddLinks(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	chatID := message.Chat.ID
	loc := h.getLocalizer(message.From)

	args := commandArgs(message.Text)
	if len(args) == 0 {
		_, err := h.sendMsg(ctx, bot, chatID, loc, "MsgAddLinksUsage", nil)
		return err
	}
	return h.previewBatch(ctx, bot, chatID, loc, args)
}

// HandleAddLink queues a single URL through the same preview-and-confirm
// flow.
func (h *MessageHandler) HandleAddLink(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	chatID := message.Chat.ID
	loc := h.getLocalizer(message.From)

	args := commandArgs(message.Text)
	if len(args) != 1 {
		_, err := h.sendMsg(ctx, bot, chatID, loc, "MsgAddLinkUsage", nil)
		return err
	}
	return h.previewBatch(ctx, bot, chatID, loc, args)
}

// HandlePreview parses a URL and shows the result without queuing it.
func (h *MessageHandler) HandlePreview(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	chatID := message.Chat.ID
	loc := h.getLocalizer(message.From)

	args := commandArgs(message.Text)
	if len(args) != 1 {
		_, err := h.sendMsg(ctx, bot, chatID, loc, "MsgPreviewUsage", nil)
		return err
	}
	url := args[0]
	if !parser.IsValidURL(url) {
		_, err := h.sendMsg(ctx, bot, chatID, loc, "MsgInvalidURL", map[string]interface{}{"URL": url})
		return err
	}

	if _, err := h.sendMsg(ctx, bot, chatID, loc, "MsgPreviewParsing", nil); err != nil {
		return h.sendError(ctx, bot, chatID, loc, err)
	}
	h.showParseResult(ctx, bot, chatID, loc, url)
	return nil
}

func (h *MessageHandler) previewBatch(ctx context.Context, bot telegoapi.BotAPI, chatID int64, loc *i18n.Localizer, args []string) error {
	var valid []string
	for _, url := range args {
		if !parser.IsValidURL(url) {
			if _, err := h.sendMsg(ctx, bot, chatID, loc, "MsgInvalidURL", map[string]interface{}{"URL": url}); err != nil {
				return h.sendError(ctx, bot, chatID, loc, err)
			}
			continue
		}
		valid = append(valid, url)
	}
	if len(valid) == 0 {
		_, err := h.sendMsg(ctx, bot, chatID, loc, "MsgNoValidURLs", nil)
		return err
	}

	for i, url := range valid {
		if _, err := h.sendMsg(ctx, bot, chatID, loc, "MsgLinkProgress", map[string]interface{}{
			"Index": i + 1, "Total": len(valid), "URL": url,
		}); err != nil {
			return h.sendError(ctx, bot, chatID, loc, err)
		}
		h.showParseResult(ctx, bot, chatID, loc, url)
	}

	batchID := generateBatchID(valid)
	h.storeBatch(chatID, batchID, valid)

	text := locales.GetMessage(loc, "MsgBatchConfirmPrompt", map[string]interface{}{"Count": len(valid)}, nil)
	params := textMessage(chatID, text)
	params.ReplyMarkup = h.batchConfirmMarkup(loc, batchID)
	if _, err := bot.SendMessage(ctx, params); err != nil {
		return h.sendError(ctx, bot, chatID, loc, err)
	}
	return nil
}

// showParseResult parses one URL and delivers the preview to the chat.
// Parse failures are reported inline and never abort a batch.
func (h *MessageHandler) showParseResult(ctx context.Context, bot telegoapi.BotAPI, chatID int64, loc *i18n.Localizer, url string) {
	product, err := h.parser.Parse(ctx, url)
	if err != nil {
		log.Printf("[Preview Chat:%d] Parse of %s failed: %v", chatID, url, err)
		if _, sendErr := h.sendMsg(ctx, bot, chatID, loc, "MsgParseError", nil); sendErr != nil {
			log.Printf("[Preview Chat:%d] Failed to report parse error: %v", chatID, sendErr)
		}
		return
	}

	header := locales.GetMessage(loc, "MsgPreviewHeader", nil, nil)
	post := sending.Post{Caption: header + "\n\n" + product.CaptionHTML}
	for _, u := range product.PhotoURLs {
		post.Photos = append(post.Photos, media.WebPhoto(u))
	}
	if err := h.coordinator.Dispatch(ctx, chatID, post); err != nil {
		log.Printf("[Preview Chat:%d] Failed to deliver preview for %s: %v", chatID, url, err)
	}
}

// generateBatchID derives a short stable ID from the batch URLs.
func generateBatchID(urls []string) string {
	sum := md5.Sum([]byte(strings.Join(urls, "")))
	return hex.EncodeToString(sum[:])[:8]
}

// PublishLink is the scheduler's publish callback: parse the URL and
// dispatch the result to the primary channel, logging the attempt.
func (h *MessageHandler) PublishLink(ctx context.Context, url string) error {
	product, err := h.parser.Parse(ctx, url)
	if err != nil {
		return err
	}

	post := sending.Post{Caption: product.CaptionHTML}
	for _, u := range product.PhotoURLs {
		post.Photos = append(post.Photos, media.WebPhoto(u))
	}
	dispatchErr := h.coordinator.Dispatch(ctx, h.cfg.ChannelID, post)
	h.logPublish(ctx, url, post, sending.Destination{Name: "Основной канал", ChatID: h.cfg.ChannelID}, 0, dispatchErr)
	return dispatchErr
}

func (h *MessageHandler) logPublish(ctx context.Context, sourceURL string, post sending.Post, dest sending.Destination, operatorID int64, dispatchErr error) {
	entry := models.PostLog{
		SourceURL:       sourceURL,
		Caption:         post.Caption,
		PhotoCount:      len(post.Photos),
		VideoCount:      len(post.Videos),
		DestinationName: dest.Name,
		DestinationID:   dest.ChatID,
		OperatorID:      operatorID,
		Success:         dispatchErr == nil,
	}
	if dispatchErr != nil {
		entry.Error = dispatchErr.Error()
	}
	if err := h.postLogger.LogPublishedPost(ctx, entry); err != nil {
		log.Printf("[PostLog] Failed to record publish attempt for %s: %v", dest.Name, err)
	}
}

func textMessage(chatID int64, text string) *telego.SendMessageParams {
	return &telego.SendMessageParams{ChatID: telego.ChatID{ID: chatID}, Text: text}
}
