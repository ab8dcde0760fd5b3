package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"

	"lombard-poster-bot/internal/locales"
	"lombard-poster-bot/internal/sending"
	"lombard-poster-bot/internal/session"
	"lombard-poster-bot/pkg/telegoapi"
)

// confirmationTTL is how long transient confirmations stay before the
// detached cleanup timer deletes them.
const confirmationTTL = 3 * time.Second

// getLocalizer picks a localizer for the user, defaulting to Russian.
func (h *MessageHandler) getLocalizer(user *telego.User) *i18n.Localizer {
	lang := locales.DefaultLanguage
	if user != nil && user.LanguageCode != "" {
		lang = user.LanguageCode
	}
	return locales.NewLocalizer(lang)
}

// sendMsg sends a localized text message.
func (h *MessageHandler) sendMsg(ctx context.Context, bot telegoapi.BotAPI, chatID int64, loc *i18n.Localizer, msgID string, data map[string]interface{}) (*telego.Message, error) {
	text := locales.GetMessage(loc, msgID, data, nil)
	return bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text))
}

// sendError logs the original error and sends a generic localized error
// message. The original error is returned so the update loop can report it.
func (h *MessageHandler) sendError(ctx context.Context, bot telegoapi.BotAPI, chatID int64, loc *i18n.Localizer, originalErr error) error {
	log.Printf("Error for user in chat %d: %v", chatID, originalErr)
	if _, sendErr := h.sendMsg(ctx, bot, chatID, loc, "MsgErrorGeneral", nil); sendErr != nil {
		log.Printf("Error sending generic error message to chat %d: %v", chatID, sendErr)
	}
	return originalErr
}

// deleteAfter removes a message after the given delay on a detached
// timer. The message may already be gone; deletion is best-effort.
func (h *MessageHandler) deleteAfter(bot telegoapi.BotAPI, chatID int64, messageID int, delay time.Duration) {
	go func() {
		time.Sleep(delay)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := bot.DeleteMessage(ctx, &telego.DeleteMessageParams{ChatID: tu.ID(chatID), MessageID: messageID}); err != nil {
			log.Printf("[Cleanup Chat:%d] Failed to delete message %d: %v", chatID, messageID, err)
		}
	}()
}

// sendPreview shows the operator what the post currently looks like by
// delivering it to their own chat through the normal dispatch path.
func (h *MessageHandler) sendPreview(ctx context.Context, chatID int64, s *session.Session) {
	s.Lock()
	post := sending.Snapshot(s)
	s.Unlock()

	if !post.HasContent() {
		return
	}
	if err := h.coordinator.Dispatch(ctx, chatID, post); err != nil {
		log.Printf("[Preview Chat:%d] Failed to send preview: %v", chatID, err)
	}
}

// Shutdown sweeps every live session: transient prompts are deleted
// best-effort before the process exits, then the sessions themselves.
func (h *MessageHandler) Shutdown(ctx context.Context, bot telegoapi.BotAPI) {
	h.store.Range(func(chatID int64, s *session.Session) bool {
		s.Lock()
		transient := append([]int(nil), s.TransientMessageIDs...)
		s.Unlock()

		for _, id := range transient {
			if err := bot.DeleteMessage(ctx, &telego.DeleteMessageParams{ChatID: tu.ID(chatID), MessageID: id}); err != nil {
				log.Printf("[Shutdown Chat:%d] Failed to delete transient message %d: %v", chatID, id, err)
			}
		}
		h.store.Delete(chatID)
		return true
	})
}

// formatSendReport renders the per-destination delivery report.
func (h *MessageHandler) formatSendReport(loc *i18n.Localizer, results []sending.Result) string {
	lines := []string{locales.GetMessage(loc, "MsgSendReportHeader", nil, nil)}
	success := 0
	for _, r := range results {
		msgID := "MsgSendReportFailureLine"
		if r.OK {
			msgID = "MsgSendReportSuccessLine"
			success++
		}
		lines = append(lines, locales.GetMessage(loc, msgID, map[string]interface{}{"Name": r.Name}, nil))
	}
	lines = append(lines, locales.GetMessage(loc, "MsgSendReportTotal", map[string]interface{}{
		"Success": success,
		"Total":   len(results),
	}, nil))
	return strings.Join(lines, "\n")
}

// commandArgs splits "/cmd arg1 arg2" into its argument fields.
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// destinationLabel names a pending destination choice for the
// confirmation prompt.
func (h *MessageHandler) destinationLabel(loc *i18n.Localizer, choice session.DestinationChoice) string {
	switch choice.Mode {
	case session.SendEverywhere:
		return locales.GetMessage(loc, "DestEverywhere", map[string]interface{}{"Count": len(h.destinations())}, nil)
	case session.SendSelfOnly:
		return locales.GetMessage(loc, "DestSelfOnly", nil, nil)
	default:
		if d, ok := h.destinationByID(choice.ChannelID); ok {
			return d.Name
		}
		return fmt.Sprintf("%d", choice.ChannelID)
	}
}
