// Package handlers wires inbound Telegram updates to the curation engine,
// the send coordinator and the link scheduler.
package handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mymmrac/telego"

	"lombard-poster-bot/config"
	"lombard-poster-bot/internal/auth"
	"lombard-poster-bot/internal/curation"
	"lombard-poster-bot/internal/database"
	"lombard-poster-bot/internal/parser"
	"lombard-poster-bot/internal/scheduler"
	"lombard-poster-bot/internal/sending"
	"lombard-poster-bot/internal/session"
	"lombard-poster-bot/pkg/telegoapi"
)

// batchSessionTTL is how long an unconfirmed /addlinks batch stays valid.
const batchSessionTTL = time.Hour

// Command represents a bot command, mapping the command string to its
// description message ID and handler function.
type Command struct {
	Command     string
	Description string // message ID, localized on demand
	Handler     func(context.Context, telegoapi.BotAPI, telego.Message) error
}

// batchSession holds a parsed /addlinks batch awaiting confirmation.
type batchSession struct {
	chatID    int64
	urls      []string
	createdAt time.Time
}

// Deps bundles everything a MessageHandler needs.
type Deps struct {
	Config      *config.Config
	Store       *session.Store
	Engine      *curation.Engine
	Parser      parser.ProductParser
	Coordinator *sending.Coordinator
	PostLogger  database.PostLogger
	Scheduler   *scheduler.Scheduler
	Auth        *auth.OperatorChecker
}

// MessageHandler handles incoming Telegram messages and callbacks. It
// orchestrates command handling, session curation, destination choice and
// publishing.
type MessageHandler struct {
	cfg         *config.Config
	store       *session.Store
	engine      *curation.Engine
	parser      parser.ProductParser
	coordinator *sending.Coordinator
	postLogger  database.PostLogger
	scheduler   *scheduler.Scheduler
	auth        *auth.OperatorChecker

	commands []Command

	// batchMu guards batchSessions, keyed by the md5-derived batch ID.
	batchMu       sync.Mutex
	batchSessions map[string]*batchSession
}

// NewMessageHandler creates and initializes a new MessageHandler instance.
func NewMessageHandler(d Deps) (*MessageHandler, error) {
	if d.Config == nil || d.Store == nil || d.Engine == nil || d.Parser == nil ||
		d.Coordinator == nil || d.PostLogger == nil || d.Scheduler == nil || d.Auth == nil {
		return nil, fmt.Errorf("handlers: all dependencies are required")
	}
	h := &MessageHandler{
		cfg:           d.Config,
		store:         d.Store,
		engine:        d.Engine,
		parser:        d.Parser,
		coordinator:   d.Coordinator,
		postLogger:    d.PostLogger,
		scheduler:     d.Scheduler,
		auth:          d.Auth,
		batchSessions: make(map[string]*batchSession),
	}
	h.commands = []Command{
		{Command: "start", Description: "CmdStartDesc", Handler: h.HandleStart},
		{Command: "help", Description: "CmdHelpDesc", Handler: h.HandleHelp},
		{Command: "status", Description: "CmdStatusDesc", Handler: h.HandleStatus},
		{Command: "settings", Description: "CmdStatusDesc", Handler: h.HandleStatus},
		{Command: "clear", Description: "CmdClearDesc", Handler: h.HandleClear},
		{Command: "cancel", Description: "CmdClearDesc", Handler: h.HandleClear},
		{Command: "where", Description: "CmdWhereDesc", Handler: h.HandleWhere},
		{Command: "debug_channels", Description: "CmdDebugChannelsDesc", Handler: h.HandleDebugChannels},
		{Command: "addlinks", Description: "CmdAddLinksDesc", Handler: h.HandleAddLinks},
		{Command: "addlink", Description: "CmdAddLinkDesc", Handler: h.HandleAddLink},
		{Command: "preview", Description: "CmdPreviewDesc", Handler: h.HandlePreview},
	}
	return h, nil
}

// Commands returns the registered command list.
func (h *MessageHandler) Commands() []Command {
	return h.commands
}

// GetCommandHandler retrieves the handler function for a command string
// (e.g., "start"). It returns nil if the command is not found.
func (h *MessageHandler) GetCommandHandler(command string) func(context.Context, telegoapi.BotAPI, telego.Message) error {
	for _, cmd := range h.commands {
		if cmd.Command == command {
			return cmd.Handler
		}
	}
	return nil
}

// destinations returns all configured publish targets, config order.
func (h *MessageHandler) destinations() []sending.Destination {
	channels := h.cfg.AllChannels()
	dests := make([]sending.Destination, 0, len(channels))
	for _, ch := range channels {
		dests = append(dests, sending.Destination{Name: ch.Name, ChatID: ch.ChatID})
	}
	return dests
}

// destinationByID looks up one configured channel.
func (h *MessageHandler) destinationByID(chatID int64) (sending.Destination, bool) {
	for _, d := range h.destinations() {
		if d.ChatID == chatID {
			return d, true
		}
	}
	return sending.Destination{}, false
}

func (h *MessageHandler) storeBatch(chatID int64, id string, urls []string) {
	h.batchMu.Lock()
	defer h.batchMu.Unlock()
	h.cleanupBatchesLocked()
	h.batchSessions[id] = &batchSession{chatID: chatID, urls: urls, createdAt: time.Now()}
}

func (h *MessageHandler) takeBatch(id string) (*batchSession, bool) {
	h.batchMu.Lock()
	defer h.batchMu.Unlock()
	h.cleanupBatchesLocked()
	b, ok := h.batchSessions[id]
	if ok {
		delete(h.batchSessions, id)
	}
	return b, ok
}

func (h *MessageHandler) cleanupBatchesLocked() {
	cutoff := time.Now().Add(-batchSessionTTL)
	for id, b := range h.batchSessions {
		if b.createdAt.Before(cutoff) {
			delete(h.batchSessions, id)
		}
	}
}
