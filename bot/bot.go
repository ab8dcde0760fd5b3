package bot

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/ratelimit"

	"lombard-poster-bot/internal/auth"
	"lombard-poster-bot/internal/handlers"
	"lombard-poster-bot/internal/locales"
	"lombard-poster-bot/pkg/telegoapi"
)

// Bot owns the update loop. It reads updates from the channel created in
// main, rate-limits them globally and fans each one out to the handler
// layer on its own goroutine.
type Bot struct {
	bot         telegoapi.BotAPI
	updatesChan <-chan telego.Update
	debug       bool
	handler     *handlers.MessageHandler
	auth        *auth.OperatorChecker
	ratelimiter ratelimit.Limiter
}

// BotDeps holds the dependencies required by the Bot.
type BotDeps struct {
	Bot         telegoapi.BotAPI
	UpdatesChan <-chan telego.Update
	Debug       bool
	Handler     *handlers.MessageHandler
	Auth        *auth.OperatorChecker
}

// New creates a new Bot instance from its dependencies.
func New(deps BotDeps) (*Bot, error) {
	if deps.Bot == nil {
		return nil, fmt.Errorf("telego bot (BotAPI) instance cannot be nil")
	}
	if deps.UpdatesChan == nil {
		return nil, fmt.Errorf("updates channel cannot be nil")
	}
	if deps.Handler == nil {
		return nil, fmt.Errorf("message handler cannot be nil")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("operator checker cannot be nil")
	}

	return &Bot{
		bot:         deps.Bot,
		updatesChan: deps.UpdatesChan,
		debug:       deps.Debug,
		handler:     deps.Handler,
		auth:        deps.Auth,
		ratelimiter: ratelimit.New(20),
	}, nil
}

// SetupCommands registers the localized command menu with Telegram.
func (b *Bot) SetupCommands(ctx context.Context) error {
	localizer := locales.NewLocalizer(locales.DefaultLanguage)
	var commands []telego.BotCommand
	for _, cmd := range b.handler.Commands() {
		commands = append(commands, telego.BotCommand{
			Command:     cmd.Command,
			Description: locales.GetMessage(localizer, cmd.Description, nil, nil),
		})
	}
	return b.bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: commands})
}

// handleCommandUpdate processes a message identified as a command.
func (b *Bot) handleCommandUpdate(ctx context.Context, message telego.Message) {
	command := "unknown"
	if len(message.Text) > 1 && strings.HasPrefix(message.Text, "/") {
		command = strings.Split(message.Text, " ")[0][1:]
	}
	if at := strings.Index(command, "@"); at != -1 {
		command = command[:at]
	}
	logPrefix := fmt.Sprintf("[Cmd:%s User:%d]", command, message.From.ID)

	handlerFunc := b.handler.GetCommandHandler(command)
	if handlerFunc == nil {
		log.Printf("%s No handler found", logPrefix)
		localizer := locales.NewLocalizer(locales.DefaultLanguage)
		unknownCmdMsg := locales.GetMessage(localizer, "MsgUnknownText", nil, nil)
		if _, err := b.bot.SendMessage(ctx, tu.Message(tu.ID(message.Chat.ID), unknownCmdMsg)); err != nil {
			log.Printf("%s Failed to send unknown command message: %v", logPrefix, err)
		}
		return
	}

	if b.debug {
		log.Printf("%s Executing handler", logPrefix)
	}
	if err := handlerFunc(ctx, b.bot, message); err != nil {
		log.Printf("%s Handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s handler error: %w", logPrefix, err))
	}
}

// handleTextUpdate processes an incoming non-command text message.
func (b *Bot) handleTextUpdate(ctx context.Context, message telego.Message) {
	logPrefix := fmt.Sprintf("[Text User:%d Msg:%d]", message.From.ID, message.MessageID)
	if b.debug {
		log.Printf("%s Processing text message", logPrefix)
	}
	if err := b.handler.HandleText(ctx, b.bot, message); err != nil {
		log.Printf("%s Handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s text handler error: %w", logPrefix, err))
	}
}

// handleCallbackQuery processes an incoming callback query.
func (b *Bot) handleCallbackQuery(ctx context.Context, query telego.CallbackQuery) {
	logPrefix := fmt.Sprintf("[Callback User:%d QueryID:%s]", query.From.ID, query.ID)
	if b.debug {
		log.Printf("%s Received callback query with data: %q", logPrefix, query.Data)
	}
	if err := b.handler.HandleCallbackQuery(ctx, b.bot, query); err != nil {
		log.Printf("%s Handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s callback handler error: %w", logPrefix, err))
	}
}

// processUpdate routes one update to the appropriate handler.
func (b *Bot) processUpdate(ctx context.Context, update telego.Update) {
	b.ratelimiter.Take()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC recovered in processUpdate: %v\n%s", r, debug.Stack())
			sentry.CurrentHub().Recover(r)
			sentry.Flush(time.Second * 2)
		}
	}()

	processingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch {
	case update.Message != nil:
		message := *update.Message
		if message.From == nil {
			log.Printf("Ignoring message %d from chat %d without sender", message.MessageID, message.Chat.ID)
			return
		}
		if !b.auth.IsOperator(message.From.ID) {
			localizer := locales.NewLocalizer(locales.DefaultLanguage)
			denied := locales.GetMessage(localizer, "MsgAccessDenied", nil, nil)
			_, _ = b.bot.SendMessage(processingCtx, tu.Message(tu.ID(message.Chat.ID), denied))
			return
		}

		if strings.HasPrefix(message.Text, "/") {
			b.handleCommandUpdate(processingCtx, message)
		} else if message.Text != "" {
			b.handleTextUpdate(processingCtx, message)
		} else if b.debug {
			log.Printf("Ignoring unhandled message type (ID: %d)", message.MessageID)
		}

	case update.CallbackQuery != nil:
		b.handleCallbackQuery(processingCtx, *update.CallbackQuery)

	default:
		if b.debug {
			log.Printf("Ignoring unhandled update type: %+v", update)
		}
	}
}

// Start begins the bot's update processing loop and blocks until the
// context is canceled or the updates channel closes.
func (b *Bot) Start(ctx context.Context) {
	if b.updatesChan == nil {
		log.Fatal("Bot updates channel is nil, cannot start")
	}
	log.Println("Listening for updates...")

	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			log.Println("Context done, stopping update processing...")
			wg.Wait()
			log.Println("All update processing finished.")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				log.Println("Updates channel closed.")
				wg.Wait()
				return
			}
			wg.Add(1)
			go func(up telego.Update) {
				defer wg.Done()
				b.processUpdate(ctx, up)
			}(update)
		}
	}
}
