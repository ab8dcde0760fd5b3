package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentry "github.com/getsentry/sentry-go"
	telego "github.com/mymmrac/telego"

	botpkg "lombard-poster-bot/bot"
	"lombard-poster-bot/config"
	"lombard-poster-bot/internal/auth"
	"lombard-poster-bot/internal/curation"
	"lombard-poster-bot/internal/database"
	"lombard-poster-bot/internal/handlers"
	"lombard-poster-bot/internal/locales"
	"lombard-poster-bot/internal/parser"
	"lombard-poster-bot/internal/scheduler"
	"lombard-poster-bot/internal/sending"
	"lombard-poster-bot/internal/session"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	locales.Init(locales.DefaultLanguage)

	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		Release:          cfg.Version,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence is optional: without Mongo the link queue lives in
	// memory and publish attempts go to the process log only.
	var postLogger database.PostLogger = database.LogPostLogger{}
	var linkRepo database.LinkJobRepository = database.NewMemoryLinkJobRepository()
	if cfg.MongoDBURI != "" {
		client, db, err := database.ConnectDB(cfg)
		if err != nil {
			sentry.CaptureException(err)
			log.Fatal(err)
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
				sentry.CaptureException(err)
			} else {
				log.Println("Disconnected from MongoDB.")
			}
		}()
		postLogger = database.NewMongoPostLogger(db)
		linkRepo = database.NewMongoLinkJobRepository(db)
	}

	var bot *telego.Bot
	if cfg.Debug {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultDebugLogger())
	} else {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultLogger(false, false))
	}
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create telego bot: %v", err)
	}

	operatorChecker, err := auth.NewOperatorChecker(cfg.AdminID)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create operator checker: %v", err)
	}

	// The scheduler publishes through the handler, which in turn is
	// constructed with the scheduler; the closure breaks the cycle.
	var messageHandler *handlers.MessageHandler
	sched := scheduler.New(linkRepo, func(ctx context.Context, url string) error {
		return messageHandler.PublishLink(ctx, url)
	})

	messageHandler, err = handlers.NewMessageHandler(handlers.Deps{
		Config: cfg,
		Store:  session.NewStore(),
		Engine: curation.NewEngine(curation.Limits{
			MaxMedia:       cfg.MaxMedia,
			MaxTextLength:  cfg.MaxTextLength,
			VideoCapExempt: cfg.VideoCapExempt,
		}),
		Parser:      parser.NewLombardParser(),
		Coordinator: sending.NewCoordinator(bot),
		PostLogger:  postLogger,
		Scheduler:   sched,
		Auth:        operatorChecker,
	})
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}

	updatesChan, err := bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to start long polling: %v", err)
	}

	appBot, err := botpkg.New(botpkg.BotDeps{
		Bot:         bot,
		UpdatesChan: updatesChan,
		Debug:       cfg.Debug,
		Handler:     messageHandler,
		Auth:        operatorChecker,
	})
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}

	if err := appBot.SetupCommands(ctx); err != nil {
		log.Printf("Failed to register bot commands: %v", err)
		sentry.CaptureException(err)
	}

	go sched.Run(ctx)
	go appBot.Start(ctx)

	<-ctx.Done()
	log.Println("Shutting down bot...")

	cleanupCtx, cancelCleanup := context.WithTimeout(context.Background(), 10*time.Second)
	messageHandler.Shutdown(cleanupCtx, bot)
	cancelCleanup()

	log.Println("Bot shutdown complete.")
}
