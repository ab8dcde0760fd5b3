package handlers

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lombard-poster-bot/config"
	"lombard-poster-bot/internal/auth"
	"lombard-poster-bot/internal/curation"
	"lombard-poster-bot/internal/database"
	"lombard-poster-bot/internal/locales"
	"lombard-poster-bot/internal/media"
	"lombard-poster-bot/internal/parser"
	"lombard-poster-bot/internal/scheduler"
	"lombard-poster-bot/internal/sending"
	"lombard-poster-bot/internal/session"
)

func TestMain(m *testing.M) {
	locales.Init(locales.DefaultLanguage)
	os.Exit(m.Run())
}

// MockBot mocks the telegoapi.BotAPI interface.
type MockBot struct {
	mock.Mock
}

func (m *MockBot) GetMe(ctx context.Context) (*telego.User, error) {
	args := m.Called(ctx)
	if user, ok := args.Get(0).(*telego.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) SendPhoto(ctx context.Context, params *telego.SendPhotoParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) SendVideo(ctx context.Context, params *telego.SendVideoParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) SendMediaGroup(ctx context.Context, params *telego.SendMediaGroupParams) ([]telego.Message, error) {
	args := m.Called(ctx, params)
	if msgs, ok := args.Get(0).([]telego.Message); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) EditMessageText(ctx context.Context, params *telego.EditMessageTextParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) EditMessageReplyMarkup(ctx context.Context, params *telego.EditMessageReplyMarkupParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) DeleteMessage(ctx context.Context, params *telego.DeleteMessageParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockBot) AnswerCallbackQuery(ctx context.Context, params *telego.AnswerCallbackQueryParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockBot) SetMyCommands(ctx context.Context, params *telego.SetMyCommandsParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockBot) GetChat(ctx context.Context, params *telego.GetChatParams) (*telego.ChatFullInfo, error) {
	args := m.Called(ctx, params)
	if chat, ok := args.Get(0).(*telego.ChatFullInfo); ok {
		return chat, args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeParser returns a canned product or error.
type fakeParser struct {
	product *parser.Product
	err     error
	lastURL string
}

func (f *fakeParser) Parse(_ context.Context, pageURL string) (*parser.Product, error) {
	f.lastURL = pageURL
	if f.err != nil {
		return nil, f.err
	}
	return f.product, nil
}

const (
	testAdminID   = int64(1001)
	testChannelID = int64(-100200300)
)

// newTestHandler wires a MessageHandler around the given mock bot and
// parser with an in-memory scheduler queue.
func newTestHandler(t *testing.T, bot *MockBot, p parser.ProductParser) *MessageHandler {
	t.Helper()

	cfg := &config.Config{
		Version:       "test",
		BotToken:      "token",
		ChannelID:     testChannelID,
		AdminID:       testAdminID,
		MaxMedia:      10,
		MaxTextLength: 4096,
		ExtraChannels: []config.Channel{{Name: "Резерв", ChatID: -100400500}},
	}
	checker, err := auth.NewOperatorChecker(cfg.AdminID)
	require.NoError(t, err)

	coordinator := sending.NewCoordinator(bot)
	h, err := NewMessageHandler(Deps{
		Config:      cfg,
		Store:       session.NewStore(),
		Engine:      curation.NewEngine(curation.Limits{MaxMedia: cfg.MaxMedia, MaxTextLength: cfg.MaxTextLength, VideoCapExempt: true}),
		Parser:      p,
		Coordinator: coordinator,
		PostLogger:  database.LogPostLogger{},
		Scheduler:   scheduler.New(database.NewMemoryLinkJobRepository(), func(context.Context, string) error { return nil }),
		Auth:        checker,
	})
	require.NoError(t, err)
	return h
}

func webItems(n int) []media.Item {
	items := make([]media.Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, media.WebPhoto(fmt.Sprintf("https://example.com/%d.jpg", i)))
	}
	return items
}

func operatorMessage(text string) telego.Message {
	return telego.Message{
		MessageID: 42,
		Text:      text,
		Chat:      telego.Chat{ID: testAdminID},
		From:      &telego.User{ID: testAdminID, LanguageCode: "ru"},
	}
}
