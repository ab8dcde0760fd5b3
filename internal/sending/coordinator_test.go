package sending

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lombard-poster-bot/internal/media"
)

// MockBot is a mock implementing the telegoapi.BotAPI interface.
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

// ---

func TestDispatchTextOnly(t *testing.T) {
	bot := new(MockBot)
	bot.On("SendMessage", mock.Anything, mock.MatchedBy(func(p *telego.SendMessageParams) bool {
		return p.Text == "caption" && p.ParseMode == telego.ModeHTML
	})).Return(&telego.Message{MessageID: 1}, nil).Once()

	c := NewCoordinator(bot)
	err := c.Dispatch(context.Background(), 10, Post{Caption: "caption"})
	assert.NoError(t, err)
	bot.AssertExpectations(t)
}

func TestDispatchEmptyPost(t *testing.T) {
	c := NewCoordinator(new(MockBot))
	assert.ErrorIs(t, c.Dispatch(context.Background(), 10, Post{}), ErrNothingToSend)
}

func TestDispatchAlbumFallsBackToIndividualPhotos(t *testing.T) {
	bot := new(MockBot)
	bot.On("SendMediaGroup", mock.Anything, mock.Anything).
		Return(nil, errors.New("group too large")).Once()
	captioned := 0
	bot.On("SendPhoto", mock.Anything, mock.MatchedBy(func(p *telego.SendPhotoParams) bool {
		if p.Caption != "" {
			captioned++
		}
		return true
	})).Return(&telego.Message{MessageID: 2}, nil).Times(3)

	c := NewCoordinator(bot)
	err := c.Dispatch(context.Background(), 10, Post{Caption: "c", Photos: webPhotos(3)})
	assert.NoError(t, err)
	assert.Equal(t, 1, captioned)
	bot.AssertExpectations(t)
}

func TestDispatchTextFallbackWhenAllMediaFails(t *testing.T) {
	bot := new(MockBot)
	bot.On("SendMediaGroup", mock.Anything, mock.Anything).
		Return(nil, errors.New("down")).Once()
	bot.On("SendPhoto", mock.Anything, mock.Anything).
		Return(nil, errors.New("down")).Times(2)
	bot.On("SendMessage", mock.Anything, mock.Anything).
		Return(&telego.Message{MessageID: 3}, nil).Once()

	c := NewCoordinator(bot)
	err := c.Dispatch(context.Background(), 10, Post{Caption: "c", Photos: webPhotos(2)})
	assert.NoError(t, err)
	bot.AssertExpectations(t)
}

func TestDispatchReturnsErrorWhenEverythingFails(t *testing.T) {
	bot := new(MockBot)
	bot.On("SendMediaGroup", mock.Anything, mock.Anything).
		Return(nil, errors.New("down")).Once()
	bot.On("SendPhoto", mock.Anything, mock.Anything).
		Return(nil, errors.New("down")).Times(2)
	bot.On("SendMessage", mock.Anything, mock.Anything).
		Return(nil, errors.New("down")).Once()

	c := NewCoordinator(bot)
	err := c.Dispatch(context.Background(), 10, Post{Caption: "c", Photos: webPhotos(2)})
	assert.Error(t, err)
	bot.AssertExpectations(t)
}

func TestDispatchVideoCarriesCaptionWithoutPhotos(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video"), 0o600))

	bot := new(MockBot)
	bot.On("SendVideo", mock.Anything, mock.MatchedBy(func(p *telego.SendVideoParams) bool {
		return p.Caption == "c" && p.ParseMode == telego.ModeHTML
	})).Return(&telego.Message{MessageID: 4}, nil).Once()

	c := NewCoordinator(bot)
	err := c.Dispatch(context.Background(), 10, Post{Caption: "c", Videos: []media.Item{media.CustomVideo(path)}})
	assert.NoError(t, err)
	bot.AssertExpectations(t)
}

func TestDispatchAllIndependentFailures(t *testing.T) {
	bot := new(MockBot)
	bot.On("SendMessage", mock.Anything, mock.MatchedBy(func(p *telego.SendMessageParams) bool {
		return p.ChatID.ID == 111
	})).Return(nil, errors.New("forbidden")).Once()
	bot.On("SendMessage", mock.Anything, mock.MatchedBy(func(p *telego.SendMessageParams) bool {
		return p.ChatID.ID == 222
	})).Return(&telego.Message{MessageID: 5}, nil).Once()

	c := NewCoordinator(bot)
	results := c.DispatchAll(context.Background(), Post{Caption: "c"}, []Destination{
		{Name: "Main", ChatID: 111},
		{Name: "Backup", ChatID: 222},
	})

	assert.Len(t, results, 2)
	assert.False(t, results[0].OK)
	assert.Contains(t, results[0].Message, "forbidden")
	assert.True(t, results[1].OK)
	assert.Empty(t, results[1].Message)
	bot.AssertExpectations(t)
}
