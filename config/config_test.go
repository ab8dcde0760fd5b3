package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("CHANNEL_ID", "-1001111111111")
	t.Setenv("ADMIN_ID", "42")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, int64(-1001111111111), cfg.ChannelID)
	assert.Equal(t, int64(42), cfg.AdminID)
	assert.Equal(t, 10, cfg.MaxMedia)
	assert.Equal(t, 4096, cfg.MaxTextLength)
	assert.True(t, cfg.VideoCapExempt)
	assert.Empty(t, cfg.ExtraChannels)
	assert.Empty(t, cfg.CustomPhotos)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("CHANNEL_ID", "")
	t.Setenv("ADMIN_ID", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
}

func TestLoadConfigExtraChannels(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EXTRA_CHANNELS", "Резерв:-1002222222222, Тест: -1003333333333")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Len(t, cfg.ExtraChannels, 2)
	assert.Equal(t, Channel{Name: "Резерв", ChatID: -1002222222222}, cfg.ExtraChannels[0])
	assert.Equal(t, Channel{Name: "Тест", ChatID: -1003333333333}, cfg.ExtraChannels[1])

	all := cfg.AllChannels()
	require.Len(t, all, 3)
	assert.Equal(t, cfg.ChannelID, all[0].ChatID)
}

func TestLoadConfigBadExtraChannels(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EXTRA_CHANNELS", "missing-id")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXTRA_CHANNELS")
}

func TestLoadConfigPathLists(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CUSTOM_PHOTOS", "/media/a.jpg, /media/b.jpg,")
	t.Setenv("CUSTOM_VIDEOS", "/media/v.mp4")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"/media/a.jpg", "/media/b.jpg"}, cfg.CustomPhotos)
	assert.Equal(t, []string{"/media/v.mp4"}, cfg.CustomVideos)
}

func TestLoadConfigMongoRequiresDatabase(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MONGODB_DATABASE", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGODB_DATABASE")
}
