package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Channel is one named publish destination beyond the primary channel.
type Channel struct {
	Name   string
	ChatID int64
}

// Config holds the application configuration.
type Config struct {
	AppEnv  string
	Debug   bool
	Version string

	BotToken  string
	ChannelID int64
	// ExtraChannels are additional destinations parsed from
	// EXTRA_CHANNELS ("Name:ID,Name:ID").
	ExtraChannels []Channel
	AdminID       int64

	MaxMedia       int
	MaxTextLength  int
	VideoCapExempt bool

	CustomPhotos []string
	CustomVideos []string

	SentryDSN       string
	MongoDBURI      string
	MongoDBDatabase string
}

// AllChannels returns the primary channel plus the extras, in order.
func (c *Config) AllChannels() []Channel {
	channels := make([]Channel, 0, len(c.ExtraChannels)+1)
	channels = append(channels, Channel{Name: "Основной канал", ChatID: c.ChannelID})
	channels = append(channels, c.ExtraChannels...)
	return channels
}

// LoadConfig loads configuration from environment variables.
// It attempts to load a .env file if present but prioritizes
// actual environment variables set in the system (e.g., by Docker).
func LoadConfig() (*Config, error) {
	// Load .env file if it exists (useful for development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	debug, _ := strconv.ParseBool(getEnv("DEBUG", "false"))

	channelID, err := parseInt64Env("CHANNEL_ID")
	if err != nil {
		return nil, err
	}
	adminID, err := parseInt64Env("ADMIN_ID")
	if err != nil {
		return nil, err
	}

	maxMedia, err := parseIntEnv("MAX_MEDIA", 10)
	if err != nil {
		return nil, err
	}
	maxTextLength, err := parseIntEnv("MAX_TEXT_LENGTH", 4096)
	if err != nil {
		return nil, err
	}
	videoCapExempt, _ := strconv.ParseBool(getEnv("VIDEO_CAP_EXEMPT", "true"))

	extraChannels, err := parseChannels(getEnv("EXTRA_CHANNELS", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Debug:           debug,
		Version:         getEnv("VERSION", "dev"),
		BotToken:        getEnv("TELEGRAM_BOT_TOKEN", ""),
		ChannelID:       channelID,
		ExtraChannels:   extraChannels,
		AdminID:         adminID,
		MaxMedia:        maxMedia,
		MaxTextLength:   maxTextLength,
		VideoCapExempt:  videoCapExempt,
		CustomPhotos:    parsePathList(getEnv("CUSTOM_PHOTOS", "")),
		CustomVideos:    parsePathList(getEnv("CUSTOM_VIDEOS", "")),
		SentryDSN:       getEnv("SENTRY_DSN", ""),
		MongoDBURI:      getEnv("MONGODB_URI", ""),
		MongoDBDatabase: getEnv("MONGODB_DATABASE", ""),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.ChannelID == 0 {
		return nil, fmt.Errorf("CHANNEL_ID is required")
	}
	if cfg.AdminID == 0 {
		return nil, fmt.Errorf("ADMIN_ID is required")
	}
	if cfg.SentryDSN == "" {
		log.Println("Warning: SENTRY_DSN is not set. Error tracking disabled.")
	}
	if cfg.MongoDBURI == "" {
		log.Println("Warning: MONGODB_URI is not set. Post log and scheduled links stay in memory.")
	} else if cfg.MongoDBDatabase == "" {
		return nil, fmt.Errorf("MONGODB_DATABASE is required when MONGODB_URI is set")
	}

	return cfg, nil
}

// parseChannels parses the "Name:ID,Name:ID" destination list. Names may
// contain colons; the ID is everything after the last one.
func parseChannels(raw string) ([]Channel, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var channels []Channel
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		sep := strings.LastIndex(entry, ":")
		if sep <= 0 || sep == len(entry)-1 {
			return nil, fmt.Errorf("invalid EXTRA_CHANNELS entry %q, expected Name:ID", entry)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(entry[sep+1:]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid EXTRA_CHANNELS entry %q: %w", entry, err)
		}
		channels = append(channels, Channel{Name: strings.TrimSpace(entry[:sep]), ChatID: id})
	}
	return channels, nil
}

func parsePathList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var paths []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func parseInt64Env(key string) (int64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
