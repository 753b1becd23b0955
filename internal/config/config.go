// Package config loads all runtime settings from the environment. A .env
// file is honored when present (loaded in main via godotenv).
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Provider names accepted in AI_PROVIDER.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Config is the full runtime configuration.
type Config struct {
	ListenAddr string

	TelegramToken string
	WebhookSecret string
	// TrustedUserID is the bot owner's Telegram account; forwards from it
	// are the owner's own messages and are never attributed.
	TrustedUserID int64
	// UploadChatID is a private chat used to park screenshot uploads so
	// they get a Telegram file id.
	UploadChatID int64

	ArchiveChannelID       int64
	ArchiveChannelUsername string

	NotionToken      string
	NotionDatabaseID string

	ScreenshotEndpoint string
	ScreenshotAPIKey   string

	AIProvider      string
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PromptsPath string
}

// LoadFromEnv reads the configuration from environment variables and
// validates the required settings.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:             getenv("LISTEN_ADDR", ":8080"),
		TelegramToken:          os.Getenv("TELEGRAM_BOT_TOKEN"),
		WebhookSecret:          os.Getenv("WEBHOOK_SECRET_TOKEN"),
		ArchiveChannelUsername: os.Getenv("ARCHIVE_CHANNEL_USERNAME"),
		NotionToken:            os.Getenv("NOTION_TOKEN"),
		NotionDatabaseID:       os.Getenv("NOTION_DATABASE_ID"),
		ScreenshotEndpoint:     os.Getenv("SCREENSHOT_ENDPOINT"),
		ScreenshotAPIKey:       os.Getenv("SCREENSHOT_API_KEY"),
		AIProvider:             getenv("AI_PROVIDER", ProviderGemini),
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		GeminiModel:            getenv("GEMINI_MODEL", "gemini-2.0-flash"),
		AnthropicAPIKey:        os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:         getenv("ANTHROPIC_MODEL", "claude-3-5-sonnet-latest"),
		RedisAddr:              getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		PromptsPath:            getenv("PROMPTS_CONFIG_PATH", "configs/prompts.yaml"),
	}

	var err error
	if cfg.TrustedUserID, err = getint64("TRUSTED_USER_ID"); err != nil {
		return nil, err
	}
	if cfg.UploadChatID, err = getint64("UPLOAD_CHAT_ID"); err != nil {
		return nil, err
	}
	if cfg.ArchiveChannelID, err = getint64("ARCHIVE_CHANNEL_ID"); err != nil {
		return nil, err
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if cfg.RedisDB, err = strconv.Atoi(val); err != nil {
			return nil, fmt.Errorf("REDIS_DB: %w", err)
		}
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("WEBHOOK_SECRET_TOKEN is required")
	}
	if cfg.NotionToken == "" || cfg.NotionDatabaseID == "" {
		return nil, fmt.Errorf("NOTION_TOKEN and NOTION_DATABASE_ID are required")
	}
	if cfg.ScreenshotEndpoint != "" && cfg.UploadChatID == 0 {
		return nil, fmt.Errorf("UPLOAD_CHAT_ID is required when SCREENSHOT_ENDPOINT is set")
	}
	switch cfg.AIProvider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for transcription")
		}
	default:
		return nil, fmt.Errorf("AI_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderAnthropic, cfg.AIProvider)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getint64(key string) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
