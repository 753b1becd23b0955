package config_test

import (
	"testing"

	"memobox/backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("WEBHOOK_SECRET_TOKEN", "s3cret")
	t.Setenv("NOTION_TOKEN", "secret_x")
	t.Setenv("NOTION_DATABASE_ID", "db1")
	t.Setenv("GEMINI_API_KEY", "g-key")
}

func TestLoadFromEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, config.ProviderGemini, cfg.AIProvider)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadFromEnvMissingToken(t *testing.T) {
	setRequired(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	_, err := config.LoadFromEnv()
	assert.Error(t, err)
}

func TestLoadFromEnvAnthropicNeedsBothKeys(t *testing.T) {
	setRequired(t)
	t.Setenv("AI_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "a-key")

	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, config.ProviderAnthropic, cfg.AIProvider)

	t.Setenv("GEMINI_API_KEY", "")
	_, err = config.LoadFromEnv()
	assert.Error(t, err)
}

func TestLoadFromEnvUnknownProvider(t *testing.T) {
	setRequired(t)
	t.Setenv("AI_PROVIDER", "palm")

	_, err := config.LoadFromEnv()
	assert.Error(t, err)
}

func TestLoadFromEnvScreenshotNeedsUploadChat(t *testing.T) {
	setRequired(t)
	t.Setenv("SCREENSHOT_ENDPOINT", "https://shot.example.com/screenshot")

	_, err := config.LoadFromEnv()
	assert.Error(t, err)

	t.Setenv("UPLOAD_CHAT_ID", "5005")
	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, int64(5005), cfg.UploadChatID)
}

func TestLoadFromEnvParsesIDs(t *testing.T) {
	setRequired(t)
	t.Setenv("TRUSTED_USER_ID", "900")
	t.Setenv("ARCHIVE_CHANNEL_ID", "-100123")
	t.Setenv("REDIS_DB", "2")

	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, int64(900), cfg.TrustedUserID)
	assert.Equal(t, int64(-100123), cfg.ArchiveChannelID)
	assert.Equal(t, 2, cfg.RedisDB)

	t.Setenv("TRUSTED_USER_ID", "not-a-number")
	_, err = config.LoadFromEnv()
	assert.Error(t, err)
}
