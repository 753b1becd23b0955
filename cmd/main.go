package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"memobox/backend/internal/ai"
	"memobox/backend/internal/api/handler"
	"memobox/backend/internal/archive"
	"memobox/backend/internal/cache"
	"memobox/backend/internal/config"
	"memobox/backend/internal/docstore"
	"memobox/backend/internal/pipeline"
	"memobox/backend/internal/screenshot"
	"memobox/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func buildProviders(cfg *config.Config) (classify ai.Provider, transcribe ai.Provider) {
	gemini := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	if cfg.AIProvider == config.ProviderAnthropic {
		return ai.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel), gemini
	}
	return gemini, gemini
}

func main() {
	log.Println("Starting Memobox Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	fileCache := cache.NewRedisCache(rdb, "memobox:file:")
	tg, err := telegram.NewClient(cfg.TelegramToken, fileCache, cfg.UploadChatID)
	if err != nil {
		log.Fatalf("Failed to start Telegram client: %v", err)
	}

	store := docstore.NewClient(cfg.NotionToken, cfg.NotionDatabaseID)

	var capturer pipeline.Capturer
	if cfg.ScreenshotEndpoint != "" {
		capturer = screenshot.NewCapturer(cfg.ScreenshotEndpoint, cfg.ScreenshotAPIKey, tg)
	}

	var archiver pipeline.Archiver
	if cfg.ArchiveChannelID != 0 {
		archiver = archive.NewForwarder(tg, cfg.ArchiveChannelID, cfg.ArchiveChannelUsername)
	}

	prompts, err := ai.LoadPrompts(cfg.PromptsPath)
	if err != nil {
		log.Fatalf("Failed to load prompts: %v", err)
	}
	classify, transcribe := buildProviders(cfg)
	enricher := ai.NewOrchestrator(classify, transcribe, tg, prompts)

	p := pipeline.NewPipeline(store, capturer, archiver, enricher)
	h := handler.NewHandler(cfg.WebhookSecret, cfg.TrustedUserID, store, tg, p, nil)

	r := gin.Default()
	r.Any("/webhook", h.HandleWebhook)
	r.GET("/health", h.Health)

	server := &http.Server{
		Addr:           cfg.ListenAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Printf("Listening on %s", cfg.ListenAddr)
	log.Fatal(server.ListenAndServe())
}
