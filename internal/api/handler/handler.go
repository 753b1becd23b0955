// Package handler is the webhook entry point: it validates the inbound
// Telegram update, classifies it, persists the initial record, acknowledges
// the sender, and hands the rest to the background pipeline. The webhook
// always answers 200 for authenticated requests so Telegram never redelivers
// an update because of a downstream failure.
package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"memobox/backend/internal/classifier"
	"memobox/backend/internal/models"
	"memobox/backend/internal/pipeline"
)

const secretHeader = "X-Webhook-Secret-Token"

const (
	ackEmoji     = "👍"
	failureEmoji = "💔"
)

// Store persists classified records.
type Store interface {
	CreateRecord(ctx context.Context, rec *models.ContentRecord) (string, error)
}

// Reactor sets an emoji reaction on the original message.
type Reactor interface {
	SetReaction(ctx context.Context, chatID int64, messageID int, emoji string) error
}

// Runner schedules the detached continuation work after the response is
// sent. Production wiring runs it in a goroutine; tests run it inline.
type Runner func(work func())

// Handler coordinates one webhook invocation.
type Handler struct {
	Secret        string
	TrustedUserID int64
	Store         Store
	Reactor       Reactor
	Pipeline      *pipeline.Pipeline
	Run           Runner
}

// NewHandler creates a webhook handler service.
func NewHandler(secret string, trustedUserID int64, store Store, reactor Reactor, p *pipeline.Pipeline, run Runner) *Handler {
	if run == nil {
		run = func(work func()) { go work() }
	}
	return &Handler{
		Secret:        secret,
		TrustedUserID: trustedUserID,
		Store:         store,
		Reactor:       reactor,
		Pipeline:      p,
		Run:           run,
	}
}

// HandleWebhook processes one Telegram update. Only authentication failures
// surface as non-200 responses; every processing failure is logged and
// swallowed so the update is never redelivered.
func (h *Handler) HandleWebhook(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Status(http.StatusMethodNotAllowed)
		return
	}
	if c.GetHeader(secretHeader) != h.Secret {
		c.Status(http.StatusUnauthorized)
		return
	}

	corrID := uuid.NewString()

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		log.Printf("WARN: [%s] undecodable update: %v", corrID, err)
		c.Status(http.StatusOK)
		return
	}
	msg := update.Message
	if msg == nil {
		c.Status(http.StatusOK)
		return
	}

	trustedSender := msg.From != nil && msg.From.ID == h.TrustedUserID
	rec := classifier.Classify(msg, trustedSender)
	if rec.IsEmpty() {
		log.Printf("WARN: [%s] message %d has no storable content, dropped", corrID, msg.MessageID)
		c.Status(http.StatusOK)
		return
	}

	ctx := c.Request.Context()
	pageID, err := h.Store.CreateRecord(ctx, rec)
	if err != nil {
		log.Printf("ERROR: [%s] persist record: %v", corrID, err)
		h.react(ctx, corrID, msg, failureEmoji)
		c.Status(http.StatusOK)
		return
	}
	log.Printf("[%s] stored %s record as page %s", corrID, rec.Type, pageID)

	h.react(ctx, corrID, msg, ackEmoji)

	job := pipeline.Job{
		CorrID:    corrID,
		PageID:    pageID,
		Record:    rec,
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
	}
	h.Run(func() {
		// The webhook response must not wait on continuation work.
		h.Pipeline.Run(context.Background(), job)
	})

	c.Status(http.StatusOK)
}

func (h *Handler) react(ctx context.Context, corrID string, msg *tgbotapi.Message, emoji string) {
	if h.Reactor == nil {
		return
	}
	if err := h.Reactor.SetReaction(ctx, msg.Chat.ID, msg.MessageID, emoji); err != nil {
		log.Printf("WARN: [%s] set reaction: %v", corrID, err)
	}
}

// Health reports liveness for deployment probes.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
