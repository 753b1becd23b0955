// Package telegram wraps the Telegram Bot API calls the pipeline needs:
// resolving file references to byte URLs, silent uploads, copying messages
// into the archive channel, and setting reaction emojis.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"memobox/backend/internal/cache"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram file links stay valid for one hour; cache a little under that.
const fileURLTTL = 55 * time.Minute

// Client is the messenger collaborator.
type Client struct {
	BotAPI       *tgbotapi.BotAPI
	Cache        cache.TTLCache
	UploadChatID int64 // chat that receives silent screenshot uploads
	HTTPClient   *http.Client
}

// NewClient authorizes the bot and wires the file-URL cache.
func NewClient(token string, c cache.TTLCache, uploadChatID int64) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	return &Client{
		BotAPI:       bot,
		Cache:        c,
		UploadChatID: uploadChatID,
		HTTPClient:   http.DefaultClient,
	}, nil
}

// ResolveFileURL turns a file reference into a downloadable URL, memoized
// through the injected TTL cache.
func (c *Client) ResolveFileURL(ctx context.Context, fileID string) (string, error) {
	if c.Cache != nil {
		if url, ok := c.Cache.Get(ctx, fileID); ok {
			return url, nil
		}
	}
	file, err := c.BotAPI.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("get file %s: %w", fileID, err)
	}
	url := file.Link(c.BotAPI.Token)
	if c.Cache != nil {
		c.Cache.Set(ctx, fileID, url, fileURLTTL)
	}
	return url, nil
}

// FetchFile resolves a file reference and downloads its bytes.
func (c *Client) FetchFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := c.ResolveFileURL(ctx, fileID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download file %s: status %d", fileID, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// UploadPhoto sends image bytes to the upload chat without a notification and
// returns the file reference of the largest stored variant. ctx is not
// propagated: the bot API library's send path is not context-aware.
func (c *Client) UploadPhoto(ctx context.Context, data []byte, name string) (string, error) {
	photo := tgbotapi.NewPhoto(c.UploadChatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	photo.DisableNotification = true

	sent, err := c.BotAPI.Send(photo)
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	if len(sent.Photo) == 0 {
		return "", fmt.Errorf("upload photo: response carried no photo sizes")
	}
	return sent.Photo[len(sent.Photo)-1].FileID, nil
}

// CopyMessage duplicates a message into toChatID without a notification and
// returns the new message ID. ctx is not propagated: the bot API library's
// send path is not context-aware.
func (c *Client) CopyMessage(ctx context.Context, fromChatID int64, messageID int, toChatID int64) (int, error) {
	cfg := tgbotapi.NewCopyMessage(toChatID, fromChatID, messageID)
	cfg.DisableNotification = true

	res, err := c.BotAPI.CopyMessage(cfg)
	if err != nil {
		return 0, fmt.Errorf("copy message %d: %w", messageID, err)
	}
	return res.MessageID, nil
}

// SetReaction sets a single-emoji reaction on a message. The endpoint is not
// part of the library's typed surface, so it goes through MakeRequest, which
// is not context-aware; ctx is accepted for interface consistency only.
func (c *Client) SetReaction(ctx context.Context, chatID int64, messageID int, emoji string) error {
	params := tgbotapi.Params{
		"chat_id":    strconv.FormatInt(chatID, 10),
		"message_id": strconv.Itoa(messageID),
		"reaction":   `[{"type":"emoji","emoji":"` + emoji + `"}]`,
	}
	if _, err := c.BotAPI.MakeRequest("setMessageReaction", params); err != nil {
		return fmt.Errorf("set reaction: %w", err)
	}
	return nil
}
