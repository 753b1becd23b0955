// Package archive duplicates oversized or non-previewable messages into a
// dedicated archive channel so the stored record can link to a durable public
// copy.
package archive

import (
	"context"
	"fmt"
	"strconv"

	"memobox/backend/internal/models"
)

// FileSizeThreshold is the size above which media is archived; Telegram's
// bot file API stops serving downloads past 20 MiB.
const FileSizeThreshold = 20 << 20

// Copier copies a message into another chat without notification.
type Copier interface {
	CopyMessage(ctx context.Context, fromChatID int64, messageID int, toChatID int64) (int, error)
}

// Forwarder copies messages into the archive channel and derives public URLs.
type Forwarder struct {
	Copier          Copier
	ChannelID       int64
	ChannelUsername string // empty when the archive channel is private
}

// NewForwarder builds a forwarder for one archive channel.
func NewForwarder(copier Copier, channelID int64, channelUsername string) *Forwarder {
	return &Forwarder{Copier: copier, ChannelID: channelID, ChannelUsername: channelUsername}
}

// ShouldArchive reports whether a record's media needs the archive copy:
// either it exceeds the bot-API download limit or it is a generic document
// with no native preview.
func ShouldArchive(rec *models.ContentRecord) bool {
	if rec.FileRef == "" {
		return false
	}
	if rec.Type == models.TypeDocument || rec.MediaType == "document" {
		return true
	}
	if size, ok := rec.SideData["fileSize"].(int); ok && size > FileSizeThreshold {
		return true
	}
	return false
}

// Forward duplicates the original message into the archive channel and
// returns the public URL of the copy. The URL is empty when the channel has
// no public handle; the copy still happens.
func (f *Forwarder) Forward(ctx context.Context, fromChatID int64, messageID int) (string, error) {
	newID, err := f.Copier.CopyMessage(ctx, fromChatID, messageID, f.ChannelID)
	if err != nil {
		return "", fmt.Errorf("archive copy: %w", err)
	}
	if f.ChannelUsername == "" {
		return "", nil
	}
	return "https://t.me/" + f.ChannelUsername + "/" + strconv.Itoa(newID), nil
}
