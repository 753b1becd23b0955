// Package classifier inspects one inbound Telegram message and produces the
// canonical content record. Classification is a pure function of the message:
// no network calls, no stored state.
package classifier

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"

	"memobox/backend/internal/models"
	"memobox/backend/internal/richtext"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// bareDomain matches a leading domain-like token ("example.com",
// "sub.host.io/path"). Intentionally narrow: it must start the text and carry
// no embedded whitespace, so mid-sentence domains stay quotes.
var bareDomain = regexp.MustCompile(`^[\w-]+(\.[\w-]+)+(/\S*)?$`)

// Classify normalizes msg into a content record. senderIsTrustedSelf marks
// updates coming from the bot owner's own account; self-forwards are never
// attributed. Returns a record that may be empty — callers drop those.
func Classify(msg *tgbotapi.Message, senderIsTrustedSelf bool) *models.ContentRecord {
	rec := &models.ContentRecord{MediaGroupKey: msg.MediaGroupID}

	isForward := applyProvenance(rec, msg, senderIsTrustedSelf)
	hasCaption := strings.TrimSpace(msg.Caption) != ""

	if media, ok := extractMedia(rec, msg); ok {
		if isForward || hasCaption {
			rec.Type = models.TypePost
			rec.MediaType = media
		} else {
			rec.Type = baseType(media)
		}
		// Entity offsets refer to the untrimmed caption.
		rec.Content, rec.ContentIsMarkup = renderText(msg.Caption, msg.CaptionEntities)
		return rec
	}

	text := msg.Text
	if text == "" {
		return rec // empty record, dropped upstream
	}

	if isForward {
		rec.Type = models.TypePost
		rec.Content, rec.ContentIsMarkup = renderText(text, msg.Entities)
		if rec.SourceURL == "" {
			rec.SourceURL = firstEntityURL(text, msg.Entities)
		}
		return rec
	}

	if url, rest, ok := flaggedURL(text, msg.Entities); ok {
		rec.Type = models.TypeLink
		rec.SourceURL = normalizeScheme(url)
		rec.Content = rest
		return rec
	}

	if url, rest, ok := bareDomainMatch(text); ok {
		rec.Type = models.TypeLink
		rec.SourceURL = normalizeScheme(url)
		rec.Content = rest
		return rec
	}

	rec.Type = models.TypeQuote
	rec.Content = text
	return rec
}

// applyProvenance fills source URL and provenance from forward-origin
// metadata and reports whether the message is a forward at all.
//
// Privacy rule: a forwarding user's name is only recorded together with a
// link to their public profile. Hidden accounts (ForwardSenderName) and
// handle-less users leave provenance empty even though the forward is known.
func applyProvenance(rec *models.ContentRecord, msg *tgbotapi.Message, senderIsTrustedSelf bool) bool {
	switch {
	case msg.ForwardFromChat != nil:
		ch := msg.ForwardFromChat
		rec.Provenance = &models.Provenance{ChannelTitle: ch.Title}
		if ch.UserName != "" && msg.ForwardFromMessageID != 0 {
			rec.SourceURL = "https://t.me/" + ch.UserName + "/" + strconv.Itoa(msg.ForwardFromMessageID)
		}
		return true
	case msg.ForwardFrom != nil:
		from := msg.ForwardFrom
		selfForward := senderIsTrustedSelf && msg.From != nil && msg.From.ID == from.ID
		if from.UserName != "" && !selfForward {
			rec.SourceURL = "https://t.me/" + from.UserName
			rec.Provenance = &models.Provenance{ForwardedFromName: displayName(from)}
		}
		return true
	case msg.ForwardSenderName != "":
		// Hidden account: the forward is known but must not be attributed.
		return true
	case msg.ForwardDate != 0:
		return true
	}
	return false
}

func displayName(u *tgbotapi.User) string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}

// extractMedia sets file/thumbnail references and media side-data from the
// first matching media field and returns its fine-grained kind. A message
// carries at most one media field.
func extractMedia(rec *models.ContentRecord, msg *tgbotapi.Message) (string, bool) {
	switch {
	case len(msg.Photo) > 0:
		largest := msg.Photo[len(msg.Photo)-1]
		rec.FileRef = largest.FileID
		rec.SetSide("fileSize", largest.FileSize)
		return "image", true

	case msg.Animation != nil:
		a := msg.Animation
		rec.FileRef = a.FileID
		setThumb(rec, a.Thumbnail)
		rec.SetSide("fileSize", a.FileSize)
		rec.SetSide("duration", a.Duration)
		return "gif", true

	case msg.Video != nil:
		v := msg.Video
		rec.FileRef = v.FileID
		setThumb(rec, v.Thumbnail)
		rec.SetSide("fileSize", v.FileSize)
		rec.SetSide("duration", v.Duration)
		return "video", true

	case msg.Document != nil:
		d := msg.Document
		rec.FileRef = d.FileID
		setThumb(rec, d.Thumbnail)
		rec.SetSide("fileSize", d.FileSize)
		rec.SetSide("fileName", d.FileName)
		switch {
		case strings.HasPrefix(d.MimeType, "image/"):
			return "image", true
		case d.MimeType == "application/pdf":
			return "pdf", true
		}
		return "document", true

	case msg.VideoNote != nil:
		vn := msg.VideoNote
		rec.FileRef = vn.FileID
		setThumb(rec, vn.Thumbnail)
		rec.SetSide("fileSize", vn.FileSize)
		rec.SetSide("duration", vn.Duration)
		return "video_note", true

	case msg.Voice != nil:
		v := msg.Voice
		rec.FileRef = v.FileID
		rec.SetSide("fileSize", v.FileSize)
		rec.SetSide("duration", v.Duration)
		return "voice", true

	case msg.Audio != nil:
		a := msg.Audio
		rec.FileRef = a.FileID
		setThumb(rec, a.Thumbnail)
		rec.SetSide("fileSize", a.FileSize)
		rec.SetSide("duration", a.Duration)
		rec.SetSide("performer", a.Performer)
		rec.SetSide("title", a.Title)
		return "audio", true
	}
	return "", false
}

func setThumb(rec *models.ContentRecord, t *tgbotapi.PhotoSize) {
	if t != nil {
		rec.ThumbnailRef = t.FileID
	}
}

func baseType(media string) models.RecordType {
	switch media {
	case "image":
		return models.TypeImage
	case "gif":
		return models.TypeGif
	case "video":
		return models.TypeVideo
	case "pdf":
		return models.TypePDF
	case "video_note":
		return models.TypeVideoNote
	case "voice":
		return models.TypeVoice
	case "audio":
		return models.TypeAudio
	}
	return models.TypeDocument
}

// renderText passes text through the renderer when formatting spans exist;
// a span-less text stays verbatim.
func renderText(text string, entities []tgbotapi.MessageEntity) (string, bool) {
	spans := richtext.SpansFromEntities(entities)
	if len(spans) == 0 {
		return text, false
	}
	return richtext.Render(text, spans), true
}

// firstEntityURL harvests the first URL-bearing entity of a forwarded text.
func firstEntityURL(text string, entities []tgbotapi.MessageEntity) string {
	for _, e := range entities {
		switch e.Type {
		case "text_link":
			return e.URL
		case "url":
			return normalizeScheme(entitySubstring(text, e))
		}
	}
	return ""
}

// flaggedURL handles text carrying a platform-flagged bare URL entity: the
// URL substring becomes the source and is removed from the content.
func flaggedURL(text string, entities []tgbotapi.MessageEntity) (url, rest string, ok bool) {
	for _, e := range entities {
		if e.Type != "url" {
			continue
		}
		url = entitySubstring(text, e)
		rest = strings.TrimSpace(strings.Replace(text, url, "", 1))
		return url, rest, true
	}
	return "", "", false
}

// bareDomainMatch applies the manual domain heuristic to the first
// whitespace-delimited token.
func bareDomainMatch(text string) (url, rest string, ok bool) {
	token := text
	if i := strings.IndexAny(text, " \t\n"); i >= 0 {
		token = text[:i]
		rest = strings.TrimSpace(text[i:])
	}
	if !bareDomain.MatchString(token) {
		return "", "", false
	}
	return token, rest, true
}

func normalizeScheme(url string) string {
	if url == "" || strings.Contains(url, "://") {
		return url
	}
	return "https://" + url
}

// entitySubstring slices the entity's UTF-16 range out of text.
func entitySubstring(text string, e tgbotapi.MessageEntity) string {
	units := utf16.Encode([]rune(text))
	start, end := e.Offset, e.Offset+e.Length
	if start < 0 || end > len(units) || start >= end {
		return ""
	}
	return string(utf16.Decode(units[start:end]))
}
