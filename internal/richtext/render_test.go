package richtext_test

import (
	"strings"
	"testing"

	"memobox/backend/internal/richtext"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

func TestRenderNoSpans(t *testing.T) {
	out := richtext.Render("plain text, no tags", nil)
	assert.Equal(t, "plain text, no tags", out)
}

func TestRenderEscapesMetacharacters(t *testing.T) {
	out := richtext.Render("a < b && b > c", nil)
	assert.Equal(t, "a &lt; b &amp;&amp; b &gt; c", out)
}

func TestRenderSimpleBold(t *testing.T) {
	spans := []richtext.Span{{Offset: 0, Length: 4, Kind: richtext.KindBold}}
	out := richtext.Render("bold and plain", spans)
	assert.Equal(t, "<b>bold</b> and plain", out)
}

// Overlapping (not nested) spans must still produce well-formed markup with
// exactly one open and one close per span.
func TestRenderOverlappingSpans(t *testing.T) {
	spans := []richtext.Span{
		{Offset: 0, Length: 10, Kind: richtext.KindBold},
		{Offset: 5, Length: 10, Kind: richtext.KindItalic},
	}
	out := richtext.Render("0123456789abcdefghij", spans)

	assert.Equal(t, 1, strings.Count(out, "<b>"))
	assert.Equal(t, 1, strings.Count(out, "</b>"))
	assert.Equal(t, 1, strings.Count(out, "<i>"))
	assert.Equal(t, 1, strings.Count(out, "</i>"))
	// The italic opened after bold, so it must close before bold does.
	assert.Equal(t, "<b>01234<i>56789</i>abcde</b>fghij", out)
}

// A span ending exactly where another begins: the close comes first.
func TestRenderBoundaryTieBreak(t *testing.T) {
	spans := []richtext.Span{
		{Offset: 0, Length: 5, Kind: richtext.KindBold},
		{Offset: 5, Length: 5, Kind: richtext.KindItalic},
	}
	out := richtext.Render("0123456789", spans)
	assert.Equal(t, "<b>01234</b><i>56789</i>", out)
}

func TestRenderNestedSpans(t *testing.T) {
	spans := []richtext.Span{
		{Offset: 0, Length: 10, Kind: richtext.KindBold},
		{Offset: 2, Length: 4, Kind: richtext.KindItalic},
	}
	out := richtext.Render("0123456789", spans)
	assert.Equal(t, "<b>01<i>2345</i>6789</b>", out)
}

func TestRenderZeroLengthSpanHasNoEffect(t *testing.T) {
	spans := []richtext.Span{
		{Offset: 0, Length: 10, Kind: richtext.KindBold},
		{Offset: 5, Length: 0, Kind: richtext.KindItalic},
	}
	out := richtext.Render("0123456789", spans)
	assert.Equal(t, "<b>0123456789</b>", out)
}

func TestRenderTextLink(t *testing.T) {
	spans := []richtext.Span{{Offset: 5, Length: 4, Kind: richtext.KindLink, URL: "https://example.com/a?b=1&c=2"}}
	out := richtext.Render("see: here", spans)
	assert.Equal(t, `see: <a href="https://example.com/a?b=1&amp;c=2">here</a>`, out)
}

func TestRenderBareURLUsesCoveredText(t *testing.T) {
	text := "go to example.com now"
	spans := []richtext.Span{{Offset: 6, Length: 11, Kind: richtext.KindBareURL}}
	out := richtext.Render(text, spans)
	assert.Equal(t, `go to <a href="example.com">example.com</a> now`, out)
}

// Telegram offsets are UTF-16 code units; an emoji before the span occupies
// two units.
func TestRenderUTF16Offsets(t *testing.T) {
	text := "🎉 party"
	spans := []richtext.Span{{Offset: 3, Length: 5, Kind: richtext.KindBold}}
	out := richtext.Render(text, spans)
	assert.Equal(t, "🎉 <b>party</b>", out)
}

func TestRenderOutOfRangeSpanClamped(t *testing.T) {
	spans := []richtext.Span{{Offset: 2, Length: 100, Kind: richtext.KindBold}}
	out := richtext.Render("abcd", spans)
	assert.Equal(t, "ab<b>cd</b>", out)
}

func TestSpansFromEntitiesDropsUnsupported(t *testing.T) {
	entities := []tgbotapi.MessageEntity{
		{Type: "bold", Offset: 0, Length: 3},
		{Type: "bot_command", Offset: 4, Length: 6},
		{Type: "mention", Offset: 11, Length: 5},
		{Type: "text_link", Offset: 17, Length: 4, URL: "https://example.com"},
	}
	spans := richtext.SpansFromEntities(entities)
	assert.Len(t, spans, 2)
	assert.Equal(t, richtext.KindBold, spans[0].Kind)
	assert.Equal(t, richtext.KindLink, spans[1].Kind)
	assert.Equal(t, "https://example.com", spans[1].URL)
}
