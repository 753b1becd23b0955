// Package richtext converts a plain string plus Telegram formatting entities
// into minimal, well-formed HTML markup. Offsets and lengths follow the
// platform convention and are measured in UTF-16 code units.
package richtext

import (
	"sort"
	"strings"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SpanKind identifies one supported formatting instruction.
type SpanKind string

const (
	KindBold      SpanKind = "bold"
	KindItalic    SpanKind = "italic"
	KindUnderline SpanKind = "underline"
	KindStrike    SpanKind = "strike"
	KindCode      SpanKind = "code"
	KindPre       SpanKind = "pre"
	KindLink      SpanKind = "link"
	KindBareURL   SpanKind = "bareUrl"
)

// Span is a formatting instruction anchored to an offset/length range of the
// source text. Immutable once constructed.
type Span struct {
	Offset int
	Length int
	Kind   SpanKind
	URL    string // destination for KindLink; KindBareURL uses the covered text
}

var entityKinds = map[string]SpanKind{
	"bold":          KindBold,
	"italic":        KindItalic,
	"underline":     KindUnderline,
	"strikethrough": KindStrike,
	"code":          KindCode,
	"pre":           KindPre,
	"text_link":     KindLink,
	"url":           KindBareURL,
}

// SpansFromEntities converts platform message entities into spans. Entity
// types without a markup mapping (mentions, hashtags, commands, ...) are
// dropped.
func SpansFromEntities(entities []tgbotapi.MessageEntity) []Span {
	spans := make([]Span, 0, len(entities))
	for _, e := range entities {
		kind, ok := entityKinds[e.Type]
		if !ok {
			continue
		}
		spans = append(spans, Span{Offset: e.Offset, Length: e.Length, Kind: kind, URL: e.URL})
	}
	return spans
}

type event struct {
	pos  int
	open bool
	span Span
}

// Render serializes text and its spans into well-formed markup. It is pure
// and never fails: overlapping, adjacent and zero-length spans are all legal
// input. Spans that overlap without nesting are serialized in a different but
// still well-formed nesting order (each close event closes the most recently
// opened span that is still open).
func Render(text string, spans []Span) string {
	units := utf16.Encode([]rune(text))

	events := make([]event, 0, len(spans)*2)
	for _, s := range spans {
		if s.Length <= 0 {
			continue // no visible effect either way
		}
		start, end := clamp(s.Offset, len(units)), clamp(s.Offset+s.Length, len(units))
		if start >= end {
			continue
		}
		events = append(events, event{pos: start, open: true, span: s})
		events = append(events, event{pos: end, open: false, span: s})
	}
	// Closes sort before opens at equal positions so that a span ending
	// exactly where another begins never produces crossed tags.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].pos != events[j].pos {
			return events[i].pos < events[j].pos
		}
		return !events[i].open && events[j].open
	})

	var b strings.Builder
	var stack []Span
	prev := 0
	for _, ev := range events {
		b.WriteString(escape(string(utf16.Decode(units[prev:ev.pos]))))
		prev = ev.pos

		if ev.open {
			stack = append(stack, ev.span)
			writeOpenTag(&b, ev.span, units)
		} else if len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			writeCloseTag(&b, top)
		}
	}
	b.WriteString(escape(string(utf16.Decode(units[prev:]))))
	return b.String()
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func writeOpenTag(b *strings.Builder, s Span, units []uint16) {
	switch s.Kind {
	case KindBold:
		b.WriteString("<b>")
	case KindItalic:
		b.WriteString("<i>")
	case KindUnderline:
		b.WriteString("<u>")
	case KindStrike:
		b.WriteString("<s>")
	case KindCode:
		b.WriteString("<code>")
	case KindPre:
		b.WriteString("<pre>")
	case KindLink, KindBareURL:
		dest := s.URL
		if dest == "" {
			start, end := clamp(s.Offset, len(units)), clamp(s.Offset+s.Length, len(units))
			dest = string(utf16.Decode(units[start:end]))
		}
		b.WriteString(`<a href="` + escape(dest) + `">`)
	}
}

func writeCloseTag(b *strings.Builder, s Span) {
	switch s.Kind {
	case KindBold:
		b.WriteString("</b>")
	case KindItalic:
		b.WriteString("</i>")
	case KindUnderline:
		b.WriteString("</u>")
	case KindStrike:
		b.WriteString("</s>")
	case KindCode:
		b.WriteString("</code>")
	case KindPre:
		b.WriteString("</pre>")
	case KindLink, KindBareURL:
		b.WriteString("</a>")
	}
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string {
	return escaper.Replace(s)
}
