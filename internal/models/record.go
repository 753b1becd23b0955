// Package models defines the canonical content record produced by the
// classifier and consumed by the document store and the enrichment pipeline.
package models

// RecordType is the primary classification of an inbound message.
type RecordType string

const (
	TypeQuote     RecordType = "quote"
	TypeLink      RecordType = "link"
	TypeImage     RecordType = "image"
	TypeGif       RecordType = "gif"
	TypeVideo     RecordType = "video"
	TypeVideoNote RecordType = "video_note"
	TypeVoice     RecordType = "voice"
	TypeAudio     RecordType = "audio"
	TypeDocument  RecordType = "document"
	TypePDF       RecordType = "pdf"
	// TypePost is the composite type for forwarded or captioned media:
	// a media reference plus rendered text and provenance.
	TypePost RecordType = "tgpost"
)

// Provenance identifies where a forwarded message came from. The forwarder's
// name is only ever populated together with a resolvable public profile link.
type Provenance struct {
	ChannelTitle      string `json:"channelTitle,omitempty"`
	ForwardedFromName string `json:"forwardedFromName,omitempty"`
}

// ContentRecord is the normalized representation of one inbound message,
// independent of the raw Telegram update shape.
type ContentRecord struct {
	Type            RecordType  `json:"type"`
	MediaType       string      `json:"mediaType,omitempty"` // set when Type == tgpost
	FileRef         string      `json:"fileRef,omitempty"`
	ThumbnailRef    string      `json:"thumbnailRef,omitempty"`
	Content         string      `json:"content,omitempty"`
	ContentIsMarkup bool        `json:"contentIsMarkup,omitempty"`
	SourceURL       string      `json:"sourceUrl,omitempty"`
	Provenance      *Provenance `json:"provenance,omitempty"`
	MediaGroupKey   string      `json:"mediaGroupKey,omitempty"`
	SideData        SideData    `json:"sideData,omitempty"`
}

// IsEmpty reports whether the record carries nothing worth persisting.
// A record is non-empty when it has a file reference, a source URL, or text.
func (r *ContentRecord) IsEmpty() bool {
	if r == nil {
		return true
	}
	return r.FileRef == "" && r.SourceURL == "" && r.Content == ""
}

// SetSide stores a single enrichment field, allocating the map on first use.
func (r *ContentRecord) SetSide(key string, value any) {
	if r.SideData == nil {
		r.SideData = SideData{}
	}
	r.SideData[key] = value
}

// SideData is the open, additively merged bag of enrichment fields attached
// to a record after classification (file size, duration, AI results, archive
// URL, ...).
type SideData map[string]any

// Merge copies every non-empty field of patch into d. Empty or absent incoming
// values never erase previously stored values for the same key.
func (d SideData) Merge(patch SideData) {
	for k, v := range patch {
		if isEmptyValue(v) {
			continue
		}
		d[k] = v
	}
}

// Clone returns a shallow copy, so a merge never mutates a shared map.
func (d SideData) Clone() SideData {
	out := make(SideData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case SideData:
		return len(t) == 0
	}
	return false
}
