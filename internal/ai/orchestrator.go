package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"memobox/backend/internal/models"
)

// FileFetcher downloads Telegram file bytes by file id.
type FileFetcher interface {
	FetchFile(ctx context.Context, fileID string) ([]byte, error)
}

// Orchestrator selects an analysis strategy for a persisted record and turns
// the provider's response into a side-data patch. It is best-effort: callers
// log a failed Enrich and move on.
type Orchestrator struct {
	Provider    Provider // configured classification provider
	Transcriber Provider // audio-capable provider, always used for transcripts
	Files       FileFetcher
	Prompts     Prompts
}

// NewOrchestrator creates an AI orchestrator service.
func NewOrchestrator(provider, transcriber Provider, files FileFetcher, prompts Prompts) *Orchestrator {
	return &Orchestrator{
		Provider:    provider,
		Transcriber: transcriber,
		Files:       files,
		Prompts:     prompts,
	}
}

// Enrich analyzes one record and returns a side-data patch to merge into the
// stored record. screenshotRef is the uploaded screenshot's file id when a
// link capture preceded this call, empty otherwise. A nil patch with nil
// error means there was nothing to analyze.
func (o *Orchestrator) Enrich(ctx context.Context, rec *models.ContentRecord, screenshotRef string) (models.SideData, error) {
	switch kind := effectiveKind(rec); kind {
	case "voice", "video_note":
		return o.transcribe(ctx, rec, kind)
	case "audio":
		return o.coverArt(ctx, rec)
	case "pdf":
		return o.summarizePDF(ctx, rec)
	}

	if imageRef, saved := o.pickImage(rec, screenshotRef); imageRef != "" {
		return o.analyzeImage(ctx, rec, imageRef, saved)
	}

	if rec.SourceURL == "" && rec.Content == "" {
		return nil, nil
	}
	return o.analyzeText(ctx, rec)
}

// effectiveKind is the record's media kind: MediaType on a composite post,
// otherwise the base type itself names the media. Text-only records have no
// kind.
func effectiveKind(rec *models.ContentRecord) string {
	if rec.MediaType != "" {
		return rec.MediaType
	}
	switch rec.Type {
	case models.TypeQuote, models.TypeLink:
		return ""
	}
	return string(rec.Type)
}

// transcribe stores a verbatim transcript and skips all other analysis.
func (o *Orchestrator) transcribe(ctx context.Context, rec *models.ContentRecord, kind string) (models.SideData, error) {
	data, err := o.Files.FetchFile(ctx, rec.FileRef)
	if err != nil {
		return nil, fmt.Errorf("fetch audio: %w", err)
	}
	mime := "audio/ogg"
	if kind == "video_note" {
		mime = "video/mp4"
	}
	text, err := o.Transcriber.Generate(ctx, Request{
		Prompt: o.Prompts.Transcript,
		Media:  &Media{MIME: mime, Data: data},
	})
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	transcript := strings.TrimSpace(text)
	if transcript == "" {
		return nil, nil
	}
	return models.SideData{"transcript": transcript}, nil
}

// coverArt analyzes an audio file's embedded artwork for colors and title.
func (o *Orchestrator) coverArt(ctx context.Context, rec *models.ContentRecord) (models.SideData, error) {
	if rec.ThumbnailRef == "" {
		return nil, nil
	}
	data, err := o.Files.FetchFile(ctx, rec.ThumbnailRef)
	if err != nil {
		return nil, fmt.Errorf("fetch cover art: %w", err)
	}
	text, err := o.Provider.Generate(ctx, Request{
		Prompt: o.Prompts.CoverArt,
		Media:  &Media{MIME: "image/jpeg", Data: data},
	})
	if err != nil {
		return nil, fmt.Errorf("cover art analysis: %w", err)
	}
	return parseAnalysis(text)
}

func (o *Orchestrator) summarizePDF(ctx context.Context, rec *models.ContentRecord) (models.SideData, error) {
	data, err := o.Files.FetchFile(ctx, rec.FileRef)
	if err != nil {
		return nil, fmt.Errorf("fetch pdf: %w", err)
	}
	text, err := o.Provider.Generate(ctx, Request{
		Prompt: o.Prompts.PDFSummary,
		Media:  &Media{MIME: "application/pdf", Data: data},
	})
	if err != nil {
		return nil, fmt.Errorf("pdf analysis: %w", err)
	}
	patch, err := parseAnalysis(text)
	if err != nil {
		return nil, err
	}
	patch["content_type"] = "pdf"
	o.applyGuards(rec, true, patch)
	return patch, nil
}

// pickImage returns the most useful image file id for analysis and whether
// it is a captured screenshot rather than the user's own media.
func (o *Orchestrator) pickImage(rec *models.ContentRecord, screenshotRef string) (string, bool) {
	switch {
	case screenshotRef != "":
		return screenshotRef, true
	case effectiveKind(rec) == "image":
		return rec.FileRef, false
	case rec.ThumbnailRef != "":
		return rec.ThumbnailRef, false
	}
	return "", false
}

func (o *Orchestrator) analyzeImage(ctx context.Context, rec *models.ContentRecord, imageRef string, saved bool) (models.SideData, error) {
	data, err := o.Files.FetchFile(ctx, imageRef)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	prompt := o.Prompts.DirectImage
	if saved {
		prompt = o.Prompts.SavedLink
	}
	text, err := o.Provider.Generate(ctx, Request{
		Prompt: withContext(prompt, rec),
		Media:  &Media{MIME: "image/jpeg", Data: data},
	})
	if err != nil {
		return nil, fmt.Errorf("image analysis: %w", err)
	}
	patch, err := parseAnalysis(text)
	if err != nil {
		return nil, err
	}
	o.applyGuards(rec, saved, patch)
	return patch, nil
}

func (o *Orchestrator) analyzeText(ctx context.Context, rec *models.ContentRecord) (models.SideData, error) {
	text, err := o.Provider.Generate(ctx, Request{Prompt: withContext(o.Prompts.TextOnly, rec)})
	if err != nil {
		return nil, fmt.Errorf("text analysis: %w", err)
	}
	patch, err := parseAnalysis(text)
	if err != nil {
		return nil, err
	}
	o.applyGuards(rec, true, patch)
	return patch, nil
}

// applyGuards enforces the output contract independently of prompt
// compliance. A direct image may only ever classify as "product"; a tgpost's
// identity is never overridden by an inferred category.
func (o *Orchestrator) applyGuards(rec *models.ContentRecord, saved bool, patch models.SideData) {
	if !saved {
		if ct, _ := patch["content_type"].(string); ct != "product" {
			delete(patch, "content_type")
		}
	}
	if rec.Type == models.TypePost {
		delete(patch, "content_type")
	}
}

// withContext appends the record's source URL and user text so the model
// sees what the user actually saved.
func withContext(prompt string, rec *models.ContentRecord) string {
	var sb strings.Builder
	sb.WriteString(prompt)
	if rec.SourceURL != "" {
		sb.WriteString("\n\nSource URL: ")
		sb.WriteString(rec.SourceURL)
	}
	if rec.Content != "" {
		sb.WriteString("\n\nUser text:\n")
		sb.WriteString(rec.Content)
	}
	return sb.String()
}

// parseAnalysis strips code-fence markers and decodes the JSON object.
// Nulls and empty strings are dropped so a merge never erases stored values.
func parseAnalysis(raw string) (models.SideData, error) {
	cleaned := stripCodeFence(raw)
	var patch models.SideData
	if err := json.Unmarshal([]byte(cleaned), &patch); err != nil {
		return nil, fmt.Errorf("parse analysis response: %w", err)
	}
	for k, v := range patch {
		if v == nil || v == "" {
			delete(patch, k)
		}
	}
	return patch, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	return s
}
