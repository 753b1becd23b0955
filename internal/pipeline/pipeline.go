// Package pipeline runs the detached continuation work for a persisted
// record: screenshot capture for links, archive copy for oversized or
// non-previewable media, then AI enrichment. The steps run sequentially so
// the archive step's fields are persisted before enrichment re-reads the
// stored side-data. Every step is best-effort; a failed step is logged and
// the remaining steps still run.
package pipeline

import (
	"context"
	"log"

	"memobox/backend/internal/archive"
	"memobox/backend/internal/docstore"
	"memobox/backend/internal/models"
)

// Store is the subset of the document-store client the pipeline writes to.
type Store interface {
	PatchRecord(ctx context.Context, pageID string, patch docstore.RecordPatch) error
	GetSideData(ctx context.Context, pageID string) (models.SideData, error)
}

// Capturer captures a page screenshot and returns the uploaded file id.
type Capturer interface {
	Capture(ctx context.Context, pageURL string) (string, error)
}

// Archiver copies the original message into the archive channel.
type Archiver interface {
	Forward(ctx context.Context, fromChatID int64, messageID int) (string, error)
}

// Enricher produces an AI side-data patch for a record.
type Enricher interface {
	Enrich(ctx context.Context, rec *models.ContentRecord, screenshotRef string) (models.SideData, error)
}

// Pipeline owns the continuation steps. Capturer and Archiver may be nil
// when the corresponding collaborator is not configured.
type Pipeline struct {
	Store    Store
	Capturer Capturer
	Archiver Archiver
	Enricher Enricher
}

// NewPipeline creates a continuation pipeline service.
func NewPipeline(store Store, capturer Capturer, archiver Archiver, enricher Enricher) *Pipeline {
	return &Pipeline{Store: store, Capturer: capturer, Archiver: archiver, Enricher: enricher}
}

// Job is one persisted record awaiting continuation work.
type Job struct {
	CorrID    string
	PageID    string
	Record    *models.ContentRecord
	ChatID    int64 // chat the original message arrived in
	MessageID int
}

// Run executes all continuation steps for one job. It never returns an
// error; the webhook response has already been sent by the time this runs.
func (p *Pipeline) Run(ctx context.Context, job Job) {
	shotRef := p.captureScreenshot(ctx, job)
	p.archiveCopy(ctx, job)
	p.enrich(ctx, job, shotRef)
}

// captureScreenshot fills a link record's missing preview and returns the
// screenshot's file id for the enrichment step.
func (p *Pipeline) captureScreenshot(ctx context.Context, job Job) string {
	rec := job.Record
	if p.Capturer == nil || rec.Type != models.TypeLink || rec.SourceURL == "" {
		return ""
	}
	fileID, err := p.Capturer.Capture(ctx, rec.SourceURL)
	if err != nil {
		log.Printf("WARN: [%s] screenshot skipped: %v", job.CorrID, err)
		return ""
	}
	rec.SetSide("screenshotFileId", fileID)
	patch := docstore.RecordPatch{SideData: rec.SideData.Clone()}
	if rec.FileRef == "" {
		rec.FileRef = fileID
		patch.FileRef = &fileID
	}
	if err := p.Store.PatchRecord(ctx, job.PageID, patch); err != nil {
		log.Printf("ERROR: [%s] persist screenshot: %v", job.CorrID, err)
	}
	return fileID
}

// archiveCopy duplicates oversized or document media into the archive
// channel and promotes the copy's public URL to the record's source URL when
// the record has none.
func (p *Pipeline) archiveCopy(ctx context.Context, job Job) {
	rec := job.Record
	if p.Archiver == nil || !archive.ShouldArchive(rec) {
		return
	}
	url, err := p.Archiver.Forward(ctx, job.ChatID, job.MessageID)
	if err != nil {
		log.Printf("WARN: [%s] archive copy skipped: %v", job.CorrID, err)
		return
	}
	if url == "" {
		return
	}
	rec.SetSide("storageArchiveUrl", url)
	patch := docstore.RecordPatch{SideData: rec.SideData.Clone()}
	if rec.SourceURL == "" {
		rec.SourceURL = url
		patch.SourceURL = &url
	}
	if err := p.Store.PatchRecord(ctx, job.PageID, patch); err != nil {
		log.Printf("ERROR: [%s] persist archive url: %v", job.CorrID, err)
	}
}

// enrich merges the AI patch into the store's current side-data rather than
// the in-memory copy so fields written by earlier steps are preserved.
func (p *Pipeline) enrich(ctx context.Context, job Job, shotRef string) {
	if p.Enricher == nil {
		return
	}
	patch, err := p.Enricher.Enrich(ctx, job.Record, shotRef)
	if err != nil {
		log.Printf("WARN: [%s] ai enrichment skipped: %v", job.CorrID, err)
		return
	}
	if len(patch) == 0 {
		return
	}

	base, err := p.Store.GetSideData(ctx, job.PageID)
	if err != nil {
		log.Printf("WARN: [%s] side-data read failed, merging onto local copy: %v", job.CorrID, err)
		base = job.Record.SideData.Clone()
	}
	if base == nil {
		base = models.SideData{}
	}
	base.Merge(patch)

	analyzed := true
	update := docstore.RecordPatch{SideData: base, Analyzed: &analyzed}
	if ct, ok := patch["content_type"].(string); ok && ct != "" {
		update.AIType = &ct
	}
	if st, ok := patch["secondary_type"].(string); ok && st != "" {
		update.AIType2 = &st
	}
	if err := p.Store.PatchRecord(ctx, job.PageID, update); err != nil {
		log.Printf("ERROR: [%s] persist enrichment: %v", job.CorrID, err)
	}
}
