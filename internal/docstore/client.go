// Package docstore is the client for the external document store that keeps
// the persisted content records. The store exposes a Notion-style pages API:
// create a page with typed properties, patch properties by id, read a page's
// current properties.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"memobox/backend/internal/models"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"
)

// Property names used in the target database.
const (
	propTitle     = "Name"
	propType      = "Type"
	propDate      = "Date"
	propSourceURL = "URL"
	propContent   = "Content"
	propFileRef   = "FileID"
	propSideData  = "SideData"
	propAnalyzed  = "Analyzed"
	propAIType    = "AIType"
	propAIType2   = "AIType2"
)

// Client talks to the document store over HTTP.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	Token      string
	DatabaseID string
}

// NewClient builds a store client for one database.
func NewClient(token, databaseID string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		BaseURL:    defaultBaseURL,
		Token:      token,
		DatabaseID: databaseID,
	}
}

// RecordPatch is a sparse update: nil fields are left untouched.
type RecordPatch struct {
	FileRef   *string
	SourceURL *string
	Content   *string
	SideData  models.SideData // replaces the stored side-data blob when non-nil
	Analyzed  *bool
	AIType    *string
	AIType2   *string
}

// CreateRecord persists a freshly classified record and returns the page id.
func (c *Client) CreateRecord(ctx context.Context, rec *models.ContentRecord) (string, error) {
	props := map[string]any{
		propTitle: map[string]any{
			"title": []any{richText(pageTitle(rec))},
		},
		propType: selectProp(string(rec.Type)),
		propDate: map[string]any{
			"date": map[string]any{"start": time.Now().Format(time.RFC3339)},
		},
	}
	if rec.SourceURL != "" {
		props[propSourceURL] = map[string]any{"url": rec.SourceURL}
	}
	if rec.Content != "" {
		props[propContent] = richTextProp(rec.Content)
	}
	if rec.FileRef != "" {
		props[propFileRef] = richTextProp(rec.FileRef)
	}
	if side := sideDataJSON(sideWithMeta(rec)); side != "" {
		props[propSideData] = richTextProp(side)
	}

	body := map[string]any{
		"parent":     map[string]any{"database_id": c.DatabaseID},
		"properties": props,
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/pages", body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// PatchRecord applies a sparse property update to an existing page.
func (c *Client) PatchRecord(ctx context.Context, pageID string, patch RecordPatch) error {
	props := map[string]any{}
	if patch.FileRef != nil {
		props[propFileRef] = richTextProp(*patch.FileRef)
	}
	if patch.SourceURL != nil {
		props[propSourceURL] = map[string]any{"url": *patch.SourceURL}
	}
	if patch.Content != nil {
		props[propContent] = richTextProp(*patch.Content)
	}
	if patch.SideData != nil {
		props[propSideData] = richTextProp(sideDataJSON(patch.SideData))
	}
	if patch.Analyzed != nil {
		props[propAnalyzed] = map[string]any{"checkbox": *patch.Analyzed}
	}
	if patch.AIType != nil {
		props[propAIType] = selectProp(*patch.AIType)
	}
	if patch.AIType2 != nil {
		props[propAIType2] = selectProp(*patch.AIType2)
	}
	if len(props) == 0 {
		return nil
	}

	body := map[string]any{"properties": props}
	return c.do(ctx, http.MethodPatch, "/v1/pages/"+pageID, body, nil)
}

// GetSideData reads back the current side-data blob for read-merge-write
// enrichment steps.
func (c *Client) GetSideData(ctx context.Context, pageID string) (models.SideData, error) {
	var page struct {
		Properties map[string]struct {
			RichText []struct {
				PlainText string `json:"plain_text"`
			} `json:"rich_text"`
		} `json:"properties"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/pages/"+pageID, nil, &page); err != nil {
		return nil, err
	}

	prop, ok := page.Properties[propSideData]
	if !ok || len(prop.RichText) == 0 {
		return models.SideData{}, nil
	}
	var sb strings.Builder
	for _, rt := range prop.RichText {
		sb.WriteString(rt.PlainText)
	}
	side := models.SideData{}
	if err := json.Unmarshal([]byte(sb.String()), &side); err != nil {
		return nil, fmt.Errorf("parse side-data blob for %s: %w", pageID, err)
	}
	return side, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Notion-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, snippet)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// pageTitle derives the page title: source domain when available, otherwise
// the first line of content, otherwise the record type.
func pageTitle(rec *models.ContentRecord) string {
	if rec.SourceURL != "" {
		if u, err := url.Parse(rec.SourceURL); err == nil && u.Host != "" {
			return u.Host
		}
	}
	if rec.Content != "" {
		line := rec.Content
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		if len(line) > 80 {
			line = line[:80]
		}
		return line
	}
	return string(rec.Type)
}

// sideWithMeta folds record fields that have no dedicated property into the
// side-data blob, so the read side can render them.
func sideWithMeta(rec *models.ContentRecord) models.SideData {
	side := rec.SideData.Clone()
	if rec.MediaType != "" {
		side["mediaType"] = rec.MediaType
	}
	if rec.ThumbnailRef != "" {
		side["thumbnailFileId"] = rec.ThumbnailRef
	}
	if rec.ContentIsMarkup {
		side["contentIsMarkup"] = true
	}
	if rec.MediaGroupKey != "" {
		side["mediaGroupKey"] = rec.MediaGroupKey
	}
	if rec.Provenance != nil {
		if rec.Provenance.ChannelTitle != "" {
			side["channelTitle"] = rec.Provenance.ChannelTitle
		}
		if rec.Provenance.ForwardedFromName != "" {
			side["forwardedFromName"] = rec.Provenance.ForwardedFromName
		}
	}
	return side
}

func sideDataJSON(side models.SideData) string {
	if len(side) == 0 {
		return ""
	}
	raw, err := json.Marshal(side)
	if err != nil {
		return ""
	}
	return string(raw)
}

func richText(content string) map[string]any {
	return map[string]any{"text": map[string]any{"content": content}}
}

func richTextProp(content string) map[string]any {
	return map[string]any{"rich_text": []any{richText(content)}}
}

func selectProp(name string) map[string]any {
	return map[string]any{"select": map[string]any{"name": name}}
}
