package docstore_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"memobox/backend/internal/docstore"
	"memobox/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*docstore.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := docstore.NewClient("secret-token", "db-1")
	c.BaseURL = srv.URL
	return c, srv
}

func TestCreateRecord(t *testing.T) {
	var captured map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/pages", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.Write([]byte(`{"id":"page-123"}`))
	})

	rec := &models.ContentRecord{
		Type:      models.TypeLink,
		SourceURL: "https://example.com/article",
		Content:   "check this out",
	}
	id, err := c.CreateRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "page-123", id)

	parent := captured["parent"].(map[string]any)
	assert.Equal(t, "db-1", parent["database_id"])

	props := captured["properties"].(map[string]any)
	title := props["Name"].(map[string]any)["title"].([]any)[0].(map[string]any)
	assert.Equal(t, "example.com", title["text"].(map[string]any)["content"], "title is the source domain")
	assert.Contains(t, props, "Type")
	assert.Contains(t, props, "URL")
	assert.Contains(t, props, "Content")
}

func TestCreateRecordFoldsMetaIntoSideData(t *testing.T) {
	var captured map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.Write([]byte(`{"id":"page-9"}`))
	})

	rec := &models.ContentRecord{
		Type:      models.TypePost,
		MediaType: "image",
		FileRef:   "file-1",
		Provenance: &models.Provenance{ChannelTitle: "Good Channel"},
	}
	_, err := c.CreateRecord(context.Background(), rec)
	require.NoError(t, err)

	props := captured["properties"].(map[string]any)
	blob := props["SideData"].(map[string]any)["rich_text"].([]any)[0].(map[string]any)["text"].(map[string]any)["content"].(string)

	var side map[string]any
	require.NoError(t, json.Unmarshal([]byte(blob), &side))
	assert.Equal(t, "image", side["mediaType"])
	assert.Equal(t, "Good Channel", side["channelTitle"])
}

func TestPatchRecordSparse(t *testing.T) {
	var captured map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/pages/page-123", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.Write([]byte(`{"id":"page-123"}`))
	})

	analyzed := true
	aiType := "article"
	err := c.PatchRecord(context.Background(), "page-123", docstore.RecordPatch{
		Analyzed: &analyzed,
		AIType:   &aiType,
	})
	require.NoError(t, err)

	props := captured["properties"].(map[string]any)
	assert.Len(t, props, 2, "only the patched properties travel")
	assert.Contains(t, props, "Analyzed")
	assert.Contains(t, props, "AIType")
}

func TestPatchRecordEmptyIsNoop(t *testing.T) {
	called := false
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	err := c.PatchRecord(context.Background(), "page-123", docstore.RecordPatch{})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestGetSideData(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"properties":{"SideData":{"rich_text":[{"plain_text":"{\"fileSize\":123,"},{"plain_text":"\"performer\":\"Artist\"}"}]}}}`))
	})

	side, err := c.GetSideData(context.Background(), "page-123")
	require.NoError(t, err)
	assert.Equal(t, float64(123), side["fileSize"])
	assert.Equal(t, "Artist", side["performer"], "chunked rich text is reassembled")
}

func TestGetSideDataMissingProperty(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"properties":{}}`))
	})

	side, err := c.GetSideData(context.Background(), "page-123")
	require.NoError(t, err)
	assert.Empty(t, side)
}

func TestErrorStatusSurfaces(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"validation failed"}`, http.StatusBadRequest)
	})

	_, err := c.CreateRecord(context.Background(), &models.ContentRecord{Type: models.TypeQuote, Content: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}
