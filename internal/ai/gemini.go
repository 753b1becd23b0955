package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const geminiAPIURL = "https://generativelanguage.googleapis.com"

// GeminiClient implements Provider over the generateContent REST API with
// inline-base64 media parts. It is also the transcription-capable provider:
// audio payloads are sent the same way as images.
type GeminiClient struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Model      string
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
		BaseURL:    geminiAPIURL,
		APIKey:     apiKey,
		Model:      model,
	}
}

func (c *GeminiClient) Generate(ctx context.Context, genReq Request) (string, error) {
	parts := []map[string]any{{"text": genReq.Prompt}}
	if genReq.Media != nil {
		parts = append(parts, map[string]any{
			"inline_data": map[string]any{
				"mime_type": genReq.Media.MIME,
				"data":      base64.StdEncoding.EncodeToString(genReq.Media.Data),
			},
		})
	}
	body := map[string]any{
		"contents": []map[string]any{{"parts": parts}},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(c.BaseURL, "/"), c.Model, c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &APIError{Provider: "gemini", StatusCode: resp.StatusCode, Body: string(errBody)}
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
