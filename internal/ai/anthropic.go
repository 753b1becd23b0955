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

const (
	anthropicAPIURL     = "https://api.anthropic.com"
	anthropicAPIVersion = "2023-06-01"
)

// AnthropicClient implements Provider over the messages API: one user
// message whose content is an array of typed blocks (text plus an image or
// document source block).
type AnthropicClient struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Model      string
}

func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	return &AnthropicClient{
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
		BaseURL:    anthropicAPIURL,
		APIKey:     apiKey,
		Model:      model,
	}
}

func (c *AnthropicClient) Generate(ctx context.Context, genReq Request) (string, error) {
	content := []map[string]any{}
	if genReq.Media != nil {
		blockType := "image"
		if genReq.Media.MIME == "application/pdf" {
			blockType = "document"
		}
		if strings.HasPrefix(genReq.Media.MIME, "audio/") {
			return "", fmt.Errorf("anthropic: audio payloads are not supported")
		}
		content = append(content, map[string]any{
			"type": blockType,
			"source": map[string]any{
				"type":       "base64",
				"media_type": genReq.Media.MIME,
				"data":       base64.StdEncoding.EncodeToString(genReq.Media.Data),
			},
		})
	}
	content = append(content, map[string]any{"type": "text", "text": genReq.Prompt})

	body := map[string]any{
		"model":      c.Model,
		"max_tokens": 1024,
		"messages": []map[string]any{
			{"role": "user", "content": content},
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &APIError{Provider: "anthropic", StatusCode: resp.StatusCode, Body: string(errBody)}
	}

	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
