// Package ai runs the best-effort enrichment analysis: it selects a prompt
// strategy by content kind, dispatches to one of two interchangeable
// providers, and enforces the JSON output contract on the response.
package ai

import (
	"context"
	"fmt"
)

// Provider is an interchangeable multimodal backend. Implementations differ
// only in request shape and response extraction; everything above them is
// provider-agnostic.
type Provider interface {
	// Generate sends a prompt (plus optional inline media) and returns the
	// response text.
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is one generate-content call.
type Request struct {
	Prompt string
	Media  *Media
}

// Media is an inline payload sent alongside the prompt.
type Media struct {
	MIME string
	Data []byte
}

// APIError is a non-2xx provider response.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
}
