// Package screenshot fetches a rendered image of a URL from a third-party
// rendering service and uploads it to Telegram to obtain a stable file
// reference.
package screenshot

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// The rendering service's usual failure mode is "still queuing", which clears
// within single-digit seconds, so the schedule is fixed rather than
// exponential.
var retryDelays = []time.Duration{2 * time.Second, 5 * time.Second}

const maxAttempts = 3

// Error placeholder images come back tiny; anything under 1 KiB is not a
// real page screenshot.
const minImageBytes = 1024

// Uploader stores image bytes on the messaging platform and returns a stable
// file reference.
type Uploader interface {
	UploadPhoto(ctx context.Context, data []byte, name string) (string, error)
}

// Capturer renders page screenshots with bounded retry.
type Capturer struct {
	Endpoint   string // rendering service URL, e.g. https://shot.screenshotapi.net/screenshot
	APIKey     string
	HTTPClient *http.Client
	Uploader   Uploader

	sleep func(time.Duration)
}

// NewCapturer builds a capturer talking to the given rendering endpoint.
func NewCapturer(endpoint, apiKey string, uploader Uploader) *Capturer {
	return &Capturer{
		Endpoint:   endpoint,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Uploader:   uploader,
		sleep:      time.Sleep,
	}
}

// Capture fetches a screenshot of pageURL and uploads it, returning the
// platform file reference. All attempts exhausted returns an error; callers
// treat that as "enrichment skipped", never as fatal.
func (c *Capturer) Capture(ctx context.Context, pageURL string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			c.sleep(retryDelays[attempt-2])
		}
		data, err := c.fetch(ctx, pageURL)
		if err != nil {
			lastErr = err
			log.Printf("WARN: screenshot attempt %d/%d for %s: %v", attempt, maxAttempts, pageURL, err)
			continue
		}
		return c.Uploader.UploadPhoto(ctx, data, screenshotName(pageURL))
	}
	return "", fmt.Errorf("screenshot failed after %d attempts: %w", maxAttempts, lastErr)
}

// fetch performs one rendering call and validates the response.
func (c *Capturer) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	q := url.Values{}
	q.Set("token", c.APIKey)
	q.Set("url", pageURL)
	q.Set("output", "image")
	q.Set("full_page", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("renderer status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("renderer returned %q, not an image", ct)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(data) < minImageBytes {
		return nil, fmt.Errorf("renderer payload too small (%d bytes)", len(data))
	}
	return data, nil
}

func screenshotName(pageURL string) string {
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		return u.Host + ".png"
	}
	return "screenshot.png"
}
