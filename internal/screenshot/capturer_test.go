package screenshot

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUploader is a mock implementation of the Uploader interface.
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) UploadPhoto(ctx context.Context, data []byte, name string) (string, error) {
	args := m.Called(ctx, data, name)
	return args.String(0), args.Error(1)
}

func newTestCapturer(t *testing.T, handler http.HandlerFunc, uploader Uploader) (*Capturer, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewCapturer(srv.URL, "test-key", uploader)
	var delays []time.Duration
	c.sleep = func(d time.Duration) { delays = append(delays, d) }
	return c, &delays
}

func fakePNG() []byte {
	return bytes.Repeat([]byte{0x89, 0x50, 0x4e, 0x47}, 512) // 2 KiB
}

func TestCaptureSuccessFirstAttempt(t *testing.T) {
	uploader := new(MockUploader)
	uploader.On("UploadPhoto", mock.Anything, fakePNG(), "example.com.png").Return("file-abc", nil)

	c, delays := newTestCapturer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("token"))
		assert.Equal(t, "https://example.com/page", r.URL.Query().Get("url"))
		w.Header().Set("Content-Type", "image/png")
		w.Write(fakePNG())
	}, uploader)

	ref, err := c.Capture(context.Background(), "https://example.com/page")
	require.NoError(t, err)
	assert.Equal(t, "file-abc", ref)
	assert.Empty(t, *delays, "no retries on first-attempt success")
	uploader.AssertExpectations(t)
}

func TestCaptureRetriesThenSucceeds(t *testing.T) {
	uploader := new(MockUploader)
	uploader.On("UploadPhoto", mock.Anything, mock.Anything, mock.Anything).Return("file-abc", nil)

	attempts := 0
	c, delays := newTestCapturer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(fakePNG())
	}, uploader)

	ref, err := c.Capture(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "file-abc", ref)
	assert.Equal(t, []time.Duration{2 * time.Second, 5 * time.Second}, *delays)
}

func TestCaptureExhaustsOnNonImageContent(t *testing.T) {
	attempts := 0
	c, delays := newTestCapturer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>still queuing</html>"))
	}, nil)

	ref, err := c.Capture(context.Background(), "https://example.com")
	assert.Error(t, err)
	assert.Empty(t, ref)
	assert.Equal(t, 3, attempts, "exactly three attempts")
	assert.Equal(t, []time.Duration{2 * time.Second, 5 * time.Second}, *delays)
}

func TestCaptureRejectsTinyPayload(t *testing.T) {
	attempts := 0
	c, _ := newTestCapturer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("tiny")) // error placeholder
	}, nil)

	_, err := c.Capture(context.Background(), "https://example.com")
	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestCaptureUploadErrorPropagates(t *testing.T) {
	uploader := new(MockUploader)
	uploader.On("UploadPhoto", mock.Anything, mock.Anything, mock.Anything).Return("", assert.AnError)

	c, _ := newTestCapturer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(fakePNG())
	}, uploader)

	_, err := c.Capture(context.Background(), "https://example.com")
	assert.Error(t, err)
}
