package archive_test

import (
	"context"
	"testing"

	"memobox/backend/internal/archive"
	"memobox/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCopier is a mock implementation of the Copier interface.
type MockCopier struct {
	mock.Mock
}

func (m *MockCopier) CopyMessage(ctx context.Context, fromChatID int64, messageID int, toChatID int64) (int, error) {
	args := m.Called(ctx, fromChatID, messageID, toChatID)
	return args.Int(0), args.Error(1)
}

func TestForwardBuildsPublicURL(t *testing.T) {
	copier := new(MockCopier)
	copier.On("CopyMessage", mock.Anything, int64(100), 55, int64(-100999)).Return(777, nil)

	f := archive.NewForwarder(copier, -100999, "memoarchive")
	url, err := f.Forward(context.Background(), 100, 55)
	require.NoError(t, err)
	assert.Equal(t, "https://t.me/memoarchive/777", url)
	copier.AssertExpectations(t)
}

func TestForwardPrivateChannelYieldsNoURL(t *testing.T) {
	copier := new(MockCopier)
	copier.On("CopyMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(777, nil)

	f := archive.NewForwarder(copier, -100999, "")
	url, err := f.Forward(context.Background(), 100, 55)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestForwardCopyFailure(t *testing.T) {
	copier := new(MockCopier)
	copier.On("CopyMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(0, assert.AnError)

	f := archive.NewForwarder(copier, -100999, "memoarchive")
	_, err := f.Forward(context.Background(), 100, 55)
	assert.Error(t, err)
}

func TestShouldArchive(t *testing.T) {
	assert.False(t, archive.ShouldArchive(&models.ContentRecord{Type: models.TypeQuote}))
	assert.False(t, archive.ShouldArchive(&models.ContentRecord{
		Type: models.TypeImage, FileRef: "f", SideData: models.SideData{"fileSize": 50000},
	}))
	assert.True(t, archive.ShouldArchive(&models.ContentRecord{
		Type: models.TypeDocument, FileRef: "f",
	}))
	assert.True(t, archive.ShouldArchive(&models.ContentRecord{
		Type: models.TypePost, MediaType: "document", FileRef: "f",
	}))
	assert.True(t, archive.ShouldArchive(&models.ContentRecord{
		Type: models.TypeVideo, FileRef: "f", SideData: models.SideData{"fileSize": 25 << 20},
	}))
}
