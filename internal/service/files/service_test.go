package files

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbot/internal/auth"
	"chatbot/internal/config"
	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	filesSvc "chatbot/internal/domain/services/files"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")

type memFiles struct {
	files map[string]*models.File
	blobs map[string]*models.Blob
}

func newMemFiles() *memFiles {
	return &memFiles{files: map[string]*models.File{}, blobs: map[string]*models.Blob{}}
}

func (m *memFiles) SaveFile(_ context.Context, file *models.File, blob *models.Blob) error {
	file.ID = "f" + blob.StorageID
	m.files[file.ID] = file
	m.blobs[blob.StorageID] = blob
	return nil
}

func (m *memFiles) GetBlob(_ context.Context, storageID string) (*models.Blob, error) {
	if b, ok := m.blobs[storageID]; ok {
		return b, nil
	}
	return nil, domain.ErrNotFound
}

func newTestService(enabled bool) (*Service, *memFiles) {
	repo := newMemFiles()
	cfg := &config.Config{
		PublicURL:     "http://api.test",
		MaxUploadSize: 64,
		Flags:         config.FeatureFlags{UploadFiles: enabled},
	}
	svc := NewService(repo, auth.NewLinkSigner("0123456789abcdef0123456789abcdef"), cfg,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.UnixMilli(42) }
	return svc, repo
}

func TestUploadAndDownload(t *testing.T) {
	svc, repo := newTestService(true)
	ctx := context.Background()

	out, err := svc.Upload(ctx, "u1", &filesSvc.Upload{
		ContentType: "image/png",
		Body:        bytes.NewReader(pngHeader),
	})
	require.NoError(t, err)

	assert.Equal(t, "upload-42.png", out.Name)
	assert.Equal(t, int64(len(pngHeader)), out.Size)
	assert.Equal(t, "u1", repo.files[out.FileID].UserID)
	require.True(t, strings.HasPrefix(out.URL, "http://api.test/api/files/"+out.StorageID+"?token="))

	link, err := url.Parse(out.URL)
	require.NoError(t, err)
	blob, err := svc.Download(ctx, out.StorageID, link.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, blob.Content)

	_, err = svc.Download(ctx, out.StorageID, "forged")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestUploadRejected(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        []byte
		want        string
	}{
		{"too large", "image/png", append(append([]byte{}, pngHeader...), make([]byte, 64)...), "File size must be <= 64 B"},
		{"type not allowed", "application/pdf", []byte("%PDF-1.4"), "Unsupported file type"},
		{"content mismatch", "image/jpeg", pngHeader, "not image/jpeg"},
		{"empty", "image/png", nil, "File is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService(true)
			_, err := svc.Upload(context.Background(), "u1", &filesSvc.Upload{
				Name:        "x",
				ContentType: tt.contentType,
				Body:        bytes.NewReader(tt.body),
			})
			require.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, repo.files)
		})
	}
}

func TestUploadDisabled(t *testing.T) {
	svc, _ := newTestService(false)
	assert.False(t, svc.UploadsEnabled())
	_, err := svc.Upload(context.Background(), "u1", &filesSvc.Upload{ContentType: "image/png", Body: bytes.NewReader(pngHeader)})

	var ce *domain.ChatError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "forbidden:feature", ce.Code())
}
