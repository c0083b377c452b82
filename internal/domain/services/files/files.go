package files

import (
	"context"
	"io"

	"chatbot/internal/domain/models"
)

// Upload is one multipart file as received by the handler.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Uploaded is the response body of a successful upload.
type Uploaded struct {
	StorageID   string   `json:"storageId"`
	FileID      string   `json:"fileId"`
	URL         string   `json:"url"`
	Size        int64    `json:"size"`
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Pathname    string   `json:"pathname"`
	ContentType string   `json:"contentType"`
	MaxSize     uint64   `json:"maxSize"`
	Allowed     []string `json:"allowed"`
}

// FileService stores uploads and serves them back through signed links
type FileService interface {
	// UploadsEnabled reports whether the upload feature flag is on.
	UploadsEnabled() bool

	Upload(ctx context.Context, userID string, upload *Upload) (*Uploaded, error)

	// Download returns the blob when token is a valid link for storageID.
	Download(ctx context.Context, storageID, token string) (*models.Blob, error)
}
