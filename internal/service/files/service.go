package files

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"chatbot/internal/config"
	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
	filesSvc "chatbot/internal/domain/services/files"
)

// LinkSigner signs and checks download tokens. Implemented by auth.LinkSigner.
type LinkSigner interface {
	Sign(storageID string, ttl time.Duration) (string, error)
	Verify(token, storageID string) error
}

// Service implements the FileService interface
type Service struct {
	fileRepo  repositories.FileRepository
	signer    LinkSigner
	publicURL string
	maxSize   uint64
	enabled   bool
	now       func() time.Time
	logger    *slog.Logger
}

// NewService creates a new file service
func NewService(fileRepo repositories.FileRepository, signer LinkSigner, cfg *config.Config, logger *slog.Logger) *Service {
	return &Service{
		fileRepo:  fileRepo,
		signer:    signer,
		publicURL: cfg.PublicURL,
		maxSize:   cfg.MaxUploadSize,
		enabled:   cfg.Flags.UploadFiles,
		now:       time.Now,
		logger:    logger,
	}
}

var _ filesSvc.FileService = (*Service)(nil)

// UploadsEnabled reports the upload feature flag
func (s *Service) UploadsEnabled() bool {
	return s.enabled
}

// Upload validates and stores one file
func (s *Service) Upload(ctx context.Context, userID string, upload *filesSvc.Upload) (*filesSvc.Uploaded, error) {
	if !s.enabled {
		return nil, domain.NewChatError("forbidden:feature", "File uploads disabled.")
	}

	content, err := io.ReadAll(io.LimitReader(upload.Body, int64(s.maxSize)+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	if err := s.validate(upload.ContentType, content); err != nil {
		return nil, err
	}

	name := upload.Name
	if name == "" {
		name = fmt.Sprintf("upload-%d.%s", s.now().UnixMilli(), extension(upload.ContentType))
	}

	blob := &models.Blob{
		StorageID:   uuid.NewString(),
		ContentType: upload.ContentType,
		Content:     content,
	}
	file := &models.File{
		StorageID: blob.StorageID,
		Name:      name,
		Type:      upload.ContentType,
		Size:      int64(len(content)),
		UserID:    userID,
	}
	if err := s.fileRepo.SaveFile(ctx, file, blob); err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}

	link, err := s.link(blob.StorageID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("file uploaded",
		"storage_id", blob.StorageID,
		"user_id", userID,
		"size", humanize.IBytes(uint64(file.Size)),
	)

	return &filesSvc.Uploaded{
		StorageID:   blob.StorageID,
		FileID:      file.ID,
		URL:         link,
		Size:        file.Size,
		Type:        file.Type,
		Name:        name,
		Pathname:    name,
		ContentType: file.Type,
		MaxSize:     s.maxSize,
		Allowed:     config.AllowedUploadTypes,
	}, nil
}

// Download returns the blob behind a signed link
func (s *Service) Download(ctx context.Context, storageID, token string) (*models.Blob, error) {
	if err := s.signer.Verify(token, storageID); err != nil {
		return nil, err
	}
	return s.fileRepo.GetBlob(ctx, storageID)
}

func (s *Service) validate(contentType string, content []byte) error {
	var problems []string
	if uint64(len(content)) > s.maxSize {
		problems = append(problems, "File size must be <= "+humanize.IBytes(s.maxSize))
	}
	if !slices.Contains(config.AllowedUploadTypes, contentType) {
		problems = append(problems, "Unsupported file type. Allowed: "+strings.Join(config.AllowedUploadTypes, ", "))
	} else if sniffed := http.DetectContentType(content); sniffed != contentType {
		problems = append(problems, fmt.Sprintf("File content is %s, not %s", sniffed, contentType))
	}
	if len(content) == 0 {
		problems = append(problems, "File is empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(problems, ", "))
	}
	return nil
}

func (s *Service) link(storageID string) (string, error) {
	token, err := s.signer.Sign(storageID, config.SignedURLTTL)
	if err != nil {
		return "", err
	}
	return s.publicURL + "/api/files/" + url.PathEscape(storageID) + "?token=" + url.QueryEscape(token), nil
}

func extension(contentType string) string {
	_, sub, ok := strings.Cut(contentType, "/")
	if !ok || sub == "" {
		return "bin"
	}
	return sub
}
