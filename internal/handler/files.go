package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"chatbot/internal/domain"
	filesSvc "chatbot/internal/domain/services/files"
	"chatbot/internal/httputil"
)

// multipartOverhead is allowed on top of the file size for form boundaries and headers.
const multipartOverhead = 64 << 10

// FileHandler handles uploads and signed downloads
type FileHandler struct {
	fileService filesSvc.FileService
	maxSize     uint64
	logger      *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileService filesSvc.FileService, maxSize uint64, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		maxSize:     maxSize,
		logger:      logger,
	}
}

// Upload stores one multipart file
// POST /api/files/upload
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r, domain.SurfaceAPI)
	if !ok {
		return
	}
	// Reject before reading the body
	if !h.fileService.UploadsEnabled() {
		httputil.RespondError(w, domain.NewChatError("forbidden:feature", "File uploads disabled."))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, int64(h.maxSize)+multipartOverhead)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, domain.NewChatError("bad_request:api", "File is too large."))
			return
		}
		httputil.RespondError(w, domain.NewChatError("bad_request:api", "Request body is not a multipart form."))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, domain.NewChatError("bad_request:api", "No file uploaded"))
		return
	}
	defer file.Close()

	out, err := h.fileService.Upload(r.Context(), session.UserID, &filesSvc.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		handleError(w, r, err, domain.SurfaceAPI, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, out)
}

// Download serves a blob through a signed link
// GET /api/files/{storageId}?token=
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	blob, err := h.fileService.Download(r.Context(), r.PathValue("storageId"), r.URL.Query().Get("token"))
	if err != nil {
		handleError(w, r, err, domain.SurfaceAPI, h.logger)
		return
	}

	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Content)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Content)
}
