package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"chatbot/internal/domain"
	docsysSvc "chatbot/internal/domain/services/docsystem"
	"chatbot/internal/httputil"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	docService docsysSvc.DocumentService
	logger     *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService docsysSvc.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		logger:     logger,
	}
}

// GetDocument returns every revision of a document
// GET /api/document?id=
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := requireParam(w, r.URL.Query().Get("id"), "id")
	if !ok {
		return
	}
	session, ok := requireSession(w, r, domain.SurfaceDocument)
	if !ok {
		return
	}

	docs, err := h.docService.ListRevisions(r.Context(), session.UserID, id)
	if err != nil {
		handleError(w, r, err, domain.SurfaceDocument, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// SaveDocument appends a revision
// POST /api/document?id=
func (h *DocumentHandler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := requireParam(w, r.URL.Query().Get("id"), "id")
	if !ok {
		return
	}
	session, ok := requireSession(w, r, domain.SurfaceDocument)
	if !ok {
		return
	}

	var req docsysSvc.SaveDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, domain.NewChatError("bad_request:document", err.Error()))
		return
	}
	req.ID = id

	doc, err := h.docService.SaveDocument(r.Context(), session.UserID, &req)
	if err != nil {
		handleError(w, r, err, domain.SurfaceDocument, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeleteDocument removes revisions newer than timestamp
// DELETE /api/document?id=&timestamp=
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, ok := requireParam(w, q.Get("id"), "id")
	if !ok {
		return
	}
	raw, ok := requireParam(w, q.Get("timestamp"), "timestamp")
	if !ok {
		return
	}
	ts, err := parseTimestamp(raw)
	if err != nil {
		httputil.RespondError(w, domain.NewChatError("bad_request:api", "Parameter timestamp is invalid."))
		return
	}
	session, ok := requireSession(w, r, domain.SurfaceDocument)
	if !ok {
		return
	}

	result, err := h.docService.DeleteRevisionsAfter(r.Context(), session.UserID, id, ts)
	if err != nil {
		handleError(w, r, err, domain.SurfaceDocument, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// GetSuggestions lists the suggestions of a document
// GET /api/suggestions?documentId=
func (h *DocumentHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	id, ok := requireParam(w, r.URL.Query().Get("documentId"), "documentId")
	if !ok {
		return
	}
	session, ok := requireSession(w, r, domain.SurfaceSuggestions)
	if !ok {
		return
	}

	suggestions, err := h.docService.ListSuggestions(r.Context(), session.UserID, id)
	if err != nil {
		handleError(w, r, err, domain.SurfaceSuggestions, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, suggestions)
}

// parseTimestamp accepts RFC 3339 or Unix milliseconds.
func parseTimestamp(raw string) (time.Time, error) {
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}
