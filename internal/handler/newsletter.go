package handler

import (
	"log/slog"
	"net/http"

	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	newsletterSvc "chatbot/internal/domain/services/newsletter"
	"chatbot/internal/httputil"
)

// NewsletterHandler handles newsletter subscriptions
type NewsletterHandler struct {
	service newsletterSvc.NewsletterService
	logger  *slog.Logger
}

// NewNewsletterHandler creates a new newsletter handler
func NewNewsletterHandler(service newsletterSvc.NewsletterService, logger *slog.Logger) *NewsletterHandler {
	return &NewsletterHandler{service: service, logger: logger}
}

// Subscribe starts a double opt-in subscription
// POST /api/newsletter/subscribe
func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	status, err := h.service.Subscribe(r.Context(), req.Email)
	if err != nil {
		handleError(w, r, err, domain.SurfaceAPI, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]models.SubscribeStatus{"status": status})
}

// Confirm confirms a subscription from the mailed link
// GET /api/newsletter/confirm?token=
func (h *NewsletterHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondText(w, http.StatusBadRequest, "Missing token")
		return
	}

	status, err := h.service.Confirm(r.Context(), token)
	if err != nil {
		handleError(w, r, err, domain.SurfaceAPI, h.logger)
		return
	}
	if status == models.ConfirmInvalid {
		respondText(w, http.StatusBadRequest, "Invalid token")
		return
	}

	respondText(w, http.StatusOK, "Subscription confirmed. You may close this window.")
}

// Unsubscribe removes a subscription from the mailed link
// GET /api/newsletter/unsubscribe?token=
func (h *NewsletterHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondText(w, http.StatusBadRequest, "Missing token")
		return
	}

	removed, err := h.service.Unsubscribe(r.Context(), token)
	if err != nil {
		handleError(w, r, err, domain.SurfaceAPI, h.logger)
		return
	}
	if !removed {
		respondText(w, http.StatusBadRequest, "Invalid token")
		return
	}

	respondText(w, http.StatusOK, "You have been unsubscribed.")
}

func respondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
