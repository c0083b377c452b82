package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chatbot/internal/auth"
	"chatbot/internal/domain"
	accountSvc "chatbot/internal/domain/services/account"
	"chatbot/internal/httputil"
)

// AuthHandler handles sign-in flows
type AuthHandler struct {
	accountService accountSvc.AccountService
	secureCookies  bool
	logger         *slog.Logger
}

// NewAuthHandler creates a new auth handler. Cookies are marked Secure when
// secureCookies is set.
func NewAuthHandler(accountService accountSvc.AccountService, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accountService: accountService,
		secureCookies:  secureCookies,
		logger:         logger,
	}
}

// Guest signs in as a new guest user and redirects
// GET /api/auth/guest?redirectUrl=
func (h *AuthHandler) Guest(w http.ResponseWriter, r *http.Request) {
	if httputil.GetSession(r) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	signed, err := h.accountService.CreateGuest(r.Context())
	if err != nil {
		handleError(w, r, err, domain.SurfaceAuth, h.logger)
		return
	}

	h.setSession(w, signed)
	http.Redirect(w, r, safeRedirect(r.URL.Query().Get("redirectUrl")), http.StatusFound)
}

// Register creates a credential account
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var creds accountSvc.Credentials
	if err := httputil.ParseJSON(w, r, &creds); err != nil {
		badBody(w, err)
		return
	}

	signed, err := h.accountService.Register(r.Context(), &creds)
	if err != nil {
		handleError(w, r, err, domain.SurfaceAuth, h.logger)
		return
	}

	h.setSession(w, signed)
	httputil.RespondJSON(w, http.StatusCreated, signed)
}

// Login signs in with email and password
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds accountSvc.Credentials
	if err := httputil.ParseJSON(w, r, &creds); err != nil {
		badBody(w, err)
		return
	}

	signed, err := h.accountService.Login(r.Context(), &creds)
	if err != nil {
		handleError(w, r, err, domain.SurfaceAuth, h.logger)
		return
	}

	h.setSession(w, signed)
	httputil.RespondJSON(w, http.StatusOK, signed)
}

// Logout clears the session cookie
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the current session, or null
// GET /api/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"user": httputil.GetSession(r)})
}

func (h *AuthHandler) setSession(w http.ResponseWriter, signed *accountSvc.SignedIn) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    signed.Token,
		Path:     "/",
		Expires:  signed.ExpiresAt,
		MaxAge:   int(time.Until(signed.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// safeRedirect only allows same-origin paths.
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}
