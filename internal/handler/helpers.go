package handler

import (
	"log/slog"
	"net/http"

	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	"chatbot/internal/httputil"
)

// handleError converts a service error into the {code, message, cause}
// response for surface. Log-only errors are logged with the request id.
func handleError(w http.ResponseWriter, r *http.Request, err error, surface domain.Surface, logger *slog.Logger) {
	ce := domain.ChatErrorFrom(err, surface)
	if ce.LogOnly() || ce.Type == domain.TypeOffline {
		logger.Error("request failed",
			"code", ce.Code(),
			"error", err,
			"path", r.URL.Path,
			"request_id", httputil.GetRequestID(r),
		)
	}
	httputil.RespondError(w, ce)
}

// requireSession responds with unauthorized:<surface> when the request is anonymous.
func requireSession(w http.ResponseWriter, r *http.Request, surface domain.Surface) (*models.Session, bool) {
	session := httputil.GetSession(r)
	if session == nil {
		httputil.RespondError(w, &domain.ChatError{Type: domain.TypeUnauthorized, Surface: surface})
		return nil, false
	}
	return session, true
}

// requireParam reads a path or query parameter and responds with
// bad_request:api when it is missing.
func requireParam(w http.ResponseWriter, value, name string) (string, bool) {
	if value == "" {
		httputil.RespondError(w, domain.NewChatError("bad_request:api", "Parameter "+name+" is required."))
		return "", false
	}
	return value, true
}

// badBody responds to an undecodable request body.
func badBody(w http.ResponseWriter, err error) {
	httputil.RespondError(w, domain.NewChatError("bad_request:api", err.Error()))
}
