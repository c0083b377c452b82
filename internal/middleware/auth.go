package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"chatbot/internal/auth"
	"chatbot/internal/domain/models"
	"chatbot/internal/httputil"
)

// EnsureUserFunc provisions a user row for a verified session.
type EnsureUserFunc func(ctx context.Context, session *models.Session) error

// Auth attaches the session to the request when a valid token is present.
// Tokens come from the session cookie or an Authorization Bearer header.
// Requests without a valid token continue anonymously; handlers decide
// whether a session is required.
func Auth(verifier auth.TokenVerifier, ensure EnsureUserFunc, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFrom(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("session token rejected",
					"path", r.URL.Path,
					"request_id", httputil.GetRequestID(r),
				)
				next.ServeHTTP(w, r)
				return
			}

			session := models.SessionFromClaims(claims)
			if ensure != nil {
				if err := ensure(r.Context(), session); err != nil {
					logger.Warn("failed to provision user",
						"user_id", session.UserID,
						"error", err,
					)
				}
			}

			next.ServeHTTP(w, httputil.WithSession(r, session))
		})
	}
}

func tokenFrom(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(auth.SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
