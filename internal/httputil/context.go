package httputil

import (
	"context"
	"net/http"

	"chatbot/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	sessionKey   contextKey = "session"
	requestIDKey contextKey = "requestID"
)

// WithSession adds the authenticated session to the request context
func WithSession(r *http.Request, session *models.Session) *http.Request {
	ctx := context.WithValue(r.Context(), sessionKey, session)
	return r.WithContext(ctx)
}

// GetSession retrieves the session from context, returns nil if the request is anonymous
func GetSession(r *http.Request) *models.Session {
	return SessionFromContext(r.Context())
}

// SessionFromContext is GetSession for code that only holds a context
func SessionFromContext(ctx context.Context) *models.Session {
	session, _ := ctx.Value(sessionKey).(*models.Session)
	return session
}

// WithRequestID stores the correlation id for the request
func WithRequestID(r *http.Request, id string) *http.Request {
	ctx := context.WithValue(r.Context(), requestIDKey, id)
	return r.WithContext(ctx)
}

// GetRequestID returns the correlation id, or empty string if none was set
func GetRequestID(r *http.Request) string {
	return RequestIDFromContext(r.Context())
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
