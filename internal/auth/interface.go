package auth

import "chatbot/internal/domain/models"

// TokenVerifier defines the interface for session token verification.
// The middleware stays agnostic to whether tokens are minted by this server
// or by an external identity provider.
type TokenVerifier interface {
	// VerifyToken validates a token string and returns the parsed claims.
	// Returns an error wrapping domain.ErrUnauthorized if the token is invalid.
	VerifyToken(tokenString string) (*models.SessionClaims, error)

	// Close releases any resources held by the verifier (e.g., HTTP connections for JWKS).
	Close() error
}
