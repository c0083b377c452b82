package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "session"

const (
	issuer          = "chatbot"
	sessionAudience = "session"
)

// SessionManager issues and verifies HS256 session tokens.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

func NewSessionManager(secret string, ttl time.Duration, logger *slog.Logger) (*SessionManager, error) {
	if len(secret) < 32 {
		return nil, errors.New("AUTH_SECRET must be at least 32 characters")
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl, now: time.Now, logger: logger}, nil
}

// Issue mints a token for the user and returns it with its expiry.
func (m *SessionManager) Issue(user *models.User) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)
	claims := &models.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{sessionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: user.Email,
		Type:  user.Type,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, expires, nil
}

// VerifyToken implements TokenVerifier.
func (m *SessionManager) VerifyToken(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{},
		func(*jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(sessionAudience),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse session: %w", domain.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

func (m *SessionManager) Close() error { return nil }

// Chain tries each verifier in order and returns the first success.
type Chain []TokenVerifier

func (c Chain) VerifyToken(tokenString string) (*models.SessionClaims, error) {
	for _, v := range c {
		if claims, err := v.VerifyToken(tokenString); err == nil {
			return claims, nil
		}
	}
	return nil, domain.ErrUnauthorized
}

func (c Chain) Close() error {
	var errs []error
	for _, v := range c {
		errs = append(errs, v.Close())
	}
	return errors.Join(errs...)
}
