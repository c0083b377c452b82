package auth

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	m, err := NewSessionManager(testSecret, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return m
}

func TestSessionRoundTrip(t *testing.T) {
	m := newTestManager(t)
	user := &models.User{ID: "u1", Email: "guest-1@guest.local", Type: models.UserTypeGuest}

	token, expires, err := m.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	session := models.SessionFromClaims(claims)
	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, models.UserTypeGuest, session.Type)
}

func TestSessionRejected(t *testing.T) {
	m := newTestManager(t)
	user := &models.User{ID: "u1", Type: models.UserTypeRegular}
	token, _, err := m.Issue(user)
	require.NoError(t, err)

	other, err := NewSessionManager("ffffffffffffffffffffffffffffffff", time.Hour, m.logger)
	require.NoError(t, err)

	expired := newTestManager(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(user)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &models.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", Issuer: issuer},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier TokenVerifier
		token    string
	}{
		{"wrong secret", other, token},
		{"expired", m, old},
		{"alg none", m, unsigned},
		{"garbage", m, "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.verifier.VerifyToken(tt.token)
			assert.True(t, errors.Is(err, domain.ErrUnauthorized), "got %v", err)
		})
	}
}

func TestShortSecret(t *testing.T) {
	_, err := NewSessionManager("short", time.Hour, nil)
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	first := newTestManager(t)
	second, err := NewSessionManager("ffffffffffffffffffffffffffffffff", time.Hour, first.logger)
	require.NoError(t, err)

	token, _, err := second.Issue(&models.User{ID: "u2", Type: models.UserTypeRegular})
	require.NoError(t, err)

	claims, err := Chain{first, second}.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u2", claims.Subject)

	_, err = Chain{first}.VerifyToken(token)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
