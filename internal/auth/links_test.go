package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
)

func TestLinkSigner(t *testing.T) {
	signer := NewLinkSigner(testSecret)

	token, err := signer.Sign("blob-1", time.Hour)
	require.NoError(t, err)
	require.NoError(t, signer.Verify(token, "blob-1"))

	err = signer.Verify(token, "blob-2")
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	signer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	err = signer.Verify(token, "blob-1")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestSessionTokenIsNotALink(t *testing.T) {
	m := newTestManager(t)
	token, _, err := m.Issue(&models.User{ID: "blob-1"})
	require.NoError(t, err)

	err = NewLinkSigner(testSecret).Verify(token, "blob-1")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestLinkIsNotASession(t *testing.T) {
	token, err := NewLinkSigner(testSecret).Sign("blob-1", time.Hour)
	require.NoError(t, err)

	_, err = newTestManager(t).VerifyToken(token)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
