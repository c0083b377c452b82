package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chatbot/internal/domain"
)

const fileAudience = "file"

// LinkSigner signs short download tokens bound to one storage id.
// It shares the session secret but uses its own audience so a link token
// never verifies as a session.
type LinkSigner struct {
	secret []byte
	now    func() time.Time
}

func NewLinkSigner(secret string) *LinkSigner {
	return &LinkSigner{secret: []byte(secret), now: time.Now}
}

// Sign returns a token for storageID valid for ttl.
func (s *LinkSigner) Sign(storageID string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   storageID,
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{fileAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign link: %w", err)
	}
	return token, nil
}

// Verify checks that token was signed for storageID and has not expired.
func (s *LinkSigner) Verify(token, storageID string) error {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(fileAudience),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("parse link: %w", domain.ErrForbidden)
	}
	if claims.Subject != storageID {
		return fmt.Errorf("link for another file: %w", domain.ErrForbidden)
	}
	return nil
}
