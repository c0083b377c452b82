package models

import "github.com/golang-jwt/jwt/v5"

type UserType string

const (
	UserTypeGuest   UserType = "guest"
	UserTypeRegular UserType = "regular"
)

// SessionClaims is the payload of session tokens issued by this server.
type SessionClaims struct {
	jwt.RegisteredClaims        // sub carries the user id
	Email                string   `json:"email"`
	Type                 UserType `json:"type"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *SessionClaims) GetUserID() string {
	return c.Subject
}

// Session is the authenticated identity attached to a request.
type Session struct {
	UserID string   `json:"id"`
	Email  string   `json:"email"`
	Type   UserType `json:"type"`
}

// SessionFromClaims converts verified claims into a Session.
func SessionFromClaims(c *SessionClaims) *Session {
	t := c.Type
	if t == "" {
		t = UserTypeRegular
	}
	return &Session{UserID: c.Subject, Email: c.Email, Type: t}
}
