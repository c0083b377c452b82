package account

import (
	"context"
	"time"

	"chatbot/internal/domain/models"
)

// Credentials is the body of register and login requests.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignedIn is a user together with a freshly issued session token.
type SignedIn struct {
	User      *models.User `json:"user"`
	Token     string       `json:"-"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// AccountService defines business logic for guest and credential accounts
type AccountService interface {
	// CreateGuest creates a guest user and signs them in.
	// Returns forbidden:auth when guest accounts are disabled.
	CreateGuest(ctx context.Context) (*SignedIn, error)

	// Register creates a credential account and signs the user in.
	Register(ctx context.Context, creds *Credentials) (*SignedIn, error)

	// Login checks credentials. Unknown emails and wrong passwords fail the same way.
	Login(ctx context.Context, creds *Credentials) (*SignedIn, error)

	// EnsureUser makes sure an externally authenticated identity has a user row.
	EnsureUser(ctx context.Context, session *models.Session) error
}
