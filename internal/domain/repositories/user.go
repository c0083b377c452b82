package repositories

import (
	"context"

	"chatbot/internal/domain/models"
)

// UserRepository defines data access for accounts
type UserRepository interface {
	// CreateUser inserts the user and fills ID and CreatedAt.
	// Returns domain.ErrConflict if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUser returns domain.ErrNotFound if missing
	GetUser(ctx context.Context, id string) (*models.User, error)

	// GetUserByEmail returns domain.ErrNotFound if missing
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// EnsureUser creates the user with the given id if it does not exist.
	// Used for identities minted by an external provider.
	EnsureUser(ctx context.Context, user *models.User) error
}
