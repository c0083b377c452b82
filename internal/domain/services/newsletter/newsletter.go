package newsletter

import (
	"context"

	"chatbot/internal/domain/models"
)

// NewsletterService manages double opt-in subscriptions
type NewsletterService interface {
	// Subscribe creates or refreshes a pending subscription and queues the
	// confirmation mail.
	Subscribe(ctx context.Context, email string) (models.SubscribeStatus, error)

	Confirm(ctx context.Context, token string) (models.ConfirmStatus, error)

	// Unsubscribe returns false when the token is unknown.
	Unsubscribe(ctx context.Context, token string) (bool, error)
}
