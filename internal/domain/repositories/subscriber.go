package repositories

import (
	"context"

	"chatbot/internal/domain/models"
)

// SubscriberRepository defines data access for newsletter subscriptions
type SubscriberRepository interface {
	// GetByEmail returns domain.ErrNotFound if missing
	GetByEmail(ctx context.Context, email string) (*models.Subscriber, error)

	// GetByToken returns domain.ErrNotFound if missing
	GetByToken(ctx context.Context, token string) (*models.Subscriber, error)

	CreateSubscriber(ctx context.Context, sub *models.Subscriber) error
	UpdateToken(ctx context.Context, id, token string) error
	MarkConfirmed(ctx context.Context, id string) error
	DeleteSubscriber(ctx context.Context, id string) error
}
