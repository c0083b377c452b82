// Package newsletter implements double opt-in subscriptions. Confirmation
// mails are delivered by an asynq worker so the subscribe request never
// waits on the mail provider.
package newsletter

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
	newsletterSvc "chatbot/internal/domain/services/newsletter"
)

var emailRegexp = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// MailQueue hands a confirmation mail to the delivery worker.
type MailQueue interface {
	EnqueueConfirmation(ctx context.Context, mail ConfirmationMail) error
}

// Service implements the NewsletterService interface
type Service struct {
	repo    repositories.SubscriberRepository
	queue   MailQueue
	baseURL string
	logger  *slog.Logger
}

// NewService creates a new newsletter service. baseURL prefixes the confirm
// and unsubscribe links.
func NewService(repo repositories.SubscriberRepository, queue MailQueue, baseURL string, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		queue:   queue,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

var _ newsletterSvc.NewsletterService = (*Service)(nil)

// Subscribe creates a pending subscription or rotates the token of an
// unconfirmed one
func (s *Service) Subscribe(ctx context.Context, email string) (models.SubscribeStatus, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Validate(email, validation.Required, validation.Length(3, 254), validation.Match(emailRegexp)); err != nil {
		return "", fmt.Errorf("%w: email: %v", domain.ErrValidation, err)
	}

	token, err := newToken()
	if err != nil {
		return "", err
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		sub := &models.Subscriber{Email: email, Token: token}
		if err := s.repo.CreateSubscriber(ctx, sub); err != nil {
			return "", err
		}
	case err != nil:
		return "", err
	case existing.Confirmed:
		return models.SubscribeAlreadyConfirmed, nil
	default:
		if err := s.repo.UpdateToken(ctx, existing.ID, token); err != nil {
			return "", err
		}
	}

	mail := ConfirmationMail{
		To:             email,
		ConfirmURL:     s.baseURL + "/api/newsletter/confirm?token=" + token,
		UnsubscribeURL: s.baseURL + "/api/newsletter/unsubscribe?token=" + token,
	}
	if err := s.queue.EnqueueConfirmation(ctx, mail); err != nil {
		// The subscriber can retry; the row is already pending.
		s.logger.Warn("failed to queue confirmation mail", "error", err)
	}

	return models.SubscribePending, nil
}

// Confirm marks the subscription behind token as confirmed
func (s *Service) Confirm(ctx context.Context, token string) (models.ConfirmStatus, error) {
	if token == "" {
		return models.ConfirmInvalid, nil
	}
	sub, err := s.repo.GetByToken(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return models.ConfirmInvalid, nil
	}
	if err != nil {
		return "", err
	}
	if sub.Confirmed {
		return models.ConfirmAlready, nil
	}

	if err := s.repo.MarkConfirmed(ctx, sub.ID); err != nil {
		return "", err
	}
	s.logger.Info("newsletter subscription confirmed", "subscriber_id", sub.ID)
	return models.ConfirmConfirmed, nil
}

// Unsubscribe deletes the subscription behind token
func (s *Service) Unsubscribe(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	sub, err := s.repo.GetByToken(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := s.repo.DeleteSubscriber(ctx, sub.ID); err != nil {
		return false, err
	}
	s.logger.Info("newsletter subscription removed", "subscriber_id", sub.ID)
	return true, nil
}

// newToken returns 32 random bytes as hex.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
