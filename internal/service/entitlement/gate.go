package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chatbot/internal/config"
	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
)

// Limits maps a user type to its daily message allowance.
type Limits map[models.UserType]int

// LimitsFromConfig reads the per-type maxima.
func LimitsFromConfig(cfg *config.Config) Limits {
	return Limits{
		models.UserTypeGuest:   cfg.GuestMessagesPerDay,
		models.UserTypeRegular: cfg.UserMessagesPerDay,
	}
}

// Gate decides whether a user may send another message.
type Gate struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	limits   Limits
	now      func() time.Time
	logger   *slog.Logger
}

func NewGate(
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	limits Limits,
	logger *slog.Logger,
) *Gate {
	return &Gate{
		chats:    chats,
		messages: messages,
		limits:   limits,
		now:      time.Now,
		logger:   logger,
	}
}

// CountRecent sums the user's own messages sent in the last window across
// every chat they own.
func (g *Gate) CountRecent(ctx context.Context, userID string) (int, error) {
	chatIDs, err := g.chats.ListChatIDsByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list chats: %w", err)
	}

	since := g.now().Add(-config.EntitlementWindow)
	total := 0
	for _, id := range chatIDs {
		n, err := g.messages.CountUserMessagesSince(ctx, id, since)
		if err != nil {
			return 0, fmt.Errorf("count messages in chat %s: %w", id, err)
		}
		total += n
	}
	return total, nil
}

// Check returns an error wrapping domain.ErrRateLimited once the user has
// reached the maximum for their type.
func (g *Gate) Check(ctx context.Context, userID string, userType models.UserType) error {
	max, ok := g.limits[userType]
	if !ok {
		max = g.limits[models.UserTypeRegular]
	}

	count, err := g.CountRecent(ctx, userID)
	if err != nil {
		return err
	}

	if count >= max {
		g.logger.Info("message allowance exhausted",
			"user_id", userID,
			"user_type", userType,
			"count", count,
			"max", max,
		)
		return fmt.Errorf("%d of %d messages used: %w", count, max, domain.ErrRateLimited)
	}
	return nil
}
