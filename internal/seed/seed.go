// Package seed creates a demo account with a sample conversation for local
// development.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
	accountSvc "chatbot/internal/domain/services/account"
)

// Seeder writes demo data through the regular services and repositories.
type Seeder struct {
	accounts  accountSvc.AccountService
	chats     repositories.ChatRepository
	messages  repositories.MessageRepository
	txManager repositories.TransactionManager
	now       func() time.Time
	logger    *slog.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(
	accounts accountSvc.AccountService,
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) *Seeder {
	return &Seeder{
		accounts:  accounts,
		chats:     chats,
		messages:  messages,
		txManager: txManager,
		now:       time.Now,
		logger:    logger,
	}
}

var sampleConversation = []struct {
	role models.Role
	text string
}{
	{models.RoleUser, "What is the weather like in Lisbon in spring?"},
	{models.RoleAssistant, "Spring in Lisbon is mild, usually between 15 and 22°C with occasional showers."},
	{models.RoleUser, "Write me a short packing list."},
	{models.RoleAssistant, "Light jacket, umbrella, comfortable walking shoes and sunglasses."},
}

// Seed registers the account and gives it one private chat. It returns the
// new user and the external id of the chat.
func (s *Seeder) Seed(ctx context.Context, creds *accountSvc.Credentials) (*models.User, string, error) {
	signed, err := s.accounts.Register(ctx, creds)
	if err != nil {
		return nil, "", fmt.Errorf("register %s: %w", creds.Email, err)
	}
	user := signed.User

	chat := &models.Chat{
		ExternalID: uuid.NewString(),
		Title:      "Spring in Lisbon",
		UserID:     user.ID,
		Visibility: models.VisibilityPrivate,
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if _, err := s.chats.CreateChat(txCtx, chat); err != nil {
			return fmt.Errorf("create chat: %w", err)
		}

		start := s.now().UTC().Add(-time.Duration(len(sampleConversation)) * time.Minute)
		rows := make([]models.Message, 0, len(sampleConversation))
		for i, m := range sampleConversation {
			parts, err := json.Marshal([]models.Part{{Type: "text", Text: m.text}})
			if err != nil {
				return err
			}
			rows = append(rows, models.Message{
				ID:          uuid.NewString(),
				ChatID:      chat.ID,
				Role:        m.role,
				Parts:       parts,
				Attachments: json.RawMessage("[]"),
				CreatedAt:   start.Add(time.Duration(i) * time.Minute),
			})
		}
		return s.messages.SaveMessages(txCtx, rows)
	})
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("seeded demo account",
		"user_id", user.ID,
		"email", user.Email,
		"chat_id", chat.ExternalID,
		"messages", len(sampleConversation),
	)
	return user, chat.ExternalID, nil
}
