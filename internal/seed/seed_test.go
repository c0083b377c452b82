package seed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
	accountSvc "chatbot/internal/domain/services/account"
)

type stubAccounts struct {
	accountSvc.AccountService
	err error
}

func (s *stubAccounts) Register(_ context.Context, creds *accountSvc.Credentials) (*accountSvc.SignedIn, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &accountSvc.SignedIn{User: &models.User{ID: "user-1", Email: creds.Email}}, nil
}

type memChats struct {
	repositories.ChatRepository
	created []*models.Chat
}

func (m *memChats) CreateChat(_ context.Context, chat *models.Chat) (bool, error) {
	chat.ID = "internal-1"
	m.created = append(m.created, chat)
	return true, nil
}

type memMessages struct {
	repositories.MessageRepository
	saved []models.Message
}

func (m *memMessages) SaveMessages(_ context.Context, rows []models.Message) error {
	m.saved = append(m.saved, rows...)
	return nil
}

type inlineTx struct{}

func (inlineTx) ExecTx(ctx context.Context, fn repositories.TxFn) error { return fn(ctx) }

func TestSeed(t *testing.T) {
	chats := &memChats{}
	messages := &memMessages{}
	s := NewSeeder(&stubAccounts{}, chats, messages, inlineTx{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	user, chatID, err := s.Seed(context.Background(), &accountSvc.Credentials{Email: "demo@example.com", Password: "password"})
	require.NoError(t, err)

	assert.Equal(t, "user-1", user.ID)
	require.Len(t, chats.created, 1)
	assert.Equal(t, chatID, chats.created[0].ExternalID)
	assert.Equal(t, "user-1", chats.created[0].UserID)

	require.Len(t, messages.saved, len(sampleConversation))
	for i, m := range messages.saved {
		assert.Equal(t, "internal-1", m.ChatID)
		assert.Equal(t, sampleConversation[i].role, m.Role)
		if i > 0 {
			assert.True(t, m.CreatedAt.After(messages.saved[i-1].CreatedAt), "messages are ordered")
		}
		var parts []models.Part
		require.NoError(t, json.Unmarshal(m.Parts, &parts))
		assert.Equal(t, sampleConversation[i].text, parts[0].Text)
	}
}

func TestSeedRegisterFails(t *testing.T) {
	chats := &memChats{}
	s := NewSeeder(&stubAccounts{err: errors.New("taken")}, chats, &memMessages{}, inlineTx{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, _, err := s.Seed(context.Background(), &accountSvc.Credentials{Email: "demo@example.com"})
	require.Error(t, err)
	assert.Empty(t, chats.created)
}
