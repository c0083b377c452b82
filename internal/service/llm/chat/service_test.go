package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbot/internal/config"
	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
	llmSvc "chatbot/internal/domain/services/llm"
	"chatbot/internal/service/resolver"
)

type store struct {
	chats    map[string]*models.Chat
	messages []models.Message
	votes    map[[2]string]bool
	lastPage models.HistoryQuery
}

func newStore() *store {
	return &store{chats: map[string]*models.Chat{}, votes: map[[2]string]bool{}}
}

func (s *store) addChat(id, externalID, owner string, vis models.Visibility) *models.Chat {
	c := &models.Chat{ID: id, ExternalID: externalID, UserID: owner, Visibility: vis}
	s.chats[id] = c
	return c
}

func (s *store) CreateChat(context.Context, *models.Chat) (bool, error) { return true, nil }

func (s *store) GetChatByExternalID(_ context.Context, externalID string) (*models.Chat, error) {
	for _, c := range s.chats {
		if c.ExternalID == externalID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *store) GetChatByID(_ context.Context, id string) (*models.Chat, error) {
	if c, ok := s.chats[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (s *store) ListChatIDsByUser(context.Context, string) ([]string, error) { return nil, nil }

func (s *store) ListChatsByUser(_ context.Context, q models.HistoryQuery) (*models.ChatPage, error) {
	s.lastPage = q
	return &models.ChatPage{}, nil
}

func (s *store) UpdateVisibility(_ context.Context, id string, v models.Visibility) error {
	c, ok := s.chats[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Visibility = v
	return nil
}

func (s *store) UpdateLastContext(context.Context, string, json.RawMessage) error { return nil }

func (s *store) DeleteChat(_ context.Context, id string) error {
	delete(s.chats, id)
	return nil
}

func (s *store) SaveMessages(_ context.Context, msgs []models.Message) error {
	s.messages = append(s.messages, msgs...)
	return nil
}

func (s *store) GetMessage(_ context.Context, id string) (*models.Message, error) {
	for _, m := range s.messages {
		if m.ID == id {
			cp := m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *store) ListMessagesByChat(_ context.Context, chatID string) ([]models.Message, error) {
	var out []models.Message
	for _, m := range s.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *store) CountUserMessagesSince(context.Context, string, time.Time) (int, error) {
	return 0, nil
}

func (s *store) DeleteMessagesByChat(_ context.Context, chatID string) (int64, error) {
	return s.deleteWhere(func(m models.Message) bool { return m.ChatID == chatID }), nil
}

func (s *store) DeleteMessagesSince(_ context.Context, chatID string, since time.Time) (int64, error) {
	return s.deleteWhere(func(m models.Message) bool {
		return m.ChatID == chatID && !m.CreatedAt.Before(since)
	}), nil
}

func (s *store) deleteWhere(match func(models.Message) bool) int64 {
	kept := s.messages[:0]
	var n int64
	for _, m := range s.messages {
		if match(m) {
			n++
			continue
		}
		kept = append(kept, m)
	}
	s.messages = kept
	return n
}

func (s *store) UpsertVote(_ context.Context, chatID, messageID string, up bool) error {
	s.votes[[2]string{chatID, messageID}] = up
	return nil
}

func (s *store) ListVotesByChat(_ context.Context, chatID string) ([]models.Vote, error) {
	var out []models.Vote
	for k, up := range s.votes {
		if k[0] == chatID {
			out = append(out, models.Vote{ChatID: chatID, MessageID: k[1], IsUpvoted: up})
		}
	}
	return out, nil
}

type inlineTx struct{ calls int }

func (t *inlineTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	t.calls++
	return fn(ctx)
}

func newTestService(st *store, flags config.FeatureFlags) (*Service, *inlineTx) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tx := &inlineTx{}
	res := resolver.New[models.Chat](st.GetChatByExternalID, st.GetChatByID, resolver.ChatPolicy, logger)
	return NewService(st, st, st, res, tx, flags, logger), tx
}

func chatErrorCode(t *testing.T, err error) string {
	t.Helper()
	var ce *domain.ChatError
	require.True(t, errors.As(err, &ce), "expected ChatError, got %v", err)
	return ce.Code()
}

func TestDeleteChatRemovesMessages(t *testing.T) {
	st := newStore()
	st.addChat("c1internal", "chat-1", "user-1", models.VisibilityPrivate)
	st.addChat("c2internal", "chat-2", "user-1", models.VisibilityPrivate)
	st.messages = []models.Message{
		{ID: "m1", ChatID: "c1internal"},
		{ID: "m2", ChatID: "c1internal"},
		{ID: "m3", ChatID: "c2internal"},
	}
	svc, tx := newTestService(st, config.FeatureFlags{})

	deleted, err := svc.DeleteChat(context.Background(), "user-1", "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "chat-1", deleted.ExternalID)
	assert.Equal(t, 1, tx.calls)

	left, _ := st.ListMessagesByChat(context.Background(), "c1internal")
	assert.Empty(t, left)
	assert.Len(t, st.messages, 1)
	_, ok := st.chats["c1internal"]
	assert.False(t, ok)
}

func TestDeleteChatByInternalID(t *testing.T) {
	st := newStore()
	st.addChat("c1internal", "chat-1", "user-1", models.VisibilityPrivate)
	svc, _ := newTestService(st, config.FeatureFlags{})

	deleted, err := svc.DeleteChat(context.Background(), "user-1", "c1internal")
	require.NoError(t, err)
	assert.Equal(t, "chat-1", deleted.ExternalID)
}

func TestDeleteChatErrors(t *testing.T) {
	st := newStore()
	st.addChat("c1internal", "chat-1", "owner", models.VisibilityPublic)
	svc, _ := newTestService(st, config.FeatureFlags{})

	_, err := svc.DeleteChat(context.Background(), "other", "chat-1")
	assert.Equal(t, "forbidden:chat", chatErrorCode(t, err))

	_, err = svc.DeleteChat(context.Background(), "owner", "missing-chat")
	assert.Equal(t, "not_found:chat", chatErrorCode(t, err))
}

func TestGetChatVisibility(t *testing.T) {
	st := newStore()
	st.addChat("priv", "private-chat", "owner", models.VisibilityPrivate)
	st.addChat("pub", "public-chat", "owner", models.VisibilityPublic)
	st.messages = []models.Message{{ID: "m1", ChatID: "pub", Role: models.RoleUser}}
	svc, _ := newTestService(st, config.FeatureFlags{})
	other := &models.Session{UserID: "other"}

	_, err := svc.GetChat(context.Background(), other, "private-chat")
	assert.Equal(t, "forbidden:chat", chatErrorCode(t, err))

	got, err := svc.GetChat(context.Background(), other, "public-chat")
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "public-chat", got.Messages[0].ChatID)

	_, err = svc.GetChat(context.Background(), nil, "public-chat")
	assert.Equal(t, "unauthorized:chat", chatErrorCode(t, err))
}

func TestUpdateVisibility(t *testing.T) {
	st := newStore()
	st.addChat("c1internal", "chat-1", "owner", models.VisibilityPrivate)

	t.Run("public needs sharing flag", func(t *testing.T) {
		svc, _ := newTestService(st, config.FeatureFlags{})
		err := svc.UpdateVisibility(context.Background(), "owner", "chat-1", models.VisibilityPublic)
		assert.True(t, errors.Is(err, domain.ErrDisabled))
		assert.Equal(t, models.VisibilityPrivate, st.chats["c1internal"].Visibility)
	})

	t.Run("allowed with flag", func(t *testing.T) {
		svc, _ := newTestService(st, config.FeatureFlags{ShareConversations: true})
		require.NoError(t, svc.UpdateVisibility(context.Background(), "owner", "chat-1", models.VisibilityPublic))
		assert.Equal(t, models.VisibilityPublic, st.chats["c1internal"].Visibility)
	})

	t.Run("unknown value", func(t *testing.T) {
		svc, _ := newTestService(st, config.FeatureFlags{ShareConversations: true})
		err := svc.UpdateVisibility(context.Background(), "owner", "chat-1", "team")
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})
}

func TestDeleteTrailingMessages(t *testing.T) {
	st := newStore()
	st.addChat("c1internal", "chat-1", "owner", models.VisibilityPrivate)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	st.messages = []models.Message{
		{ID: "m1", ChatID: "c1internal", CreatedAt: base},
		{ID: "m2", ChatID: "c1internal", CreatedAt: base.Add(time.Second)},
		{ID: "m3", ChatID: "c1internal", CreatedAt: base.Add(2 * time.Second)},
	}
	svc, _ := newTestService(st, config.FeatureFlags{})

	err := svc.DeleteTrailingMessages(context.Background(), "intruder", "m2")
	assert.Equal(t, "forbidden:chat", chatErrorCode(t, err))

	require.NoError(t, svc.DeleteTrailingMessages(context.Background(), "owner", "m2"))
	require.Len(t, st.messages, 1)
	assert.Equal(t, "m1", st.messages[0].ID)
}

func TestListHistoryQuery(t *testing.T) {
	st := newStore()
	svc, _ := newTestService(st, config.FeatureFlags{})

	page, err := svc.ListHistory(context.Background(), models.HistoryQuery{UserID: "u"})
	require.NoError(t, err)
	assert.NotNil(t, page.Chats)
	assert.Equal(t, config.DefaultHistoryLimit, st.lastPage.Limit)

	tests := []struct {
		name  string
		query models.HistoryQuery
	}{
		{"both cursors", models.HistoryQuery{UserID: "u", StartingAfter: "a", EndingBefore: "b"}},
		{"limit too large", models.HistoryQuery{UserID: "u", Limit: config.MaxHistoryLimit + 1}},
		{"negative limit", models.HistoryQuery{UserID: "u", Limit: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ListHistory(context.Background(), tt.query)
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
}

func TestVoteUpsertKeepsOneRow(t *testing.T) {
	st := newStore()
	st.addChat("c1internal", "chat-1", "owner", models.VisibilityPrivate)
	svc, _ := newTestService(st, config.FeatureFlags{})
	ctx := context.Background()

	require.NoError(t, svc.Vote(ctx, "owner", &llmSvc.VoteRequest{ChatID: "chat-1", MessageID: "m1", Type: "up"}))
	require.NoError(t, svc.Vote(ctx, "owner", &llmSvc.VoteRequest{ChatID: "chat-1", MessageID: "m1", Type: "down"}))

	votes, err := svc.ListVotes(ctx, "owner", "chat-1")
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.False(t, votes[0].IsUpvoted)
	assert.Equal(t, "chat-1", votes[0].ChatID)
}

func TestVoteErrors(t *testing.T) {
	st := newStore()
	st.addChat("c1internal", "chat-1", "owner", models.VisibilityPrivate)
	svc, _ := newTestService(st, config.FeatureFlags{})
	ctx := context.Background()

	err := svc.Vote(ctx, "owner", &llmSvc.VoteRequest{ChatID: "chat-1", MessageID: "m1", Type: "sideways"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	err = svc.Vote(ctx, "someone", &llmSvc.VoteRequest{ChatID: "chat-1", MessageID: "m1", Type: "up"})
	assert.Equal(t, "forbidden:vote", chatErrorCode(t, err))

	_, err = svc.ListVotes(ctx, "owner", "gone-chat")
	assert.Equal(t, "not_found:vote", chatErrorCode(t, err))
}
