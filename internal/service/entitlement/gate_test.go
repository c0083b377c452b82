package entitlement

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

	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
)

type fakeChats struct {
	ids map[string][]string
}

func (f *fakeChats) ListChatIDsByUser(_ context.Context, userID string) ([]string, error) {
	return f.ids[userID], nil
}

func (f *fakeChats) CreateChat(context.Context, *models.Chat) (bool, error) { return false, nil }
func (f *fakeChats) GetChatByExternalID(context.Context, string) (*models.Chat, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeChats) GetChatByID(context.Context, string) (*models.Chat, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeChats) ListChatsByUser(context.Context, models.HistoryQuery) (*models.ChatPage, error) {
	return &models.ChatPage{}, nil
}
func (f *fakeChats) UpdateVisibility(context.Context, string, models.Visibility) error { return nil }
func (f *fakeChats) UpdateLastContext(context.Context, string, json.RawMessage) error { return nil }
func (f *fakeChats) DeleteChat(context.Context, string) error { return nil }

// fakeMessages holds user message timestamps per chat
type fakeMessages struct {
	sent map[string][]time.Time
	err  error
}

func (f *fakeMessages) CountUserMessagesSince(_ context.Context, chatID string, since time.Time) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, ts := range f.sent[chatID] {
		if !ts.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeMessages) SaveMessages(context.Context, []models.Message) error { return nil }
func (f *fakeMessages) GetMessage(context.Context, string) (*models.Message, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeMessages) ListMessagesByChat(context.Context, string) ([]models.Message, error) {
	return nil, nil
}
func (f *fakeMessages) DeleteMessagesByChat(context.Context, string) (int64, error) { return 0, nil }
func (f *fakeMessages) DeleteMessagesSince(context.Context, string, time.Time) (int64, error) {
	return 0, nil
}

func spread(now time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = now.Add(-time.Duration(i+1) * time.Minute)
	}
	return out
}

func newTestGate(chats *fakeChats, msgs *fakeMessages, now time.Time) *Gate {
	g := NewGate(chats, msgs, Limits{models.UserTypeGuest: 20, models.UserTypeRegular: 100},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	g.now = func() time.Time { return now }
	return g
}

func TestCheckBoundary(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		userType models.UserType
		perChat  []int
		wantErr  bool
	}{
		{"guest at max-1", models.UserTypeGuest, []int{10, 9}, false},
		{"guest at max", models.UserTypeGuest, []int{10, 10}, true},
		{"regular at max-1", models.UserTypeRegular, []int{99}, false},
		{"regular at max", models.UserTypeRegular, []int{50, 25, 25}, true},
		{"no chats", models.UserTypeGuest, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chats := &fakeChats{ids: map[string][]string{}}
			msgs := &fakeMessages{sent: map[string][]time.Time{}}
			for i, n := range tt.perChat {
				id := string(rune('a' + i))
				chats.ids["u1"] = append(chats.ids["u1"], id)
				msgs.sent[id] = spread(now, n)
			}

			err := newTestGate(chats, msgs, now).Check(context.Background(), "u1", tt.userType)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrRateLimited)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCountRecentIgnoresOldMessages(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	chats := &fakeChats{ids: map[string][]string{"u1": {"c1"}}}
	msgs := &fakeMessages{sent: map[string][]time.Time{
		"c1": {now.Add(-time.Hour), now.Add(-25 * time.Hour), now.Add(-48 * time.Hour)},
	}}

	n, err := newTestGate(chats, msgs, now).CountRecent(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCheckPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("db down")
	chats := &fakeChats{ids: map[string][]string{"u1": {"c1"}}}
	msgs := &fakeMessages{err: boom}

	err := newTestGate(chats, msgs, time.Now()).Check(context.Background(), "u1", models.UserTypeGuest)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrRateLimited)
}
