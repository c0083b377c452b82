package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"chatbot/internal/config"
	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	accountSvc "chatbot/internal/domain/services/account"
)

type memUsers struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	ensures int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}}
}

func (m *memUsers) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return &domain.ConflictError{Message: "exists", ResourceType: "user"}
		}
	}
	user.ID = fmt.Sprintf("u%d", len(m.byID)+1)
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

func (m *memUsers) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
}

func (m *memUsers) EnsureUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensures++
	if _, ok := m.byID[user.ID]; !ok {
		cp := *user
		m.byID[user.ID] = &cp
	}
	return nil
}

type stubIssuer struct{}

func (stubIssuer) Issue(user *models.User) (string, time.Time, error) {
	return "token-" + user.ID, time.Unix(0, 0), nil
}

func newTestService(flags config.FeatureFlags) (*Service, *memUsers) {
	users := newMemUsers()
	svc := NewService(users, stubIssuer{}, flags, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.cost = bcrypt.MinCost
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, users
}

func TestCreateGuest(t *testing.T) {
	svc, _ := newTestService(config.FeatureFlags{GuestAccounts: true})

	signed, err := svc.CreateGuest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "guest-1700000000000@guest.local", signed.User.Email)
	assert.Equal(t, models.UserTypeGuest, signed.User.Type)
	assert.Equal(t, "token-"+signed.User.ID, signed.Token)
}

func TestCreateGuestDisabled(t *testing.T) {
	svc, _ := newTestService(config.FeatureFlags{})

	_, err := svc.CreateGuest(context.Background())
	var ce *domain.ChatError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "forbidden:auth", ce.Code())
}

func TestRegisterAndLogin(t *testing.T) {
	svc, users := newTestService(config.FeatureFlags{})
	ctx := context.Background()

	signed, err := svc.Register(ctx, &accountSvc.Credentials{Email: " Ada@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", signed.User.Email)
	assert.Equal(t, models.UserTypeRegular, signed.User.Type)

	stored, err := users.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordHash)
	assert.NotEqual(t, "secret1", *stored.PasswordHash)

	_, err = svc.Register(ctx, &accountSvc.Credentials{Email: "ada@example.com", Password: "other12"})
	var ce *domain.ChatError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "bad_request:api", ce.Code())

	loggedIn, err := svc.Login(ctx, &accountSvc.Credentials{Email: "ADA@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, signed.User.ID, loggedIn.User.ID)
}

func TestLoginRejected(t *testing.T) {
	svc, _ := newTestService(config.FeatureFlags{GuestAccounts: true})
	ctx := context.Background()

	_, err := svc.Register(ctx, &accountSvc.Credentials{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	guest, err := svc.CreateGuest(ctx)
	require.NoError(t, err)

	tests := []struct {
		name  string
		creds accountSvc.Credentials
	}{
		{"wrong password", accountSvc.Credentials{Email: "ada@example.com", Password: "secret2"}},
		{"unknown email", accountSvc.Credentials{Email: "bob@example.com", Password: "secret1"}},
		{"passwordless guest", accountSvc.Credentials{Email: guest.User.Email, Password: "secret1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, &tt.creds)
			var ce *domain.ChatError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, "unauthorized:auth", ce.Code())
		})
	}
}

func TestCredentialValidation(t *testing.T) {
	svc, _ := newTestService(config.FeatureFlags{})

	tests := []struct {
		name  string
		creds accountSvc.Credentials
	}{
		{"missing email", accountSvc.Credentials{Password: "secret1"}},
		{"malformed email", accountSvc.Credentials{Email: "not-an-email", Password: "secret1"}},
		{"short password", accountSvc.Credentials{Email: "ada@example.com", Password: "abc"}},
		{"password over 72 bytes", accountSvc.Credentials{Email: "ada@example.com", Password: strings.Repeat("é", 40)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), &tt.creds)
			assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
		})
	}
}

func TestCredentialsNormalizedBeforeValidation(t *testing.T) {
	creds := &accountSvc.Credentials{Email: "  Grace@Example.ORG\t", Password: strings.Repeat("é", 36)}

	require.NoError(t, validateCredentials(creds))
	assert.Equal(t, "grace@example.org", creds.Email)
}

func TestEnsureUserOncePerProcess(t *testing.T) {
	svc, users := newTestService(config.FeatureFlags{})
	session := &models.Session{UserID: "ext-1", Email: "ext@example.com", Type: models.UserTypeRegular}

	require.NoError(t, svc.EnsureUser(context.Background(), session))
	require.NoError(t, svc.EnsureUser(context.Background(), session))

	assert.Equal(t, 1, users.ensures)
	_, err := users.GetUser(context.Background(), "ext-1")
	assert.NoError(t, err)
}
