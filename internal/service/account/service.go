package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/crypto/bcrypt"

	"chatbot/internal/config"
	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
	accountSvc "chatbot/internal/domain/services/account"
)

// TokenIssuer mints session tokens. Implemented by auth.SessionManager.
type TokenIssuer interface {
	Issue(user *models.User) (string, time.Time, error)
}

var emailRegexp = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const maxPasswordBytes = 72

// Service implements the AccountService interface
type Service struct {
	userRepo repositories.UserRepository
	issuer   TokenIssuer
	flags    config.FeatureFlags
	cost     int
	now      func() time.Time
	logger   *slog.Logger

	// dummyHash is compared against when no password hash exists so that
	// unknown emails take as long as wrong passwords.
	dummyOnce sync.Once
	dummyHash []byte

	ensured sync.Map
}

// NewService creates a new account service
func NewService(userRepo repositories.UserRepository, issuer TokenIssuer, flags config.FeatureFlags, logger *slog.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		issuer:   issuer,
		flags:    flags,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		logger:   logger,
	}
}

var _ accountSvc.AccountService = (*Service)(nil)

// CreateGuest creates a guest user and signs them in
func (s *Service) CreateGuest(ctx context.Context) (*accountSvc.SignedIn, error) {
	if !s.flags.GuestAccounts {
		return nil, domain.NewChatError("forbidden:auth", "Guest accounts are disabled.")
	}

	user := &models.User{
		Email: fmt.Sprintf("guest-%d@guest.local", s.now().UnixMilli()),
		Type:  models.UserTypeGuest,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create guest: %w", err)
	}

	s.logger.Info("guest user created", "user_id", user.ID)
	return s.signIn(user)
}

// Register creates a credential account
func (s *Service) Register(ctx context.Context, creds *accountSvc.Credentials) (*accountSvc.SignedIn, error) {
	if err := validateCredentials(creds); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	encoded := string(hash)

	user := &models.User{
		Email:        creds.Email,
		PasswordHash: &encoded,
		Type:         models.UserTypeRegular,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.NewChatError("bad_request:api", "An account with this email already exists.").Wrap(err)
		}
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return s.signIn(user)
}

// Login checks the password of a credential account
func (s *Service) Login(ctx context.Context, creds *accountSvc.Credentials) (*accountSvc.SignedIn, error) {
	if err := validateCredentials(creds); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByEmail(ctx, creds.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if user == nil || user.PasswordHash == nil {
		bcrypt.CompareHashAndPassword(s.dummy(), []byte(creds.Password))
		return nil, domain.NewChatError("unauthorized:auth", "Invalid email or password.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, domain.NewChatError("unauthorized:auth", "Invalid email or password.")
	}

	return s.signIn(user)
}

// EnsureUser creates the user row for an externally issued identity once per process
func (s *Service) EnsureUser(ctx context.Context, session *models.Session) error {
	if _, ok := s.ensured.Load(session.UserID); ok {
		return nil
	}

	err := s.userRepo.EnsureUser(ctx, &models.User{
		ID:    session.UserID,
		Email: session.Email,
		Type:  session.Type,
	})
	if err != nil {
		return err
	}

	s.ensured.Store(session.UserID, struct{}{})
	return nil
}

func (s *Service) signIn(user *models.User) (*accountSvc.SignedIn, error) {
	token, expires, err := s.issuer.Issue(user)
	if err != nil {
		return nil, err
	}
	return &accountSvc.SignedIn{User: user, Token: token, ExpiresAt: expires}, nil
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), s.cost)
	})
	return s.dummyHash
}

// validateCredentials normalizes the email in place, then validates.
func validateCredentials(creds *accountSvc.Credentials) error {
	creds.Email = normalizeEmail(creds.Email)
	err := validation.ValidateStruct(creds,
		validation.Field(&creds.Email, validation.Required, validation.Length(3, 64), validation.Match(emailRegexp)),
		validation.Field(&creds.Password, validation.Required, validation.Length(6, 0), validation.By(bcryptSized)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// bcryptSized rejects passwords longer than the 72 bytes bcrypt accepts.
// Length counts runes, so multi-byte passwords need this separate check.
func bcryptSized(value interface{}) error {
	if s, _ := value.(string); len(s) > maxPasswordBytes {
		return validation.NewError("validation_password_too_long", "must be at most 72 bytes")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
