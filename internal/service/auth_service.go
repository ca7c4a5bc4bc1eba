package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"
)

// AuthService coordinates registration, login and account removal.
type AuthService struct {
	users  UserStore
	hasher PasswordHasher
	tokens *TokenService
	audit  *AuditService

	// compared against on unknown usernames so both failure paths pay for one bcrypt check
	dummyHash string
}

func NewAuthService(users UserStore, hasher PasswordHasher, tokens *TokenService, audit *AuditService) *AuthService {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		logger.Warn("failed to prepare dummy password hash", "error", err)
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		audit:     audit,
		dummyHash: dummy,
	}
}

// Register creates a user. It does not issue a token.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", domain.ErrValidation)
	}
	if utf8.RuneCountInString(username) > domain.MaxUsernameLength {
		return nil, fmt.Errorf("username longer than %d characters: %w", domain.MaxUsernameLength, domain.ErrValidation)
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("username %q: %w", username, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{Username: username, PasswordHash: hash}
	// the unique constraint still decides when two registrations race past the lookup
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.LogAuth(ctx, user.ID, domain.AuditActionRegister, user.Username)
	logger.WithContext(ctx).Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and returns a signed token. An unknown username
// and a wrong password both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", fmt.Errorf("username and password are required: %w", domain.ErrValidation)
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		s.hasher.Verify(password, s.dummyHash)
		s.audit.LogAuth(ctx, 0, domain.AuditActionLoginFailed, username)
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.audit.LogAuth(ctx, user.ID, domain.AuditActionLoginFailed, user.Username)
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", err
	}

	s.audit.LogAuth(ctx, user.ID, domain.AuditActionLogin, user.Username)
	return token, nil
}

// DeleteAccount removes the user and, through the store's cascade, all of its todos.
func (s *AuthService) DeleteAccount(ctx context.Context, user *domain.User) error {
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("delete user %d: %w", user.ID, err)
	}
	s.audit.LogAccountDelete(ctx, user.ID, user.Username)
	logger.WithContext(ctx).Info("account deleted", "user_id", user.ID)
	return nil
}

// Activity returns the user's recent register, login and account events.
func (s *AuthService) Activity(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	return s.audit.Recent(ctx, userID, limit)
}
