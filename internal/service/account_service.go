package service

import (
	"context"
	"errors"
	"strings"

	"event-site/internal/config"
	"event-site/internal/data"
	"event-site/internal/logger"
)

// UserRepository defines the interface for database operations on users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*data.User, error)
	GetByUsername(ctx context.Context, username string) (*data.User, error)
	GetByEmail(ctx context.Context, email string) (*data.User, error)
	Create(ctx context.Context, user *data.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

const minPasswordLen = 8

// AccountService handles administrator accounts and sign-in.
type AccountService struct {
	repo UserRepository
	log  logger.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(repo UserRepository, log logger.Logger) *AccountService {
	return &AccountService{repo: repo, log: log}
}

// Authenticate checks a username and password. Only administrators can sign
// in; every failure is reported as ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*data.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsAdmin || !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// AdminByEmail returns the administrator with email. It is used to map an
// SSO identity onto a local account.
func (s *AccountService) AdminByEmail(ctx context.Context, email string) (*data.User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsAdmin {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// UserByID returns a user.
func (s *AccountService) UserByID(ctx context.Context, id int64) (*data.User, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateAdmin adds an administrator account.
func (s *AccountService) CreateAdmin(ctx context.Context, username, email, password string) (*data.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalid("Username is required")
	}
	if len(password) < minPasswordLen {
		return nil, invalid("Password must be at least %d characters", minPasswordLen)
	}
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, invalid("User %q already exists", username)
	} else if !errors.Is(err, data.ErrNotFound) {
		return nil, err
	}

	user := &data.User{Username: username, Email: strings.TrimSpace(email), IsAdmin: true}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the configured administrator when it does not exist
// yet. Nothing is created while no password is configured.
func (s *AccountService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Password == "" {
		return nil
	}
	if _, err := s.repo.GetByUsername(ctx, cfg.Username); err == nil {
		return nil
	} else if !errors.Is(err, data.ErrNotFound) {
		return err
	}
	if _, err := s.CreateAdmin(ctx, cfg.Username, cfg.Email, cfg.Password); err != nil {
		return err
	}
	s.log.Info("Created admin user " + cfg.Username)
	return nil
}

// SetPassword replaces the password of username.
func (s *AccountService) SetPassword(ctx context.Context, username, password string) error {
	if len(password) < minPasswordLen {
		return invalid("Password must be at least %d characters", minPasswordLen)
	}
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.ID, user.PasswordHash)
}
