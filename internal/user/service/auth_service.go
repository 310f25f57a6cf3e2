package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"flagforge/internal/ratelimit"
	"flagforge/internal/secret"
	"flagforge/internal/user/repository"
	apperr "flagforge/pkg/errors"
	"flagforge/pkg/utils/logger"

	"go.uber.org/zap"
)

// Config holds auth service dependencies.
type Config struct {
	Users   repository.UserRepository
	Hasher  secret.Hasher
	Tokens  *TokenManager
	Limiter *ratelimit.Limiter
}

// AuthService handles registration and login.
type AuthService struct {
	users   repository.UserRepository
	hasher  secret.Hasher
	tokens  *TokenManager
	limiter *ratelimit.Limiter
}

// NewAuthService creates an auth service.
func NewAuthService(cfg Config) (*AuthService, error) {
	if cfg.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if cfg.Hasher == nil {
		return nil, fmt.Errorf("hasher is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token manager is required")
	}
	return &AuthService{
		users:   cfg.Users,
		hasher:  cfg.Hasher,
		tokens:  cfg.Tokens,
		limiter: cfg.Limiter,
	}, nil
}

// RegisterInput is a signup request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Account is the public view of a user.
type Account struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the result of a successful login.
type Session struct {
	Token   string   `json:"token"`
	Account *Account `json:"user"`
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	if err := validateUsername(input.Username); err != nil {
		return nil, err
	}
	if err := validateEmail(input.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.InternalServerError, "hash password failed")
	}

	user := &repository.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         repository.UserRoleUser,
	}
	id, err := s.users.Create(ctx, nil, user)
	if err != nil {
		switch {
		case stderrors.Is(err, repository.ErrUsernameExists):
			return nil, apperr.New(apperr.UsernameAlreadyExists)
		case stderrors.Is(err, repository.ErrEmailExists):
			return nil, apperr.New(apperr.EmailAlreadyExists)
		default:
			return nil, apperr.Wrapf(err, apperr.DatabaseError, "create user failed")
		}
	}
	user.ID = id

	logger.Info(ctx, "user registered",
		zap.Int64("user_id", id),
		zap.String("username", user.Username),
	)
	return accountOf(user), nil
}

// LoginInput is a signin request. ClientIP keys the login rate limit so
// one address cannot brute force credentials across many usernames.
type LoginInput struct {
	Username string
	Password string
	ClientIP string
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	if input.Username == "" || input.Password == "" {
		return nil, apperr.New(apperr.InvalidCredentials)
	}

	if s.limiter != nil && !s.limiter.TryConsume(ratelimit.Login, input.ClientIP) {
		return nil, apperr.New(apperr.LoginTooFrequently)
	}

	user, err := s.users.GetByUsername(ctx, nil, input.Username)
	if err != nil {
		if stderrors.Is(err, repository.ErrUserNotFound) {
			// Same answer as a bad password, no username probing.
			return nil, apperr.New(apperr.InvalidCredentials)
		}
		return nil, apperr.Wrapf(err, apperr.DatabaseError, "get user failed")
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, apperr.New(apperr.InvalidCredentials)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user logged in", zap.Int64("user_id", user.ID))
	return &Session{Token: token, Account: accountOf(user)}, nil
}

// Profile returns the account for an authenticated user id.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*Account, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		if stderrors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.New(apperr.UserNotFound)
		}
		return nil, apperr.Wrapf(err, apperr.DatabaseError, "get user failed")
	}
	return accountOf(user), nil
}

func accountOf(user *repository.User) *Account {
	return &Account{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      string(user.Role),
		Score:     user.Score,
		CreatedAt: user.CreatedAt,
	}
}
