package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MBSciTech/EcoChat/internal/auth"
	"github.com/MBSciTech/EcoChat/internal/model"
	"github.com/MBSciTech/EcoChat/internal/repo"
	"go.uber.org/zap"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
}

type authService struct {
	users  repo.UserRepository
	tokens *auth.TokenManager
	logger *zap.Logger
}

func NewAuthService(users repo.UserRepository, tokens *auth.TokenManager, logger *zap.Logger) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates the account and returns it with a fresh session token.
func (s *authService) Register(ctx context.Context, username, email, password string) (*model.User, string, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, "", fmt.Errorf("email lookup failed: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Status:       model.StatusOffline,
		CreatedAt:    time.Now().UTC(),
	}

	id, err := s.users.InsertUser(ctx, user)
	if err != nil {
		return nil, "", fmt.Errorf("create user failed: %w", err)
	}

	token, err := s.tokens.Generate(id)
	if err != nil {
		return nil, "", fmt.Errorf("issue token failed: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", id), zap.String("username", username))
	return user, token, nil
}

// Login verifies the credentials and returns the account with a session
// token. A missing account and a wrong password are indistinguishable to
// the caller.
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("email lookup failed: %w", err)
	}

	ok, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID.Hex())
	if err != nil {
		return nil, "", fmt.Errorf("issue token failed: %w", err)
	}

	return user, token, nil
}
