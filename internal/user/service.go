package user

import (
	"context"
	"errors"
	"fmt"

	"tutorslot/internal/api"
	"tutorslot/internal/auth"
	"tutorslot/internal/logger"
)

var (
	ErrEmailExists        = fmt.Errorf("email already registered: %w", api.ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", api.ErrUnauthorized)
	ErrInvalidRefresh     = fmt.Errorf("invalid or expired refresh token: %w", api.ErrUnauthorized)
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error)
}

type service struct {
	repo   Repository
	tokens *auth.Issuer
}

func NewService(repo Repository, tokens *auth.Issuer) Service {
	return &service{repo: repo, tokens: tokens}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.Create(ctx, req.Name, req.Email, passwordHash, req.Role)
	if err != nil {
		return nil, err
	}

	logger.Info("user registered", "user_id", u.ID, "role", u.Role)
	return s.respond(u)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.respond(u)
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

// Refresh reloads the user so a changed role is reflected in the new tokens.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	_, claims, err := s.tokens.Refresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return s.respond(u)
}

func (s *service) respond(u *User) (*LoginResponse, error) {
	pair, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		User:         *u,
	}, nil
}
