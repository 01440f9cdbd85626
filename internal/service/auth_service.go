package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"lostfound/internal/apperr"
	"lostfound/internal/auth"
	"lostfound/internal/config"
	"lostfound/internal/models"
	"lostfound/internal/repository"
)

const minPasswordLength = 6

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) (*models.User, error)
	// Login returns the user and a signed access token.
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Me(ctx context.Context, userID string) (*models.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	mailer   Mailer
	cfg      *config.Config
	logger   *slog.Logger
}

func NewAuthService(userRepo repository.UserRepository, mailer Mailer, cfg *config.Config, logger *slog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		mailer:   mailer,
		cfg:      cfg,
		logger:   logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)

	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, apperr.Validation("a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}

	token, err := newVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("generating verification token: %w", err)
	}

	user := &models.User{
		Email:             email,
		Name:              name,
		VerificationToken: token,
	}

	if err := s.userRepo.CreateUser(ctx, user, req.Password); err != nil {
		return nil, err
	}

	if err := s.mailer.SendVerification(ctx, user, token); err != nil {
		s.logger.Warn("sending verification mail failed",
			slog.String("user_id", user.UserID),
			slog.String("error", err.Error()),
		)
	}

	return user, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Validation("token is required")
	}

	user, err := s.userRepo.GetUserByVerificationToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.MarkVerified(ctx, user.UserID); err != nil {
		return nil, err
	}

	user.Verified = true
	user.VerificationToken = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.VerifyPassword(ctx, normalizeEmail(email), password)
	if err != nil {
		return nil, "", err
	}

	if !user.Verified {
		return nil, "", apperr.Auth("Email not verified")
	}

	token, err := auth.GenerateToken(s.cfg.JWTSecretKey, s.cfg.AccessTokenDuration, user.UserID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("issuing access token: %w", err)
	}

	return user, token, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

func newVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
