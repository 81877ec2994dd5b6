package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/yukikurage/manufacturing-backoffice/internal/auth"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	repos    *repository.Repositories
	tokens   *auth.TokenService
	sessions *SessionService
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(repos *repository.Repositories, tokens *auth.TokenService, sessions *SessionService, logger *zap.Logger) *AuthService {
	return &AuthService{
		repos:    repos,
		tokens:   tokens,
		sessions: sessions,
		logger:   logger,
	}
}

// LoginInput represents the credentials of a login attempt.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is an issued bearer token.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Login checks credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repos.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	token, claims, err := s.tokens.Generate(user.ID, lo.FromPtr(user.RoleID), user.EmailAddress())
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      *user,
	}, nil
}

// Logout revokes the session's token.
func (s *AuthService) Logout(ctx context.Context, sess *Session) error {
	if err := s.sessions.Revoke(ctx, sess); err != nil {
		return err
	}
	s.logger.Info("user logged out", zap.String("user_id", sess.User.ID))
	return nil
}

// Profile returns the user with role, department and organization.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repos.Users.FindByID(ctx, userID, "Role", "Department", "Organization")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

