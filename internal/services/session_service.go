package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/manufacturing-backoffice/internal/auth"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/repository"
	"github.com/yukikurage/manufacturing-backoffice/internal/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrSessionInvalid = errors.New("session is invalid or expired")
	ErrUserInactive   = errors.New("user is inactive")
)

// Session is a validated bearer token and its user.
type Session struct {
	TokenID   string      `json:"-"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// SessionService validates bearer tokens. Successful validations are cached per
// token id for the cache TTL; signature, expiry and revocation are checked on
// every call.
type SessionService struct {
	repos   *repository.Repositories
	tokens  *auth.TokenService
	revoked auth.RevocationStore
	cache   *session.ValidationCache[*Session]
	logger  *zap.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(repos *repository.Repositories, tokens *auth.TokenService, revoked auth.RevocationStore, cache *session.ValidationCache[*Session], logger *zap.Logger) *SessionService {
	return &SessionService{
		repos:   repos,
		tokens:  tokens,
		revoked: revoked,
		cache:   cache,
		logger:  logger,
	}
}

// Validate checks token and returns its session. bypass skips the cache.
func (s *SessionService) Validate(ctx context.Context, token string, bypass bool) (*Session, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		s.cache.Invalidate(claims.ID)
		return nil, fmt.Errorf("%w: %v", ErrSessionInvalid, auth.ErrRevokedToken)
	}

	if !bypass {
		if cached, ok := s.cache.Get(claims.ID); ok {
			return cached, nil
		}
	}

	user, err := s.repos.Users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrSessionInvalid)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Trashed() {
		return nil, fmt.Errorf("%w: user has been deleted", ErrSessionInvalid)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	sess := &Session{
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      *user,
	}
	s.cache.Set(claims.ID, sess)
	return sess, nil
}

// Revoke revokes the token id of sess and drops its cached validation.
func (s *SessionService) Revoke(ctx context.Context, sess *Session) error {
	s.cache.Invalidate(sess.TokenID)
	if err := s.revoked.Revoke(ctx, sess.TokenID, sess.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// Forget drops every cached validation. Called when users or roles change.
func (s *SessionService) Forget() {
	s.cache.InvalidateAll()
}
