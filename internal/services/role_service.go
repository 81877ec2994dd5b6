package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrRoleNotFound   = errors.New("role not found")
	ErrWindowNotFound = errors.New("window not found")
)

// RoleInUseError is returned when deleting a role that is still referenced.
type RoleInUseError struct {
	Usages []repository.RoleUsage
}

func (e *RoleInUseError) Error() string {
	tables := lo.Map(e.Usages, func(u repository.RoleUsage, _ int) string {
		return fmt.Sprintf("%s.%s (%d)", u.Table, u.Column, u.Count)
	})
	return "role is still referenced by " + strings.Join(tables, ", ")
}

// RoleService provides business logic for roles and their window grants.
type RoleService struct {
	repos    *repository.Repositories
	sessions *SessionService
	logger   *zap.Logger
}

// NewRoleService creates a new RoleService.
func NewRoleService(repos *repository.Repositories, sessions *SessionService, logger *zap.Logger) *RoleService {
	return &RoleService{repos: repos, sessions: sessions, logger: logger}
}

// RoleInput represents the editable fields of a role.
type RoleInput struct {
	Name        string
	Description string
}

// GrantInput represents one window grant of a role.
type GrantInput struct {
	WindowID string
	IsEdit   bool
	IsAdmin  bool
}

// ListRoles returns roles with pagination.
func (s *RoleService) ListRoles(ctx context.Context, input ListInput) ([]models.Role, int64, error) {
	roles, total, err := s.repos.Roles.List(ctx, input.query())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, total, nil
}

// GetRole returns a role with its grants.
func (s *RoleService) GetRole(ctx context.Context, id string) (*models.Role, error) {
	role, err := s.repos.Roles.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrRoleNotFound, "role")
	}
	grants, err := s.repos.Roles.ListGrants(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load grants: %w", err)
	}
	role.RoleWindows = grants
	return role, nil
}

// CreateRole creates a new role.
func (s *RoleService) CreateRole(ctx context.Context, actor audit.Actor, input RoleInput) (*models.Role, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	role := &models.Role{Name: name, Description: input.Description}
	if err := s.repos.Roles.Create(ctx, actor, role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	return role, nil
}

// UpdateRole updates a non-deleted role.
func (s *RoleService) UpdateRole(ctx context.Context, actor audit.Actor, id string, input RoleInput) (*models.Role, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	role, err := s.liveRole(ctx, id)
	if err != nil {
		return nil, err
	}
	role.Name = name
	role.Description = input.Description
	if err := s.repos.Roles.Update(ctx, actor, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	return role, nil
}

// DeleteRole soft deletes a role. Unless force is set, a role that is still
// referenced is refused with a *RoleInUseError.
func (s *RoleService) DeleteRole(ctx context.Context, actor audit.Actor, id, reason string, force bool) error {
	role, err := s.repos.Roles.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, ErrRoleNotFound, "role")
	}

	if !force {
		usages, err := s.repos.RoleUsage.Inspect(ctx, id)
		if err != nil {
			return err
		}
		if len(usages) > 0 {
			return &RoleInUseError{Usages: usages}
		}
	}

	if err := s.repos.Roles.Delete(ctx, actor, role, reason); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	s.sessions.Forget()
	s.logger.Info("role deleted", zap.String("role_id", id), zap.Bool("force", force))
	return nil
}

// RestoreRole restores a deleted role.
func (s *RoleService) RestoreRole(ctx context.Context, actor audit.Actor, id string) (*models.Role, error) {
	role, err := s.repos.Roles.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrRoleNotFound, "role")
	}
	if err := s.repos.Roles.Restore(ctx, actor, role); err != nil {
		return nil, restoreError(err, "role")
	}
	s.sessions.Forget()
	return role, nil
}

// Usage lists the rows that still reference a role.
func (s *RoleService) Usage(ctx context.Context, id string) ([]repository.RoleUsage, error) {
	if _, err := s.repos.Roles.FindByID(ctx, id); err != nil {
		return nil, lookupError(err, ErrRoleNotFound, "role")
	}
	return s.repos.RoleUsage.Inspect(ctx, id)
}

// SetWindows replaces the grants of a role.
func (s *RoleService) SetWindows(ctx context.Context, actor audit.Actor, roleID string, grants []GrantInput) ([]models.RoleWindow, error) {
	if _, err := s.liveRole(ctx, roleID); err != nil {
		return nil, err
	}

	windowIDs := lo.Uniq(lo.Map(grants, func(g GrantInput, _ int) string { return g.WindowID }))
	windows, err := s.repos.Windows.FindByIDs(ctx, windowIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load windows: %w", err)
	}
	if len(windows) != len(windowIDs) {
		return nil, ErrWindowNotFound
	}

	// One grant per window; the last entry for a window wins.
	byWindow := lo.SliceToMap(grants, func(g GrantInput) (string, GrantInput) { return g.WindowID, g })
	rows := lo.Map(windowIDs, func(id string, _ int) models.RoleWindow {
		g := byWindow[id]
		return models.RoleWindow{WindowID: id, IsEdit: g.IsEdit, IsAdmin: g.IsAdmin}
	})

	if err := s.repos.Roles.ReplaceGrants(ctx, actor, roleID, rows); err != nil {
		return nil, fmt.Errorf("failed to replace grants: %w", err)
	}
	return s.repos.Roles.ListGrants(ctx, roleID)
}

// ListWindows returns every non-deleted window.
func (s *RoleService) ListWindows(ctx context.Context) ([]models.Window, error) {
	return s.repos.Windows.ListAll(ctx)
}

func (s *RoleService) liveRole(ctx context.Context, id string) (*models.Role, error) {
	role, err := s.repos.Roles.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrRoleNotFound, "role")
	}
	if role.Trashed() {
		return nil, ErrRoleNotFound
	}
	return role, nil
}
