package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Permission is what a role may do on one window.
type Permission struct {
	CanAccess bool `json:"can_access"`
	CanEdit   bool `json:"can_edit"`
	IsAdmin   bool `json:"is_admin"`
}

// WindowPermission is a Permission plus the window's display metadata.
type WindowPermission struct {
	Permission
	WindowID    string `json:"window_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// MenuNode is one entry of the menu tree returned for a role.
type MenuNode struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Icon         string     `json:"icon"`
	URL          string     `json:"url"`
	DisplayOrder int        `json:"display_order"`
	Permission   Permission `json:"permission"`
	Children     []MenuNode `json:"children"`
}

// PermissionService resolves role grants on windows. Missing users, roles,
// windows or grants resolve to no access; only storage failures are errors.
type PermissionService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewPermissionService creates a new PermissionService
func NewPermissionService(repos *repository.Repositories, logger *zap.Logger) *PermissionService {
	return &PermissionService{repos: repos, logger: logger}
}

// Resolve returns the user's permission on the window with the given id.
func (s *PermissionService) Resolve(ctx context.Context, user *models.User, windowID string) (WindowPermission, error) {
	result := WindowPermission{WindowID: windowID}

	windows, err := s.repos.Windows.FindByIDs(ctx, []string{windowID})
	if err != nil {
		return result, fmt.Errorf("failed to load window: %w", err)
	}
	if len(windows) == 0 {
		return result, nil
	}
	return s.resolveWindow(ctx, user, &windows[0])
}

// ResolveURL returns the user's permission on the window registered for url.
func (s *PermissionService) ResolveURL(ctx context.Context, user *models.User, url string) (WindowPermission, error) {
	window, err := s.repos.Windows.FindByURL(ctx, url)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return WindowPermission{URL: url}, nil
		}
		return WindowPermission{URL: url}, fmt.Errorf("failed to load window: %w", err)
	}
	return s.resolveWindow(ctx, user, window)
}

func (s *PermissionService) resolveWindow(ctx context.Context, user *models.User, window *models.Window) (WindowPermission, error) {
	result := WindowPermission{
		WindowID:    window.ID,
		Name:        window.Name,
		Description: window.Description,
		URL:         window.URL,
	}

	roleID, err := s.liveRoleID(ctx, user)
	if err != nil || roleID == "" {
		return result, err
	}

	grants, err := s.repos.Roles.FindGrants(ctx, roleID, window.ID)
	if err != nil {
		return result, fmt.Errorf("failed to load grants: %w", err)
	}
	if len(grants) == 0 {
		return result, nil
	}
	if len(grants) > 1 {
		s.warnDuplicates(roleID, window.ID, grants)
	}

	result.Permission = grantPermission(grants[0])
	return result, nil
}

// Menu returns the window tree visible to the user. A window is listed when the
// role has a grant on it or on one of its descendants.
func (s *PermissionService) Menu(ctx context.Context, user *models.User) ([]MenuNode, error) {
	roleID, err := s.liveRoleID(ctx, user)
	if err != nil {
		return nil, err
	}
	if roleID == "" {
		return []MenuNode{}, nil
	}

	grants, err := s.repos.Roles.ListGrants(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load grants: %w", err)
	}
	byWindow := lo.GroupBy(grants, func(g models.RoleWindow) string { return g.WindowID })
	permissions := make(map[string]Permission, len(byWindow))
	for windowID, list := range byWindow {
		if len(list) > 1 {
			s.warnDuplicates(roleID, windowID, list)
		}
		permissions[windowID] = grantPermission(list[0])
	}

	windows, err := s.repos.Windows.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load windows: %w", err)
	}

	children := lo.GroupBy(windows, func(w models.Window) string { return lo.FromPtr(w.ParentID) })
	known := lo.SliceToMap(windows, func(w models.Window) (string, bool) { return w.ID, true })

	var node func(w models.Window) (MenuNode, bool)
	build := func(parentID string) []MenuNode {
		nodes := []MenuNode{}
		for _, w := range children[parentID] {
			if n, ok := node(w); ok {
				nodes = append(nodes, n)
			}
		}
		return nodes
	}
	node = func(w models.Window) (MenuNode, bool) {
		n := MenuNode{
			ID:           w.ID,
			Name:         w.Name,
			Description:  w.Description,
			Icon:         w.Icon,
			URL:          w.URL,
			DisplayOrder: w.DisplayOrder,
			Permission:   permissions[w.ID],
			Children:     build(w.ID),
		}
		return n, n.Permission.CanAccess || len(n.Children) > 0
	}

	roots := build("")
	// Windows whose parent is missing or trashed are shown at the top level,
	// in the same display order as the rest.
	for _, w := range windows {
		if parentID := lo.FromPtr(w.ParentID); parentID != "" && !known[parentID] {
			if n, ok := node(w); ok {
				roots = append(roots, n)
			}
		}
	}
	slices.SortStableFunc(roots, func(a, b MenuNode) int {
		return cmp.Compare(a.DisplayOrder, b.DisplayOrder)
	})
	return roots, nil
}

// liveRoleID returns the user's role id when the role exists and is not trashed.
func (s *PermissionService) liveRoleID(ctx context.Context, user *models.User) (string, error) {
	if user == nil || user.RoleID == nil || *user.RoleID == "" {
		return "", nil
	}
	roles, err := s.repos.Roles.FindByIDs(ctx, []string{*user.RoleID})
	if err != nil {
		return "", fmt.Errorf("failed to load role: %w", err)
	}
	if len(roles) == 0 {
		return "", nil
	}
	return roles[0].ID, nil
}

func (s *PermissionService) warnDuplicates(roleID, windowID string, grants []models.RoleWindow) {
	s.logger.Warn("duplicate role window grants, using the earliest",
		zap.String("role_id", roleID),
		zap.String("window_id", windowID),
		zap.String("used", grants[0].ID),
		zap.Strings("grant_ids", lo.Map(grants, func(g models.RoleWindow, _ int) string { return g.ID })))
}

func grantPermission(g models.RoleWindow) Permission {
	return Permission{CanAccess: true, CanEdit: g.IsEdit, IsAdmin: g.IsAdmin}
}
