package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/yukikurage/manufacturing-backoffice/internal/dto"
	apierrors "github.com/yukikurage/manufacturing-backoffice/internal/errors"
	"github.com/yukikurage/manufacturing-backoffice/internal/middleware"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/services"
	"go.uber.org/zap"
)

// RoleHandler serves /general/setup/roles.
type RoleHandler struct {
	roleService *services.RoleService
	logger      *zap.Logger
}

func NewRoleHandler(roleService *services.RoleService, logger *zap.Logger) *RoleHandler {
	return &RoleHandler{roleService: roleService, logger: logger}
}

type roleRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

// ListRoles returns roles with pagination
func (h *RoleHandler) ListRoles(c *gin.Context) {
	input, params := listParams(c)
	roles, total, err := h.roleService.ListRoles(c.Request.Context(), input)
	if err != nil {
		h.respondRoleError(c, err)
		return
	}
	apierrors.OK(c, dto.NewListResponse(roles, params, total, dto.ToRoleDTO), "")
}

// GetRole returns a role with its grants
func (h *RoleHandler) GetRole(c *gin.Context) {
	role, err := h.roleService.GetRole(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondRoleError(c, err)
		return
	}
	apierrors.OK(c, dto.ToRoleDTO(*role), "")
}

// CreateRole creates a new role
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Name is required")
		return
	}
	role, err := h.roleService.CreateRole(c.Request.Context(), middleware.GetActor(c), services.RoleInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondRoleError(c, err)
		return
	}
	apierrors.Created(c, dto.ToRoleDTO(*role), "Role created")
}

// UpdateRole updates a role
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Name is required")
		return
	}
	role, err := h.roleService.UpdateRole(c.Request.Context(), middleware.GetActor(c), c.Param("id"), services.RoleInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondRoleError(c, err)
		return
	}
	apierrors.OK(c, dto.ToRoleDTO(*role), "Role updated")
}

// DeleteRole soft deletes a role. ?force=true deletes a role that is still referenced.
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	force := c.Query("force") == "true"
	if err := h.roleService.DeleteRole(c.Request.Context(), middleware.GetActor(c), c.Param("id"), deleteReason(c), force); err != nil {
		h.respondRoleError(c, err)
		return
	}
	apierrors.OK(c, nil, "Role deleted")
}

// RestoreRole restores a deleted role
func (h *RoleHandler) RestoreRole(c *gin.Context) {
	role, err := h.roleService.RestoreRole(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		h.respondRoleError(c, err)
		return
	}
	apierrors.OK(c, dto.ToRoleDTO(*role), "Role restored")
}

// Usage lists every row that references the role
func (h *RoleHandler) Usage(c *gin.Context) {
	usages, err := h.roleService.Usage(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondRoleError(c, err)
		return
	}
	apierrors.OK(c, usages, "")
}

// SetWindows replaces the window grants of a role
func (h *RoleHandler) SetWindows(c *gin.Context) {
	type GrantRequest struct {
		WindowID string `json:"window_id" binding:"required"`
		IsEdit   bool   `json:"is_edit"`
		IsAdmin  bool   `json:"is_admin"`
	}
	type SetWindowsRequest struct {
		Windows []GrantRequest `json:"windows" binding:"dive"`
	}

	var req SetWindowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Every grant needs a window_id")
		return
	}

	grants := lo.Map(req.Windows, func(g GrantRequest, _ int) services.GrantInput {
		return services.GrantInput{WindowID: g.WindowID, IsEdit: g.IsEdit, IsAdmin: g.IsAdmin}
	})
	saved, err := h.roleService.SetWindows(c.Request.Context(), middleware.GetActor(c), c.Param("id"), grants)
	if err != nil {
		h.respondRoleError(c, err)
		return
	}
	apierrors.OK(c, lo.Map(saved, func(g models.RoleWindow, _ int) dto.GrantDTO { return dto.ToGrantDTO(g) }), "Windows updated")
}

// ListWindows returns every window, for the grant editor
func (h *RoleHandler) ListWindows(c *gin.Context) {
	windows, err := h.roleService.ListWindows(c.Request.Context())
	if err != nil {
		h.respondRoleError(c, err)
		return
	}
	apierrors.OK(c, windows, "")
}

func (h *RoleHandler) respondRoleError(c *gin.Context, err error) {
	var inUse *services.RoleInUseError
	switch {
	case errors.As(err, &inUse):
		apierrors.ConflictWithDetails(c, inUse.Error(), inUse.Usages)
	case errors.Is(err, services.ErrRoleNotFound):
		apierrors.NotFound(c, "")
	case errors.Is(err, services.ErrWindowNotFound):
		apierrors.BadRequest(c, err.Error())
	default:
		respondCommonError(c, h.logger, err)
	}
}
