package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/manufacturing-backoffice/internal/constants"
	"github.com/yukikurage/manufacturing-backoffice/internal/dto"
	apierrors "github.com/yukikurage/manufacturing-backoffice/internal/errors"
	"github.com/yukikurage/manufacturing-backoffice/internal/middleware"
	"github.com/yukikurage/manufacturing-backoffice/internal/services"
	"go.uber.org/zap"
)

// UserHandler serves /general/setup/users.
type UserHandler struct {
	userService *services.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

// ListUsers returns users with pagination
func (h *UserHandler) ListUsers(c *gin.Context) {
	input, params := listParams(c)
	users, total, err := h.userService.ListUsers(c.Request.Context(), input)
	if err != nil {
		h.respondUserError(c, err)
		return
	}
	apierrors.OK(c, dto.NewListResponse(users, params, total, dto.ToUserDTO), "")
}

// GetUser returns a user with its relations
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondUserError(c, err)
		return
	}
	apierrors.OK(c, dto.ToUserDTO(*user), "")
}

// CreateUser creates a new user
func (h *UserHandler) CreateUser(c *gin.Context) {
	type CreateUserRequest struct {
		Name                     string  `json:"name" binding:"required,max=255"`
		Email                    string  `json:"email"`
		Password                 string  `json:"password" binding:"required"`
		RoleID                   *string `json:"role_id"`
		DepartmentID             *string `json:"department_id"`
		OrganizationID           *string `json:"organization_id"`
		IsActive                 *bool   `json:"is_active"`
		ReceiveStockNotification bool    `json:"receive_stock_notification"`
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Name and password are required")
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), middleware.GetActor(c), services.CreateUserInput{
		Name:                     req.Name,
		Email:                    req.Email,
		Password:                 req.Password,
		RoleID:                   req.RoleID,
		DepartmentID:             req.DepartmentID,
		OrganizationID:           req.OrganizationID,
		IsActive:                 req.IsActive,
		ReceiveStockNotification: req.ReceiveStockNotification,
	})
	if err != nil {
		h.respondUserError(c, err)
		return
	}
	apierrors.Created(c, dto.ToUserDTO(*user), "User created")
}

// UpdateUser updates the fields present in the body
func (h *UserHandler) UpdateUser(c *gin.Context) {
	type UpdateUserRequest struct {
		Name                     *string `json:"name"`
		Email                    *string `json:"email"`
		Password                 *string `json:"password"`
		RoleID                   *string `json:"role_id"`
		DepartmentID             *string `json:"department_id"`
		OrganizationID           *string `json:"organization_id"`
		IsActive                 *bool   `json:"is_active"`
		ReceiveStockNotification *bool   `json:"receive_stock_notification"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), middleware.GetActor(c), c.Param("id"), services.UpdateUserInput{
		Name:                     req.Name,
		Email:                    req.Email,
		Password:                 req.Password,
		RoleID:                   req.RoleID,
		DepartmentID:             req.DepartmentID,
		OrganizationID:           req.OrganizationID,
		IsActive:                 req.IsActive,
		ReceiveStockNotification: req.ReceiveStockNotification,
	})
	if err != nil {
		h.respondUserError(c, err)
		return
	}
	apierrors.OK(c, dto.ToUserDTO(*user), "User updated")
}

// DeleteUser soft deletes a user
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Request.Context(), middleware.GetActor(c), c.Param("id"), deleteReason(c)); err != nil {
		h.respondUserError(c, err)
		return
	}
	apierrors.OK(c, nil, "User deleted")
}

// RestoreUser restores a deleted user
func (h *UserHandler) RestoreUser(c *gin.Context) {
	user, err := h.userService.RestoreUser(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		h.respondUserError(c, err)
		return
	}
	apierrors.OK(c, dto.ToUserDTO(*user), "User restored")
}

func (h *UserHandler) respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "")
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrInvalidEmail):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrCannotDeleteSelf):
		apierrors.InvalidOperation(c, err.Error())
	default:
		respondCommonError(c, h.logger, err)
	}
}
