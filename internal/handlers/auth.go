package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/manufacturing-backoffice/internal/dto"
	apierrors "github.com/yukikurage/manufacturing-backoffice/internal/errors"
	"github.com/yukikurage/manufacturing-backoffice/internal/middleware"
	"github.com/yukikurage/manufacturing-backoffice/internal/services"
	"go.uber.org/zap"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService       *services.AuthService
	permissionService *services.PermissionService
	logger            *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, permissionService *services.PermissionService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:       authService,
		permissionService: permissionService,
		logger:            logger,
	}
}

// Login authenticates a user and issues a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Email and password are required")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	apierrors.OK(c, dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.ToUserDTO(result.User),
	}, "Login successful")
}

// Logout revokes the bearer token of the request.
func (h *AuthHandler) Logout(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}
	if err := h.authService.Logout(c.Request.Context(), sess); err != nil {
		h.respondAuthError(c, err)
		return
	}
	apierrors.OK(c, nil, "Logged out successfully")
}

// Profile returns the authenticated user with role, department and organization.
func (h *AuthHandler) Profile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	user, err := h.authService.Profile(c.Request.Context(), userID)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}
	apierrors.OK(c, dto.ToUserDTO(*user), "")
}

// Permit resolves the caller's permission on a window. A window the caller
// cannot access yields 403 with the descriptor in details.
func (h *AuthHandler) Permit(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	access, err := h.permissionService.Resolve(c.Request.Context(), user, c.Param("windowId"))
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	type PermitResponse struct {
		services.WindowPermission
		SessionValid bool `json:"session_valid"`
	}
	resp := PermitResponse{WindowPermission: access, SessionValid: true}
	if !access.CanAccess {
		apierrors.RespondWithError(c, http.StatusForbidden, apierrors.NewAPIErrorWithDetails(apierrors.ErrCodeForbidden, "You do not have access to this page", resp))
		return
	}
	apierrors.OK(c, resp, "")
}

// Menu returns the window tree visible to the caller's role.
func (h *AuthHandler) Menu(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	menu, err := h.permissionService.Menu(c.Request.Context(), user)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}
	apierrors.OK(c, menu, "")
}

func (h *AuthHandler) respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, err.Error())
	case errors.Is(err, services.ErrUserInactive):
		apierrors.InvalidCredentials(c, "Account is inactive")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.Unauthorized(c, "User no longer exists")
	default:
		respondCommonError(c, h.logger, err)
	}
}
