package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/manufacturing-backoffice/internal/constants"
	apierrors "github.com/yukikurage/manufacturing-backoffice/internal/errors"
	"github.com/yukikurage/manufacturing-backoffice/internal/services"
	"go.uber.org/zap"
)

// AccessLevel is the permission a request needs on a window.
type AccessLevel int

const (
	LevelAccess AccessLevel = iota
	LevelEdit
	LevelAdmin
)

// RequiredLevel maps a request to the level it needs: reads need access,
// deletes and restores need admin, every other write needs edit.
func RequiredLevel(c *gin.Context) AccessLevel {
	switch {
	case c.Request.Method == http.MethodDelete:
		return LevelAdmin
	case strings.HasSuffix(c.FullPath(), "/restore"):
		return LevelAdmin
	case c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead:
		return LevelAccess
	default:
		return LevelEdit
	}
}

// RequireWindow checks the current user's permission on the window registered
// for url. Must run after RequireAuth.
func RequireWindow(permissions *services.PermissionService, url string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUser(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		access, err := permissions.ResolveURL(c.Request.Context(), user, url)
		if err != nil {
			logger.Error("failed to resolve permission", zap.String("url", url), zap.Error(err))
			apierrors.InternalError(c, "Failed to check permission")
			return
		}

		var allowed bool
		switch RequiredLevel(c) {
		case LevelAdmin:
			allowed = access.IsAdmin
		case LevelEdit:
			allowed = access.CanEdit
		default:
			allowed = access.CanAccess
		}
		if !allowed {
			apierrors.Forbidden(c, "You do not have permission for "+url)
			return
		}

		// Store the resolved permission for handlers
		c.Set(constants.ContextKeyAccess, access)
		c.Next()
	}
}
