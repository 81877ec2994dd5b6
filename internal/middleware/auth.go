package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/constants"
	apierrors "github.com/yukikurage/manufacturing-backoffice/internal/errors"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/services"
)

// RequireAuth checks the bearer token of the request.
// ?refresh=true skips the validation cache.
func RequireAuth(sessions *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			apierrors.Unauthorized(c, "")
			return
		}

		bypass := c.Query("refresh") == "true"
		sess, err := sessions.Validate(c.Request.Context(), token, bypass)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUserInactive):
				apierrors.Unauthorized(c, "Account is inactive")
			case errors.Is(err, services.ErrSessionInvalid):
				apierrors.SessionExpired(c, "")
			default:
				apierrors.InternalError(c, "Failed to validate session")
			}
			return
		}

		// Store session data in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, sess.User.ID)
		c.Set(constants.ContextKeyUser, &sess.User)
		c.Set(constants.ContextKeyToken, token)
		c.Set(constants.ContextKeySession, sess)
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(constants.ContextKeyUserID)
	return userID, userID != ""
}

// GetUser retrieves the current user from context
func GetUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// GetSession retrieves the validated session from context
func GetSession(c *gin.Context) (*services.Session, bool) {
	v, exists := c.Get(constants.ContextKeySession)
	if !exists {
		return nil, false
	}
	sess, ok := v.(*services.Session)
	return sess, ok
}

// GetActor builds the audit actor of the request
func GetActor(c *gin.Context) audit.Actor {
	return audit.Actor{
		UserID: c.GetString(constants.ContextKeyUserID),
		IP:     c.ClientIP(),
	}
}
