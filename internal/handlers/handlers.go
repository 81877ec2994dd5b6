package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/manufacturing-backoffice/internal/database"
	apierrors "github.com/yukikurage/manufacturing-backoffice/internal/errors"
	"github.com/yukikurage/manufacturing-backoffice/internal/services"
	"github.com/yukikurage/manufacturing-backoffice/internal/utils"
	"go.uber.org/zap"
)

// listParams reads ?trashed= and the pagination parameters of a listing.
// Unknown trashed values fall back to hiding deleted rows.
func listParams(c *gin.Context) (services.ListInput, utils.PaginationParams) {
	params := utils.GetPaginationParams(c)
	return services.ListInput{
		Trashed:    database.ParseTrashedMode(c.Query("trashed")),
		Pagination: &params,
	}, params
}

// deleteReason reads the optional deletion reason from the query string.
func deleteReason(c *gin.Context) string {
	return c.Query("reason")
}

// queryFloat parses an optional float query parameter. Missing values yield 0.
func queryFloat(c *gin.Context, key string) (float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		apierrors.BadRequest(c, key+" must be a non-negative number")
		return 0, false
	}
	return v, true
}

// respondCommonError maps the errors shared by every service. Unknown errors
// are logged and reported as internal errors.
func respondCommonError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrInvalidReference),
		errors.Is(err, services.ErrInvalidQuantity):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotTrashed), errors.Is(err, services.ErrAlreadyTrashed):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		apierrors.InvalidOperation(c, err.Error())
	default:
		logger.Error("request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err))
		apierrors.InternalError(c, "")
	}
}
