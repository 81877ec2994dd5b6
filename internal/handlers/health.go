package handlers

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/manufacturing-backoffice/internal/errors"
	"gorm.io/gorm"
)

// Health reports whether the API and its database are reachable
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				apierrors.ServiceUnavailable(c, "Database is unreachable")
				return
			}
		}
		apierrors.OK(c, gin.H{"status": "ok"}, "Manufacturing back office is running")
	}
}
