package repository

import (
	"context"

	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	*GormRepository[models.User, *models.User]
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB, stamper *audit.Stamper) UserRepository {
	return &GormUserRepository{NewGormRepository[models.User](db, stamper)}
}

// FindByEmail finds a non-deleted user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListNotificationRecipients lists non-deleted users that opted into stock notifications
func (r *GormUserRepository) ListNotificationRecipients(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := r.db.WithContext(ctx).
		Where("receive_stock_notification = ?", true).
		Order("created_at").Order("id").
		Find(&users).Error
	return users, err
}

// ListWithEmail lists up to limit non-deleted users that have an email, oldest first
func (r *GormUserRepository) ListWithEmail(ctx context.Context, limit int) ([]models.User, error) {
	users := []models.User{}
	err := r.db.WithContext(ctx).
		Where("email IS NOT NULL AND email <> ''").
		Order("created_at").Order("id").
		Limit(limit).
		Find(&users).Error
	return users, err
}
