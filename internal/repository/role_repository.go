package repository

import (
	"context"

	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"gorm.io/gorm"
)

// GormRoleRepository is a GORM implementation of RoleRepository
type GormRoleRepository struct {
	*GormRepository[models.Role, *models.Role]
	grants *GormRepository[models.RoleWindow, *models.RoleWindow]
}

// NewRoleRepository creates a new RoleRepository
func NewRoleRepository(db *gorm.DB, stamper *audit.Stamper) RoleRepository {
	return &GormRoleRepository{
		GormRepository: NewGormRepository[models.Role](db, stamper),
		grants:         NewGormRepository[models.RoleWindow](db, stamper),
	}
}

// FindGrants lists the live grants of a role on a window, oldest first
func (r *GormRoleRepository) FindGrants(ctx context.Context, roleID, windowID string) ([]models.RoleWindow, error) {
	grants := []models.RoleWindow{}
	err := r.db.WithContext(ctx).
		Where("role_id = ? AND window_id = ?", roleID, windowID).
		Order("created_at").Order("id").
		Find(&grants).Error
	return grants, err
}

// ListGrants lists the live grants of a role with their windows, oldest first
func (r *GormRoleRepository) ListGrants(ctx context.Context, roleID string) ([]models.RoleWindow, error) {
	grants := []models.RoleWindow{}
	err := r.db.WithContext(ctx).
		Preload("Window").
		Where("role_id = ?", roleID).
		Order("created_at").Order("id").
		Find(&grants).Error
	return grants, err
}

// ReplaceGrants soft deletes the current grants of a role and creates the given ones
func (r *GormRoleRepository) ReplaceGrants(ctx context.Context, actor audit.Actor, roleID string, grants []models.RoleWindow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewGormRepository[models.RoleWindow](tx, r.stamper)

		var current []models.RoleWindow
		if err := tx.Where("role_id = ?", roleID).Find(&current).Error; err != nil {
			return err
		}
		for i := range current {
			if err := repo.Delete(ctx, actor, &current[i], "grants replaced"); err != nil {
				return err
			}
		}

		for i := range grants {
			grants[i].RoleID = roleID
			if err := repo.Create(ctx, actor, &grants[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// GormWindowRepository is a GORM implementation of WindowRepository
type GormWindowRepository struct {
	*GormRepository[models.Window, *models.Window]
}

// NewWindowRepository creates a new WindowRepository
func NewWindowRepository(db *gorm.DB, stamper *audit.Stamper) WindowRepository {
	return &GormWindowRepository{NewGormRepository[models.Window](db, stamper)}
}

// FindByURL finds a non-deleted window by URL
func (r *GormWindowRepository) FindByURL(ctx context.Context, url string) (*models.Window, error) {
	var window models.Window
	if err := r.db.WithContext(ctx).Where("url = ?", url).Order("created_at").First(&window).Error; err != nil {
		return nil, err
	}
	return &window, nil
}

// ListAll lists every non-deleted window ordered for menu display
func (r *GormWindowRepository) ListAll(ctx context.Context) ([]models.Window, error) {
	windows := []models.Window{}
	err := r.db.WithContext(ctx).
		Order("display_order").Order("name").
		Find(&windows).Error
	return windows, err
}
