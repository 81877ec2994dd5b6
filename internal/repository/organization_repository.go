package repository

import (
	"context"

	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"gorm.io/gorm"
)

// NewOrganizationRepository creates a new AuditedRepository for organizations
func NewOrganizationRepository(db *gorm.DB, stamper *audit.Stamper) AuditedRepository[models.Organization] {
	return NewGormRepository[models.Organization](db, stamper)
}

// GormDepartmentRepository is a GORM implementation of DepartmentRepository
type GormDepartmentRepository struct {
	*GormRepository[models.Department, *models.Department]
}

// NewDepartmentRepository creates a new DepartmentRepository
func NewDepartmentRepository(db *gorm.DB, stamper *audit.Stamper) DepartmentRepository {
	return &GormDepartmentRepository{NewGormRepository[models.Department](db, stamper)}
}

// ListByOrganization lists the non-deleted departments of an organization
func (r *GormDepartmentRepository) ListByOrganization(ctx context.Context, organizationID string) ([]models.Department, error) {
	departments := []models.Department{}
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at").
		Find(&departments).Error
	return departments, err
}
