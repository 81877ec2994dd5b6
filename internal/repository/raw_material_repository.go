package repository

import (
	"context"

	"github.com/samber/lo"
	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"gorm.io/gorm"
)

// GormRawMaterialRepository is a GORM implementation of RawMaterialRepository
type GormRawMaterialRepository struct {
	*GormRepository[models.RawMaterial, *models.RawMaterial]
}

// NewRawMaterialRepository creates a new RawMaterialRepository
func NewRawMaterialRepository(db *gorm.DB, stamper *audit.Stamper) RawMaterialRepository {
	return &GormRawMaterialRepository{NewGormRepository[models.RawMaterial](db, stamper)}
}

// ListBelow lists non-deleted materials whose stock is below threshold.
// Stock lives inside the JSON data column, so the filter runs in Go.
func (r *GormRawMaterialRepository) ListBelow(ctx context.Context, threshold float64) ([]models.RawMaterial, error) {
	var materials []models.RawMaterial
	if err := r.db.WithContext(ctx).Order("created_at").Order("id").Find(&materials).Error; err != nil {
		return nil, err
	}
	return lo.Filter(materials, func(m models.RawMaterial, _ int) bool {
		return m.Stock() < threshold
	}), nil
}
