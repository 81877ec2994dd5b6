package repository

import (
	"context"

	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"gorm.io/gorm"
)

// GormOrderRepository is a GORM implementation of OrderRepository
type GormOrderRepository struct {
	*GormRepository[models.Order, *models.Order]
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *gorm.DB, stamper *audit.Stamper) OrderRepository {
	return &GormOrderRepository{NewGormRepository[models.Order](db, stamper)}
}

// ReplaceItems soft deletes the current items of an order and creates the given ones
func (r *GormOrderRepository) ReplaceItems(ctx context.Context, actor audit.Actor, orderID string, items []models.OrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewGormRepository[models.OrderItem](tx, r.stamper)

		var current []models.OrderItem
		if err := tx.Where("order_id = ?", orderID).Find(&current).Error; err != nil {
			return err
		}
		for i := range current {
			if err := repo.Delete(ctx, actor, &current[i], "items replaced"); err != nil {
				return err
			}
		}

		for i := range items {
			items[i].OrderID = orderID
			if err := repo.Create(ctx, actor, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// GormWorkOrderRepository is a GORM implementation of WorkOrderRepository
type GormWorkOrderRepository struct {
	*GormRepository[models.WorkOrder, *models.WorkOrder]
}

// NewWorkOrderRepository creates a new WorkOrderRepository
func NewWorkOrderRepository(db *gorm.DB, stamper *audit.Stamper) WorkOrderRepository {
	return &GormWorkOrderRepository{NewGormRepository[models.WorkOrder](db, stamper)}
}

// FindByOrder finds the non-deleted work order of an order
func (r *GormWorkOrderRepository) FindByOrder(ctx context.Context, orderID string) (*models.WorkOrder, error) {
	var wo models.WorkOrder
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&wo).Error; err != nil {
		return nil, err
	}
	return &wo, nil
}

// GormDeliveryOrderRepository is a GORM implementation of DeliveryOrderRepository
type GormDeliveryOrderRepository struct {
	*GormRepository[models.DeliveryOrder, *models.DeliveryOrder]
}

// NewDeliveryOrderRepository creates a new DeliveryOrderRepository
func NewDeliveryOrderRepository(db *gorm.DB, stamper *audit.Stamper) DeliveryOrderRepository {
	return &GormDeliveryOrderRepository{NewGormRepository[models.DeliveryOrder](db, stamper)}
}

// FindByOrder finds the non-deleted delivery order of an order
func (r *GormDeliveryOrderRepository) FindByOrder(ctx context.Context, orderID string) (*models.DeliveryOrder, error) {
	var do models.DeliveryOrder
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&do).Error; err != nil {
		return nil, err
	}
	return &do, nil
}
