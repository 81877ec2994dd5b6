package repository

import (
	"context"

	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"gorm.io/gorm"
)

// Repositories bundles every repository bound to the same connection or transaction.
type Repositories struct {
	db      *gorm.DB
	stamper *audit.Stamper

	Users              UserRepository
	Roles              RoleRepository
	Windows            WindowRepository
	Organizations      AuditedRepository[models.Organization]
	Departments        DepartmentRepository
	Products           AuditedRepository[models.Product]
	Orders             OrderRepository
	OrderItems         AuditedRepository[models.OrderItem]
	WorkOrders         WorkOrderRepository
	FinishedGoods      AuditedRepository[models.FinishedGood]
	DeliveryOrders     DeliveryOrderRepository
	DeliveryOrderItems AuditedRepository[models.DeliveryOrderItem]
	RawMaterials       RawMaterialRepository
	RawMaterialUsages  AuditedRepository[models.RawMaterialUsage]
	RoleUsage          *RoleUsageInspector
}

// New creates every repository on db
func New(db *gorm.DB, stamper *audit.Stamper) *Repositories {
	return &Repositories{
		db:                 db,
		stamper:            stamper,
		Users:              NewUserRepository(db, stamper),
		Roles:              NewRoleRepository(db, stamper),
		Windows:            NewWindowRepository(db, stamper),
		Organizations:      NewOrganizationRepository(db, stamper),
		Departments:        NewDepartmentRepository(db, stamper),
		Products:           NewGormRepository[models.Product](db, stamper),
		Orders:             NewOrderRepository(db, stamper),
		OrderItems:         NewGormRepository[models.OrderItem](db, stamper),
		WorkOrders:         NewWorkOrderRepository(db, stamper),
		FinishedGoods:      NewGormRepository[models.FinishedGood](db, stamper),
		DeliveryOrders:     NewDeliveryOrderRepository(db, stamper),
		DeliveryOrderItems: NewGormRepository[models.DeliveryOrderItem](db, stamper),
		RawMaterials:       NewRawMaterialRepository(db, stamper),
		RawMaterialUsages:  NewGormRepository[models.RawMaterialUsage](db, stamper),
		RoleUsage:          NewRoleUsageInspector(db),
	}
}

// DB returns the connection or transaction the repositories are bound to
func (r *Repositories) DB() *gorm.DB {
	return r.db
}

// Stamper returns the audit stamper shared by the repositories
func (r *Repositories) Stamper() *audit.Stamper {
	return r.stamper
}

// Transaction runs fn with repositories bound to a single transaction
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx, r.stamper))
	})
}
