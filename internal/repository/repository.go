package repository

import (
	"context"

	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/database"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/utils"
	"gorm.io/gorm"
)

// Scope narrows a listing query.
type Scope = func(db *gorm.DB) *gorm.DB

// Preload preloads path as is. Under an unscoped query trashed rows are included.
func Preload(path string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Preload(path)
	}
}

// LivePreload preloads path limited to rows that are not soft deleted, even when
// the parent query is unscoped. Extra scopes narrow the preloaded rows further.
func LivePreload(path string, scopes ...Scope) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Preload(path, func(tx *gorm.DB) *gorm.DB {
			return tx.Where("deleted_at IS NULL").Scopes(scopes...)
		})
	}
}

// ListQuery holds the options shared by every listing.
type ListQuery struct {
	Trashed    database.TrashedMode
	Pagination *utils.PaginationParams
	Order      string
	Preload    []string
}

// AuditedRepository is the data access contract shared by every soft-deletable table.
// Every write goes through the audit stamper.
type AuditedRepository[T any] interface {
	// Create assigns an id, stamps created and inserts the record
	Create(ctx context.Context, actor audit.Actor, rec *T) error

	// FindByID finds a record by ID, including trashed ones
	FindByID(ctx context.Context, id string, preload ...string) (*T, error)

	// FindByIDWith finds a record by ID, including trashed ones, applying scopes
	// such as LivePreload
	FindByIDWith(ctx context.Context, id string, scopes ...Scope) (*T, error)

	// FindByIDs finds the non-trashed records with the given IDs
	FindByIDs(ctx context.Context, ids []string) ([]T, error)

	// List retrieves records honouring the trashed mode and pagination
	List(ctx context.Context, q ListQuery, scopes ...Scope) ([]T, int64, error)

	// Update stamps updated and writes the mutable columns
	Update(ctx context.Context, actor audit.Actor, rec *T) error

	// Delete soft deletes a loaded record
	Delete(ctx context.Context, actor audit.Actor, rec *T, reason string) error

	// Restore clears the deletion of a loaded record
	Restore(ctx context.Context, actor audit.Actor, rec *T) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	AuditedRepository[models.User]

	// FindByEmail finds a non-deleted user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// ListNotificationRecipients lists non-deleted users that opted into stock notifications
	ListNotificationRecipients(ctx context.Context) ([]models.User, error)

	// ListWithEmail lists up to limit non-deleted users that have an email, oldest first
	ListWithEmail(ctx context.Context, limit int) ([]models.User, error)
}

// RoleRepository defines the interface for role data access
type RoleRepository interface {
	AuditedRepository[models.Role]

	// FindGrants lists the live grants of a role on a window, oldest first
	FindGrants(ctx context.Context, roleID, windowID string) ([]models.RoleWindow, error)

	// ListGrants lists the live grants of a role with their windows, oldest first
	ListGrants(ctx context.Context, roleID string) ([]models.RoleWindow, error)

	// ReplaceGrants soft deletes the current grants of a role and creates the given ones
	ReplaceGrants(ctx context.Context, actor audit.Actor, roleID string, grants []models.RoleWindow) error
}

// WindowRepository defines the interface for window data access
type WindowRepository interface {
	AuditedRepository[models.Window]

	// FindByURL finds a non-deleted window by URL
	FindByURL(ctx context.Context, url string) (*models.Window, error)

	// ListAll lists every non-deleted window ordered for menu display
	ListAll(ctx context.Context) ([]models.Window, error)
}

// DepartmentRepository defines the interface for department data access
type DepartmentRepository interface {
	AuditedRepository[models.Department]

	// ListByOrganization lists the non-deleted departments of an organization
	ListByOrganization(ctx context.Context, organizationID string) ([]models.Department, error)
}

// RawMaterialRepository defines the interface for raw material data access
type RawMaterialRepository interface {
	AuditedRepository[models.RawMaterial]

	// ListBelow lists non-deleted materials whose stock is below threshold
	ListBelow(ctx context.Context, threshold float64) ([]models.RawMaterial, error)
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	AuditedRepository[models.Order]

	// ReplaceItems soft deletes the current items of an order and creates the given ones
	ReplaceItems(ctx context.Context, actor audit.Actor, orderID string, items []models.OrderItem) error
}

// WorkOrderRepository defines the interface for work order data access
type WorkOrderRepository interface {
	AuditedRepository[models.WorkOrder]

	// FindByOrder finds the non-deleted work order of an order
	FindByOrder(ctx context.Context, orderID string) (*models.WorkOrder, error)
}

// DeliveryOrderRepository defines the interface for delivery order data access
type DeliveryOrderRepository interface {
	AuditedRepository[models.DeliveryOrder]

	// FindByOrder finds the non-deleted delivery order of an order
	FindByOrder(ctx context.Context, orderID string) (*models.DeliveryOrder, error)
}
