package database

import (
	"fmt"

	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AddIndexes adds composite indexes that struct tags do not express.
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	indexes := []struct {
		model   interface{}
		table   string
		name    string
		columns string
	}{
		// Permission lookups by (role, window); duplicates are allowed.
		{&models.RoleWindow{}, "role_windows", "idx_role_windows_role_window", "role_id, window_id"},

		// Listings filter by status and hide trashed rows.
		{&models.Order{}, "orders", "idx_orders_status_deleted_at", "status, deleted_at"},
		{&models.WorkOrder{}, "work_orders", "idx_work_orders_status_deleted_at", "status, deleted_at"},
		{&models.DeliveryOrder{}, "delivery_orders", "idx_delivery_orders_status_deleted_at", "status, deleted_at"},

		// Notification recipient lookup.
		{&models.User{}, "users", "idx_users_notification_email", "receive_stock_notification, email"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			log.Debug("Index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("Created index", zap.String("index", idx.name), zap.String("table", idx.table))
	}

	return nil
}
