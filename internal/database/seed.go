package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/config"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdministratorRole is the name of the role seeded with every permission.
const AdministratorRole = "Administrator"

type seedWindow struct {
	url         string
	name        string
	description string
	icon        string
	parent      string
	order       int
}

// DefaultWindows is the menu installed by Seed. Parents precede their children.
var DefaultWindows = []seedWindow{
	{url: "/dashboard", name: "Dashboard", icon: "home", order: 1},
	{url: "/general/setup", name: "General Setup", icon: "settings", order: 2},
	{url: "/general/setup/windows", name: "Windows", description: "Menu entries", parent: "/general/setup", order: 1},
	{url: "/general/setup/roles", name: "Roles", description: "Roles and window grants", parent: "/general/setup", order: 2},
	{url: "/general/setup/users", name: "Users", description: "User accounts", parent: "/general/setup", order: 3},
	{url: "/general/setup/organizations", name: "Organizations", description: "Organizations and departments", parent: "/general/setup", order: 4},
	{url: "/production", name: "Production", icon: "factory", order: 3},
	{url: "/orders", name: "Orders", description: "Customer orders", parent: "/production", order: 1},
	{url: "/work-orders", name: "Work Orders", description: "Production work orders", parent: "/production", order: 2},
	{url: "/delivery-orders", name: "Delivery Orders", description: "Shipments", parent: "/production", order: 3},
	{url: "/raw-materials", name: "Raw Materials", description: "Stock of raw materials", parent: "/production", order: 4},
}

// Seed installs the default windows, the Administrator role with full grants and
// the super admin user. Existing rows are left untouched.
func Seed(ctx context.Context, db *gorm.DB, stamper *audit.Stamper, admin config.SuperAdminConfig, log *zap.Logger) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		windowIDs := make(map[string]string, len(DefaultWindows))
		for _, sw := range DefaultWindows {
			var w models.Window
			err := tx.Where("url = ?", sw.url).First(&w).Error
			if err == nil {
				windowIDs[sw.url] = w.ID
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			w = models.Window{
				Name:         sw.name,
				Description:  sw.description,
				Icon:         sw.icon,
				DisplayOrder: sw.order,
				URL:          sw.url,
			}
			if sw.parent != "" {
				parentID := windowIDs[sw.parent]
				w.ParentID = &parentID
			}
			if err := stamper.Create(ctx, tx, audit.System, &w); err != nil {
				return fmt.Errorf("failed to seed window %s: %w", sw.url, err)
			}
			windowIDs[sw.url] = w.ID
			log.Info("Seeded window", zap.String("url", sw.url))
		}

		var role models.Role
		err := tx.Where("name = ?", AdministratorRole).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role = models.Role{Name: AdministratorRole, Description: "Full access to every window"}
			if err := stamper.Create(ctx, tx, audit.System, &role); err != nil {
				return fmt.Errorf("failed to seed role: %w", err)
			}
			log.Info("Seeded role", zap.String("name", role.Name))
		} else if err != nil {
			return err
		}

		for _, sw := range DefaultWindows {
			var count int64
			if err := tx.Model(&models.RoleWindow{}).
				Where("role_id = ? AND window_id = ?", role.ID, windowIDs[sw.url]).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			grant := models.RoleWindow{RoleID: role.ID, WindowID: windowIDs[sw.url], IsEdit: true, IsAdmin: true}
			if err := stamper.Create(ctx, tx, audit.System, &grant); err != nil {
				return fmt.Errorf("failed to seed grant for %s: %w", sw.url, err)
			}
		}

		if admin.Email == "" {
			return nil
		}
		var count int64
		if err := tx.Unscoped().Model(&models.User{}).Where("email = ?", admin.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		email := admin.Email
		user := models.User{
			Name:                     admin.Name,
			Email:                    &email,
			PasswordHash:             string(hash),
			RoleID:                   &role.ID,
			IsActive:                 true,
			ReceiveStockNotification: true,
		}
		if err := stamper.Create(ctx, tx, audit.System, &user); err != nil {
			return fmt.Errorf("failed to seed super admin: %w", err)
		}
		log.Info("Seeded super admin", zap.String("email", email))
		return nil
	})
}
