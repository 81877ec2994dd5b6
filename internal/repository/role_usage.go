package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// RoleReference is a column that stores a role id.
type RoleReference struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// RoleReferences lists every column referencing roles.id.
// Adding a belongs-to Role relation to a model requires adding it here.
var RoleReferences = []RoleReference{
	{Table: "users", Column: "role_id"},
	{Table: "role_windows", Column: "role_id"},
}

// redactedColumns are never returned in usage rows.
var redactedColumns = []string{"password_hash"}

// RoleUsage is the set of rows in one table that reference a role.
type RoleUsage struct {
	Table  string                   `json:"table"`
	Column string                   `json:"column"`
	Count  int                      `json:"count"`
	Rows   []map[string]interface{} `json:"rows"`
}

// RoleUsageInspector reports which rows still reference a role.
type RoleUsageInspector struct {
	db         *gorm.DB
	references []RoleReference
}

// NewRoleUsageInspector creates an inspector over RoleReferences
func NewRoleUsageInspector(db *gorm.DB) *RoleUsageInspector {
	return &RoleUsageInspector{db: db, references: RoleReferences}
}

// Inspect returns one entry per referencing table that has at least one row
// pointing at roleID. Trashed rows are included.
func (i *RoleUsageInspector) Inspect(ctx context.Context, roleID string) ([]RoleUsage, error) {
	usages := []RoleUsage{}
	for _, ref := range i.references {
		var rows []map[string]interface{}
		err := i.db.WithContext(ctx).
			Table(ref.Table).
			Where(ref.Column+" = ?", roleID).
			Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to inspect %s.%s: %w", ref.Table, ref.Column, err)
		}
		if len(rows) == 0 {
			continue
		}
		for _, row := range rows {
			for _, col := range redactedColumns {
				delete(row, col)
			}
		}
		usages = append(usages, RoleUsage{
			Table:  ref.Table,
			Column: ref.Column,
			Count:  len(rows),
			Rows:   rows,
		})
	}
	return usages, nil
}
