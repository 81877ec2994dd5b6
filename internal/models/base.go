package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit holds the creation, update and deletion metadata shared by every table.
// Created and Updated are single-slot stamps: each write replaces the previous one.
type Audit struct {
	Created   datatypes.JSONMap `json:"created,omitempty"`
	Updated   datatypes.JSONMap `json:"updated,omitempty"`
	Deleted   datatypes.JSONMap `json:"deleted,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	DeletedAt gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

// Trashed reports whether the record has been soft-deleted.
func (a *Audit) Trashed() bool {
	return a.DeletedAt.Valid
}

// Base is embedded by every soft-deletable model.
type Base struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Audit
}

func (b *Base) Key() string         { return b.ID }
func (b *Base) AssignKey(id string) { b.ID = id }
func (b *Base) Trail() *Audit       { return &b.Audit }

// Auditable is implemented by pointers to models embedding Base.
type Auditable interface {
	Key() string
	AssignKey(id string)
	Trail() *Audit
}

// All returns every model managed by migrations, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Organization{},
		&Department{},
		&Role{},
		&Window{},
		&RoleWindow{},
		&User{},
		&Product{},
		&Order{},
		&OrderItem{},
		&WorkOrder{},
		&FinishedGood{},
		&DeliveryOrder{},
		&DeliveryOrderItem{},
		&RawMaterial{},
		&RawMaterialUsage{},
		&DocumentCounter{},
	}
}
