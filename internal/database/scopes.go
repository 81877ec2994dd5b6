package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/manufacturing-backoffice/internal/utils"
)

// TrashedMode selects how soft-deleted rows are treated by listings.
type TrashedMode string

const (
	// WithoutTrashed hides soft-deleted rows (the default).
	WithoutTrashed TrashedMode = ""
	// WithTrashed includes soft-deleted rows.
	WithTrashed TrashedMode = "with"
	// OnlyTrashed returns soft-deleted rows only.
	OnlyTrashed TrashedMode = "only"
)

// ParseTrashedMode maps a query value to a TrashedMode, defaulting to WithoutTrashed.
func ParseTrashedMode(v string) TrashedMode {
	switch TrashedMode(v) {
	case WithTrashed, OnlyTrashed:
		return TrashedMode(v)
	default:
		return WithoutTrashed
	}
}

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// Trashed applies the soft-delete visibility for table.
func Trashed(mode TrashedMode, table string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch mode {
		case WithTrashed:
			return db.Unscoped()
		case OnlyTrashed:
			return db.Unscoped().Where(table + ".deleted_at IS NOT NULL")
		default:
			return db
		}
	}
}
