package dto

import (
	"time"

	"github.com/samber/lo"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/utils"
	"gorm.io/datatypes"
)

// ListResponse represents a paginated listing
type ListResponse[T any] struct {
	Items      []T                      `json:"items"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// NewListResponse converts records with fn and attaches pagination metadata
func NewListResponse[M any, T any](records []M, params utils.PaginationParams, total int64, fn func(M) T) ListResponse[T] {
	return ListResponse[T]{
		Items:      lo.Map(records, func(m M, _ int) T { return fn(m) }),
		Pagination: utils.NewPaginationResponse(params, total),
	}
}

// Identity returns its argument; used with NewListResponse for models that are served as-is
func Identity[T any](v T) T { return v }

// AuditDTO carries the audit columns of a record
type AuditDTO struct {
	Created   datatypes.JSONMap `json:"created,omitempty"`
	Updated   datatypes.JSONMap `json:"updated,omitempty"`
	Deleted   datatypes.JSONMap `json:"deleted,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	DeletedAt *time.Time        `json:"deleted_at,omitempty"`
}

// ToAuditDTO converts the audit columns of a model
func ToAuditDTO(a models.Audit) AuditDTO {
	dto := AuditDTO{
		Created:   a.Created,
		Updated:   a.Updated,
		Deleted:   a.Deleted,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.DeletedAt.Valid {
		t := a.DeletedAt.Time
		dto.DeletedAt = &t
	}
	return dto
}
