package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/database"
	"github.com/yukikurage/manufacturing-backoffice/internal/repository"
	"github.com/yukikurage/manufacturing-backoffice/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrNameRequired     = errors.New("name is required")
	ErrInvalidReference = errors.New("referenced record does not exist")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrNotTrashed       = errors.New("record is not deleted")
	ErrAlreadyTrashed   = errors.New("record is already deleted")
)

// ListInput represents the options shared by listings
type ListInput struct {
	Trashed    database.TrashedMode
	Pagination *utils.PaginationParams
}

func (in ListInput) query(preload ...string) repository.ListQuery {
	return repository.ListQuery{
		Trashed:    in.Trashed,
		Pagination: in.Pagination,
		Preload:    preload,
	}
}

// lookupError maps gorm.ErrRecordNotFound to notFound and wraps anything else.
func lookupError(err error, notFound error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("failed to find %s: %w", what, err)
}

// restoreError maps audit.ErrNotTrashed to ErrNotTrashed.
func restoreError(err error, what string) error {
	if errors.Is(err, audit.ErrNotTrashed) {
		return ErrNotTrashed
	}
	return fmt.Errorf("failed to restore %s: %w", what, err)
}
