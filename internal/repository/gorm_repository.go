package repository

import (
	"context"

	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/database"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"gorm.io/gorm"
)

type record[T any] interface {
	*T
	models.Auditable
}

// GormRepository is a GORM implementation of AuditedRepository
type GormRepository[T any, P record[T]] struct {
	db      *gorm.DB
	stamper *audit.Stamper
	table   string
}

// NewGormRepository creates a new AuditedRepository for T
func NewGormRepository[T any, P record[T]](db *gorm.DB, stamper *audit.Stamper) *GormRepository[T, P] {
	stmt := &gorm.Statement{DB: db}
	table := ""
	if err := stmt.Parse(new(T)); err == nil {
		table = stmt.Schema.Table
	}
	return &GormRepository[T, P]{db: db, stamper: stamper, table: table}
}

// Table returns the table name of T
func (r *GormRepository[T, P]) Table() string {
	return r.table
}

// Create assigns an id, stamps created and inserts the record
func (r *GormRepository[T, P]) Create(ctx context.Context, actor audit.Actor, rec *T) error {
	return r.stamper.Create(ctx, r.db, actor, P(rec))
}

// FindByID finds a record by ID, including trashed ones. Preloads inherit the
// unscoped query, so trashed associations are loaded too; use FindByIDWith and
// LivePreload for child collections.
func (r *GormRepository[T, P]) FindByID(ctx context.Context, id string, preload ...string) (*T, error) {
	scopes := make([]Scope, 0, len(preload))
	for _, p := range preload {
		scopes = append(scopes, Preload(p))
	}
	return r.FindByIDWith(ctx, id, scopes...)
}

// FindByIDWith finds a record by ID, including trashed ones, applying scopes
func (r *GormRepository[T, P]) FindByIDWith(ctx context.Context, id string, scopes ...Scope) (*T, error) {
	var rec T
	query := r.db.WithContext(ctx).Unscoped().Scopes(scopes...)

	if err := query.Where(r.table+".id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindByIDs finds the non-trashed records with the given IDs
func (r *GormRepository[T, P]) FindByIDs(ctx context.Context, ids []string) ([]T, error) {
	recs := []T{}
	if len(ids) == 0 {
		return recs, nil
	}
	if err := r.db.WithContext(ctx).Where(r.table+".id IN ?", ids).Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// List retrieves records honouring the trashed mode and pagination
func (r *GormRepository[T, P]) List(ctx context.Context, q ListQuery, scopes ...Scope) ([]T, int64, error) {
	recs := []T{}

	query := r.db.WithContext(ctx).Model(new(T))
	query = database.Trashed(q.Trashed, r.table)(query)
	for _, scope := range scopes {
		query = scope(query)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	if q.Order != "" {
		listQuery = listQuery.Order(q.Order)
	} else {
		listQuery = listQuery.Order(r.table + ".created_at DESC").Order(r.table + ".id")
	}

	if q.Pagination != nil {
		listQuery = database.Paginate(*q.Pagination)(listQuery)
	}

	for _, p := range q.Preload {
		listQuery = LivePreload(p)(listQuery)
	}

	if err := listQuery.Find(&recs).Error; err != nil {
		return nil, 0, err
	}

	return recs, total, nil
}

// Update stamps updated and writes the mutable columns
func (r *GormRepository[T, P]) Update(ctx context.Context, actor audit.Actor, rec *T) error {
	return r.stamper.Update(ctx, r.db, actor, P(rec))
}

// Delete soft deletes a loaded record
func (r *GormRepository[T, P]) Delete(ctx context.Context, actor audit.Actor, rec *T, reason string) error {
	return r.stamper.Delete(ctx, r.db, actor, P(rec), reason)
}

// Restore clears the deletion of a loaded record
func (r *GormRepository[T, P]) Restore(ctx context.Context, actor audit.Actor, rec *T) error {
	return r.stamper.Restore(ctx, r.db, actor, P(rec))
}
