// Package audit stamps creation, update and deletion metadata onto records.
//
// Repositories call a Stamper explicitly for every write so the audit contract is
// visible at each call site. Deletion never removes rows: it sets deleted_at and
// merges {at, by, ip, reason} into the deleted column. Restore clears both.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Actor identifies who performs a write and from where.
// Empty fields are stored as null.
type Actor struct {
	UserID string
	IP     string
}

// System is the actor used by scheduled jobs and seeding.
var System = Actor{}

// RestoreFunc is called after a record has been restored.
type RestoreFunc func(ctx context.Context, table string, id string)

// Stamper applies audit metadata. The zero value is not usable; use NewStamper.
type Stamper struct {
	now       func() time.Time
	logger    *zap.Logger
	onRestore []RestoreFunc
}

// Option configures a Stamper.
type Option func(*Stamper)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Stamper) { s.now = now }
}

func NewStamper(logger *zap.Logger, opts ...Option) *Stamper {
	s := &Stamper{
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnRestore registers an observer for restored records.
func (s *Stamper) OnRestore(fn RestoreFunc) {
	s.onRestore = append(s.onRestore, fn)
}

// Now returns the stamper's current time.
func (s *Stamper) Now() time.Time {
	return s.now()
}

// Create assigns an id when missing, stamps created and inserts the record.
func (s *Stamper) Create(ctx context.Context, db *gorm.DB, actor Actor, rec models.Auditable) error {
	if rec.Key() == "" {
		rec.AssignKey(uuid.NewString())
	}
	rec.Trail().Created = s.stamp(actor)
	return db.WithContext(ctx).Create(rec).Error
}

// Update replaces the updated stamp and writes every mutable column.
// Trashed records cannot be updated and yield gorm.ErrRecordNotFound.
func (s *Stamper) Update(ctx context.Context, db *gorm.DB, actor Actor, rec models.Auditable) error {
	rec.Trail().Updated = s.stamp(actor)
	result := db.WithContext(ctx).Model(rec).
		Select("*").
		Omit("id", "created", "created_at", "deleted", "deleted_at", clause.Associations).
		Updates(rec)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete soft-deletes a loaded record. Deleting a trashed record refreshes its
// deletion metadata but keeps the original deleted_at.
func (s *Stamper) Delete(ctx context.Context, db *gorm.DB, actor Actor, rec models.Auditable, reason string) error {
	trail := rec.Trail()
	now := s.now()
	if !trail.DeletedAt.Valid {
		trail.DeletedAt = gorm.DeletedAt{Time: now, Valid: true}
	}

	merged := datatypes.JSONMap{}
	for k, v := range trail.Deleted {
		merged[k] = v
	}
	merged["at"] = formatTime(now)
	merged["by"] = nullable(actor.UserID)
	merged["ip"] = nullable(actor.IP)
	merged["reason"] = nullable(reason)
	trail.Deleted = merged

	return db.WithContext(ctx).Unscoped().Model(rec).UpdateColumns(map[string]interface{}{
		"deleted_at": trail.DeletedAt,
		"deleted":    trail.Deleted,
	}).Error
}

// Restore clears deleted_at and the deletion metadata, then notifies observers.
func (s *Stamper) Restore(ctx context.Context, db *gorm.DB, actor Actor, rec models.Auditable) error {
	trail := rec.Trail()
	if !trail.DeletedAt.Valid {
		return ErrNotTrashed
	}

	tx := db.WithContext(ctx).Unscoped().Model(rec)
	if err := tx.UpdateColumns(map[string]interface{}{
		"deleted_at": nil,
		"deleted":    nil,
	}).Error; err != nil {
		return err
	}
	trail.DeletedAt = gorm.DeletedAt{}
	trail.Deleted = nil

	table := tableName(db, rec)
	s.logger.Info("record restored",
		zap.String("table", table),
		zap.String("id", rec.Key()),
		zap.String("by", actor.UserID))
	for _, fn := range s.onRestore {
		fn(ctx, table, rec.Key())
	}
	return nil
}

// ErrNotTrashed is returned when restoring a record that is not deleted.
var ErrNotTrashed = errors.New("record is not deleted")

func (s *Stamper) stamp(actor Actor) datatypes.JSONMap {
	return datatypes.JSONMap{
		"at": formatTime(s.now()),
		"by": nullable(actor.UserID),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullable(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

func tableName(db *gorm.DB, rec interface{}) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(rec); err != nil {
		return ""
	}
	return stmt.Schema.Table
}
