package repository

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func TestRoleUsageInspectorQueriesEveryReference(t *testing.T) {
	db, mock := newMockDB(t)

	userRows := mock.NewRowsWithColumnDefinition(
		mock.NewColumn("id").OfType("VARCHAR", ""),
		mock.NewColumn("name").OfType("VARCHAR", ""),
		mock.NewColumn("role_id").OfType("VARCHAR", ""),
		mock.NewColumn("password_hash").OfType("VARCHAR", ""),
	).
		AddRow("u-1", "Alice", "role-1", "secret").
		AddRow("u-2", "Bob", "role-1", "secret")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE role_id = ?")).
		WithArgs("role-1").
		WillReturnRows(userRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `role_windows` WHERE role_id = ?")).
		WithArgs("role-1").
		WillReturnRows(mock.NewRowsWithColumnDefinition(mock.NewColumn("id").OfType("VARCHAR", "")))

	usages, err := NewRoleUsageInspector(db).Inspect(context.Background(), "role-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, usages, 1)
	assert.Equal(t, "users", usages[0].Table)
	assert.Equal(t, "role_id", usages[0].Column)
	assert.Equal(t, 2, usages[0].Count)
	assert.Equal(t, "Alice", usages[0].Rows[0]["name"])
	assert.NotContains(t, usages[0].Rows[0], "password_hash")
}

func TestRoleUsageInspectorPropagatesErrors(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE role_id = ?")).
		WithArgs("role-1").
		WillReturnError(assert.AnError)

	_, err := NewRoleUsageInspector(db).Inspect(context.Background(), "role-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users.role_id")
}

// Every belongs-to relation to Role must be listed in RoleReferences.
func TestRoleReferencesCoverEveryModel(t *testing.T) {
	cache := &sync.Map{}
	found := []RoleReference{}

	for _, model := range models.All() {
		s, err := schema.Parse(model, cache, schema.NamingStrategy{})
		require.NoError(t, err)

		for _, rel := range s.Relationships.Relations {
			if rel.Type != schema.BelongsTo || rel.FieldSchema.Table != "roles" {
				continue
			}
			for _, ref := range rel.References {
				found = append(found, RoleReference{Table: s.Table, Column: ref.ForeignKey.DBName})
			}
		}
	}

	found = lo.Uniq(found)
	assert.NotEmpty(t, found)
	assert.ElementsMatch(t, found, RoleReferences)
}
