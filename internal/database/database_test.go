package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/config"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/testutil"
	"github.com/yukikurage/manufacturing-backoffice/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	stamper := audit.NewStamper(zap.NewNop())
	admin := config.SuperAdminConfig{Name: "Admin", Email: "admin@example.com", Password: "password123"}

	require.NoError(t, Seed(context.Background(), db, stamper, admin, zap.NewNop()))
	require.NoError(t, Seed(context.Background(), db, stamper, admin, zap.NewNop()))

	var windows int64
	require.NoError(t, db.Model(&models.Window{}).Count(&windows).Error)
	assert.Equal(t, int64(len(DefaultWindows)), windows)

	var role models.Role
	require.NoError(t, db.Where("name = ?", AdministratorRole).First(&role).Error)

	var grants []models.RoleWindow
	require.NoError(t, db.Where("role_id = ?", role.ID).Find(&grants).Error)
	assert.Len(t, grants, len(DefaultWindows))
	for _, g := range grants {
		assert.True(t, g.IsEdit)
		assert.True(t, g.IsAdmin)
	}

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, role.ID, *users[0].RoleID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].PasswordHash), []byte("password123")))
	assert.Nil(t, users[0].Created["by"])
}

func TestSeedLinksChildWindows(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, Seed(context.Background(), db, audit.NewStamper(zap.NewNop()), config.SuperAdminConfig{}, zap.NewNop()))

	var parent, child models.Window
	require.NoError(t, db.Where("url = ?", "/general/setup").First(&parent).Error)
	require.NoError(t, db.Where("url = ?", "/general/setup/roles").First(&child).Error)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)
	assert.Nil(t, parent.ParentID)
}

func TestTrashedScope(t *testing.T) {
	db := testutil.NewDB(t)
	stamper := audit.NewStamper(zap.NewNop())
	ctx := context.Background()

	live := models.Product{Name: "Panel"}
	gone := models.Product{Name: "Frame"}
	require.NoError(t, stamper.Create(ctx, db, audit.System, &live))
	require.NoError(t, stamper.Create(ctx, db, audit.System, &gone))
	require.NoError(t, stamper.Delete(ctx, db, audit.System, &gone, "obsolete"))

	count := func(mode TrashedMode) int {
		var products []models.Product
		require.NoError(t, db.Scopes(Trashed(mode, "products")).Find(&products).Error)
		return len(products)
	}

	assert.Equal(t, 1, count(WithoutTrashed))
	assert.Equal(t, 2, count(WithTrashed))
	assert.Equal(t, 1, count(OnlyTrashed))
	assert.Equal(t, OnlyTrashed, ParseTrashedMode("only"))
	assert.Equal(t, WithoutTrashed, ParseTrashedMode("bogus"))
}

func TestPaginateScope(t *testing.T) {
	db := testutil.NewDB(t)
	stamper := audit.NewStamper(zap.NewNop())
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, stamper.Create(context.Background(), db, audit.System, &models.Product{Name: name}))
	}

	var products []models.Product
	require.NoError(t, db.Scopes(Paginate(utils.PaginationParams{Page: 2, Limit: 2, Offset: 2})).Order("name").Find(&products).Error)
	require.Len(t, products, 1)
	assert.Equal(t, "c", products[0].Name)
}
