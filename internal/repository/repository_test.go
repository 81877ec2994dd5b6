package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/database"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/testutil"
	"github.com/yukikurage/manufacturing-backoffice/internal/utils"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupRepositories(t *testing.T) (*Repositories, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	return New(db, audit.NewStamper(zap.NewNop())), db
}

func strPtr(s string) *string { return &s }

func TestFindByIDIncludesTrashed(t *testing.T) {
	repos, _ := setupRepositories(t)
	ctx := context.Background()

	product := &models.Product{Name: "Panel", Unit: "pcs"}
	require.NoError(t, repos.Products.Create(ctx, audit.System, product))
	require.NoError(t, repos.Products.Delete(ctx, audit.Actor{UserID: "u-1"}, product, "duplicate"))

	found, err := repos.Products.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, found.Trashed())
	assert.Equal(t, "duplicate", found.Deleted["reason"])

	live, err := repos.Products.FindByIDs(ctx, []string{product.ID})
	require.NoError(t, err)
	assert.Empty(t, live)

	_, err = repos.Products.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListTrashedModesAndPagination(t *testing.T) {
	repos, _ := setupRepositories(t)
	ctx := context.Background()

	var created []*models.Product
	for _, name := range []string{"a", "b", "c", "d"} {
		p := &models.Product{Name: name}
		require.NoError(t, repos.Products.Create(ctx, audit.System, p))
		created = append(created, p)
	}
	require.NoError(t, repos.Products.Delete(ctx, audit.System, created[0], ""))

	items, total, err := repos.Products.List(ctx, ListQuery{Order: "name"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, "b", items[0].Name)

	_, total, err = repos.Products.List(ctx, ListQuery{Trashed: database.WithTrashed})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	items, total, err = repos.Products.List(ctx, ListQuery{Trashed: database.OnlyTrashed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "a", items[0].Name)

	items, total, err = repos.Products.List(ctx, ListQuery{
		Order:      "name",
		Pagination: &utils.PaginationParams{Page: 2, Limit: 2, Offset: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 1)
	assert.Equal(t, "d", items[0].Name)
}

func TestReplaceGrants(t *testing.T) {
	repos, db := setupRepositories(t)
	ctx := context.Background()

	role := &models.Role{Name: "Operator"}
	require.NoError(t, repos.Roles.Create(ctx, audit.System, role))
	w1 := &models.Window{Name: "Orders", URL: "/orders"}
	w2 := &models.Window{Name: "Users", URL: "/general/setup/users"}
	require.NoError(t, repos.Windows.Create(ctx, audit.System, w1))
	require.NoError(t, repos.Windows.Create(ctx, audit.System, w2))

	require.NoError(t, repos.Roles.ReplaceGrants(ctx, audit.System, role.ID, []models.RoleWindow{{WindowID: w1.ID, IsEdit: true}}))
	require.NoError(t, repos.Roles.ReplaceGrants(ctx, audit.System, role.ID, []models.RoleWindow{{WindowID: w2.ID, IsAdmin: true}}))

	grants, err := repos.Roles.ListGrants(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, w2.ID, grants[0].WindowID)
	require.NotNil(t, grants[0].Window)
	assert.Equal(t, "Users", grants[0].Window.Name)

	var all int64
	require.NoError(t, db.Unscoped().Model(&models.RoleWindow{}).Count(&all).Error)
	assert.Equal(t, int64(2), all)

	byPair, err := repos.Roles.FindGrants(ctx, role.ID, w1.ID)
	require.NoError(t, err)
	assert.Empty(t, byPair)
}

func TestUserRecipientQueries(t *testing.T) {
	repos, _ := setupRepositories(t)
	ctx := context.Background()

	require.NoError(t, repos.Users.Create(ctx, audit.System, &models.User{Name: "no mail", PasswordHash: "x"}))
	optedIn := &models.User{Name: "opted in", Email: strPtr("in@example.com"), PasswordHash: "x", ReceiveStockNotification: true}
	require.NoError(t, repos.Users.Create(ctx, audit.System, optedIn))
	gone := &models.User{Name: "gone", Email: strPtr("gone@example.com"), PasswordHash: "x", ReceiveStockNotification: true}
	require.NoError(t, repos.Users.Create(ctx, audit.System, gone))
	require.NoError(t, repos.Users.Delete(ctx, audit.System, gone, "left"))

	recipients, err := repos.Users.ListNotificationRecipients(ctx)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, optedIn.ID, recipients[0].ID)

	withEmail, err := repos.Users.ListWithEmail(ctx, 10)
	require.NoError(t, err)
	require.Len(t, withEmail, 1)
	assert.Equal(t, "in@example.com", withEmail[0].EmailAddress())

	user, err := repos.Users.FindByEmail(ctx, "in@example.com")
	require.NoError(t, err)
	assert.Equal(t, optedIn.ID, user.ID)

	_, err = repos.Users.FindByEmail(ctx, "gone@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRawMaterialListBelow(t *testing.T) {
	repos, _ := setupRepositories(t)
	ctx := context.Background()

	for _, data := range []string{
		`{"name":"Aluminium","stock":50,"unit":"kg"}`,
		`{"name":"Glass","stock":600,"unit":"sheet"}`,
		`{"name":"Sealant","stock":499,"unit":"tube"}`,
	} {
		require.NoError(t, repos.RawMaterials.Create(ctx, audit.System, &models.RawMaterial{Data: datatypes.JSON(data)}))
	}

	low, err := repos.RawMaterials.ListBelow(ctx, 500)
	require.NoError(t, err)
	require.Len(t, low, 2)
	names := []string{low[0].Name(), low[1].Name()}
	assert.ElementsMatch(t, []string{"Aluminium", "Sealant"}, names)
}

func TestTransactionRollsBack(t *testing.T) {
	repos, _ := setupRepositories(t)
	ctx := context.Background()

	err := repos.Transaction(ctx, func(tx *Repositories) error {
		if err := tx.Products.Create(ctx, audit.System, &models.Product{Name: "temp"}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, total, err := repos.Products.List(ctx, ListQuery{Trashed: database.WithTrashed})
	require.NoError(t, err)
	assert.Zero(t, total)
}
