package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestRequireWindow_Levels(t *testing.T) {
	srv := newTestServer(t)
	srv.createUserWithGrant(t, "viewer@example.com", WindowRawMaterials, false, false)
	srv.createUserWithGrant(t, "editor@example.com", WindowRawMaterials, true, false)
	viewer := srv.login(t, "viewer@example.com", "password123")
	editor := srv.login(t, "editor@example.com", "password123")

	material := map[string]interface{}{"name": "Zinc", "stock": 10, "unit": "kg"}

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/raw-materials", viewer, nil).Code)
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodPost, "/raw-materials", viewer, material).Code)
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodGet, "/orders", viewer, nil).Code)

	w := srv.do(t, http.MethodPost, "/raw-materials", editor, material)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := gjson.Get(w.Body.String(), "data.id").String()

	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodDelete, "/raw-materials/"+id, editor, nil).Code)
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodPost, "/raw-materials/"+id+"/restore", editor, nil).Code)
}

func TestRoleHandler_DeleteInUse(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, adminEmail, adminPassword)

	roleID := gjson.Get(srv.do(t, http.MethodGet, "/profile", token, nil).Body.String(), "data.role_id").String()
	require.NotEmpty(t, roleID)

	w := srv.do(t, http.MethodDelete, "/general/setup/roles/"+roleID, token, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	usages := gjson.Get(w.Body.String(), "data.details")
	require.True(t, usages.IsArray())
	assert.Equal(t, "users", usages.Get("0.table").String())
}

func TestRoleHandler_SetWindows(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, adminEmail, adminPassword)

	w := srv.do(t, http.MethodPost, "/general/setup/roles", token, map[string]string{"name": "Warehouse"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	roleID := gjson.Get(w.Body.String(), "data.id").String()

	window, err := srv.repos.Windows.FindByURL(srv.ctx, WindowRawMaterials)
	require.NoError(t, err)

	w = srv.do(t, http.MethodPut, "/general/setup/roles/"+roleID+"/windows", token, map[string]interface{}{
		"windows": []map[string]interface{}{{"window_id": window.ID, "is_edit": true}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, gjson.Get(w.Body.String(), "data").Array(), 1)

	w = srv.do(t, http.MethodPut, "/general/setup/roles/"+roleID+"/windows", token, map[string]interface{}{
		"windows": []map[string]interface{}{{"window_id": "missing"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The grant itself references the role.
	w = srv.do(t, http.MethodDelete, "/general/setup/roles/"+roleID, token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "role_windows", gjson.Get(w.Body.String(), "data.details.0.table").String())

	w = srv.do(t, http.MethodDelete, "/general/setup/roles/"+roleID+"?force=true", token, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestUserHandler_Create(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, adminEmail, adminPassword)

	user := map[string]interface{}{"name": "Budi", "email": "budi@example.com", "password": "password123"}
	w := srv.do(t, http.MethodPost, "/general/setup/users", token, user)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "budi@example.com", gjson.Get(w.Body.String(), "data.email").String())

	w = srv.do(t, http.MethodPost, "/general/setup/users", token, user)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = srv.do(t, http.MethodPost, "/general/setup/users", token, map[string]interface{}{
		"name": "Short", "email": "short@example.com", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrganizationHandler_Departments(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, adminEmail, adminPassword)

	w := srv.do(t, http.MethodPost, "/general/setup/organizations", token, map[string]interface{}{
		"name": "Plant A", "city": "Bekasi",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orgID := gjson.Get(w.Body.String(), "data.id").String()
	assert.Equal(t, "Bekasi", gjson.Get(w.Body.String(), "data.data.city").String())

	w = srv.do(t, http.MethodPost, "/general/setup/organizations/"+orgID+"/departments", token, map[string]string{"name": "Welding"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = srv.do(t, http.MethodGet, "/general/setup/organizations/"+orgID+"/departments", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Welding", gjson.Get(w.Body.String(), "data.0.name").String())

	w = srv.do(t, http.MethodPost, "/general/setup/organizations", token, []string{"not", "an", "object"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
