package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestAuthHandler_Login(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/login", "", map[string]string{
		"email":    "ADMIN@example.com",
		"password": adminPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := gjson.Parse(w.Body.String())
	assert.True(t, body.Get("success").Bool())
	assert.NotEmpty(t, body.Get("data.token").String())
	assert.Equal(t, adminEmail, body.Get("data.user.email").String())
	assert.False(t, body.Get("data.user.password_hash").Exists())
}

func TestAuthHandler_LoginRejectsBadPassword(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/login", "", map[string]string{
		"email":    adminEmail,
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	body := gjson.Parse(w.Body.String())
	assert.False(t, body.Get("success").Bool())
	assert.Equal(t, "INVALID_CREDENTIALS", body.Get("data.code").String())
}

func TestAuthHandler_ProtectedRoutesNeedToken(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", gjson.Get(w.Body.String(), "data.code").String())

	w = srv.do(t, http.MethodGet, "/profile", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "SESSION_EXPIRED", gjson.Get(w.Body.String(), "data.code").String())
	assert.True(t, gjson.Get(w.Body.String(), "data.force_logout").Bool())
}

func TestAuthHandler_ProfileAndLogout(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, adminEmail, adminPassword)

	w := srv.do(t, http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, adminEmail, gjson.Get(w.Body.String(), "data.email").String())

	w = srv.do(t, http.MethodPost, "/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = srv.do(t, http.MethodGet, "/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "SESSION_EXPIRED", gjson.Get(w.Body.String(), "data.code").String())
}

func TestAuthHandler_Permit(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, adminEmail, adminPassword)

	window, err := srv.repos.Windows.FindByURL(srv.ctx, WindowOrders)
	require.NoError(t, err)

	w := srv.do(t, http.MethodPost, "/validation/permit/"+window.ID+"?refresh=true", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := gjson.Parse(w.Body.String())
	assert.True(t, body.Get("data.can_access").Bool())
	assert.True(t, body.Get("data.can_edit").Bool())
	assert.True(t, body.Get("data.is_admin").Bool())
	assert.True(t, body.Get("data.session_valid").Bool())
	assert.Equal(t, WindowOrders, body.Get("data.url").String())
}

func TestAuthHandler_PermitDeniedWindow(t *testing.T) {
	srv := newTestServer(t)
	srv.createUserWithGrant(t, "clerk@example.com", WindowOrders, false, false)
	token := srv.login(t, "clerk@example.com", "password123")

	window, err := srv.repos.Windows.FindByURL(srv.ctx, WindowSetupRoles)
	require.NoError(t, err)

	w := srv.do(t, http.MethodPost, "/validation/permit/"+window.ID, token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	body := gjson.Parse(w.Body.String())
	assert.Equal(t, "FORBIDDEN", body.Get("data.code").String())
	assert.False(t, body.Get("data.details.can_access").Bool())
	assert.Equal(t, WindowSetupRoles, body.Get("data.details.url").String())
}

func TestAuthHandler_Menu(t *testing.T) {
	srv := newTestServer(t)
	srv.createUserWithGrant(t, "clerk@example.com", WindowOrders, false, false)
	token := srv.login(t, "clerk@example.com", "password123")

	w := srv.do(t, http.MethodGet, WindowSetupWindows, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var urls []string
	gjson.Get(w.Body.String(), "data").ForEach(func(_, node gjson.Result) bool {
		urls = append(urls, node.Get("url").String())
		node.Get("children").ForEach(func(_, child gjson.Result) bool {
			urls = append(urls, child.Get("url").String())
			return true
		})
		return true
	})
	assert.Contains(t, urls, WindowOrders)
	assert.NotContains(t, urls, WindowSetupRoles)
}

func TestAuthHandler_MenuNeedsNoWindowGrant(t *testing.T) {
	srv := newTestServer(t)
	srv.createUserWithGrant(t, "storekeeper@example.com", WindowRawMaterials, false, false)
	token := srv.login(t, "storekeeper@example.com", "password123")

	w := srv.do(t, http.MethodGet, WindowSetupWindows, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	nodes := gjson.Get(w.Body.String(), "data").Array()
	require.Len(t, nodes, 1)
	assert.Equal(t, "/production", nodes[0].Get("url").String())
	assert.False(t, nodes[0].Get("permission.can_access").Bool())

	children := nodes[0].Get("children").Array()
	require.Len(t, children, 1)
	assert.Equal(t, WindowRawMaterials, children[0].Get("url").String())
	assert.True(t, children[0].Get("permission.can_access").Bool())
	assert.False(t, children[0].Get("permission.can_edit").Bool())

	// The grant editor list stays behind the roles window.
	w = srv.do(t, http.MethodGet, WindowSetupRoles+"/windows", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRoleHandler_ListWindows(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, adminEmail, adminPassword)

	w := srv.do(t, http.MethodGet, WindowSetupRoles+"/windows", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Greater(t, len(gjson.Get(w.Body.String(), "data").Array()), 1)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", gjson.Get(w.Body.String(), "data.status").String())
}
