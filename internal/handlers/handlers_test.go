package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/auth"
	"github.com/yukikurage/manufacturing-backoffice/internal/config"
	"github.com/yukikurage/manufacturing-backoffice/internal/database"
	"github.com/yukikurage/manufacturing-backoffice/internal/mailer"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/numbering"
	"github.com/yukikurage/manufacturing-backoffice/internal/repository"
	"github.com/yukikurage/manufacturing-backoffice/internal/services"
	"github.com/yukikurage/manufacturing-backoffice/internal/session"
	"github.com/yukikurage/manufacturing-backoffice/internal/testutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin12345"
	testSecret    = "test-secret-key-with-at-least-32-characters"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	repos  *repository.Repositories
	ctx    context.Context
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.NewDB(t)
	logger := zap.NewNop()
	stamper := audit.NewStamper(logger)
	repos := repository.New(db, stamper)
	ctx := context.Background()

	require.NoError(t, database.Seed(ctx, db, stamper, config.SuperAdminConfig{
		Name:     "Administrator",
		Email:    adminEmail,
		Password: adminPassword,
	}, logger))

	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	cache := session.NewValidationCache[*services.Session](session.DefaultTTL, time.Now)
	sessions := services.NewSessionService(repos, tokens, auth.NewMemoryRevocationStore(), cache, logger)
	notifier := services.NewStockNotifier(repos, mailer.NewLogMailer(logger), nil, logger, services.NotifierConfig{})
	generator := numbering.NewGenerator()

	router := NewRouter(Deps{
		DB:             db,
		Auth:           services.NewAuthService(repos, tokens, sessions, logger),
		Sessions:       sessions,
		Permissions:    services.NewPermissionService(repos, logger),
		Roles:          services.NewRoleService(repos, sessions, logger),
		Users:          services.NewUserService(repos, sessions),
		Organizations:  services.NewOrganizationService(repos),
		Orders:         services.NewOrderService(repos, notifier, logger),
		WorkOrders:     services.NewWorkOrderService(repos, generator, "WO", nil, logger),
		DeliveryOrders: services.NewDeliveryOrderService(repos, generator, "DO", nil, logger),
		RawMaterials:   services.NewRawMaterialService(repos, notifier),
		StockThreshold: 500,
		Logger:         logger,
	})

	return &testServer{router: router, repos: repos, ctx: ctx}
}

// do sends a JSON request and returns the recorder.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := gjson.Get(w.Body.String(), "data.token").String()
	require.NotEmpty(t, token)
	return token
}

// createUserWithGrant creates a user whose role only has the given grant on url.
func (s *testServer) createUserWithGrant(t *testing.T, email, url string, edit, admin bool) *models.User {
	t.Helper()

	role := &models.Role{Name: "Role for " + email}
	require.NoError(t, s.repos.Roles.Create(s.ctx, audit.System, role))

	window, err := s.repos.Windows.FindByURL(s.ctx, url)
	require.NoError(t, err)
	require.NoError(t, s.repos.Stamper().Create(s.ctx, s.repos.DB(), audit.System, &models.RoleWindow{
		RoleID:   role.ID,
		WindowID: window.ID,
		IsEdit:   edit,
		IsAdmin:  admin,
	}))

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Name:         email,
		Email:        &email,
		PasswordHash: string(hash),
		RoleID:       &role.ID,
		IsActive:     true,
	}
	require.NoError(t, s.repos.Users.Create(s.ctx, audit.System, user))
	return user
}
