package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/auth"
	"github.com/yukikurage/manufacturing-backoffice/internal/mailer"
	"github.com/yukikurage/manufacturing-backoffice/internal/models"
	"github.com/yukikurage/manufacturing-backoffice/internal/repository"
	"github.com/yukikurage/manufacturing-backoffice/internal/session"
	"github.com/yukikurage/manufacturing-backoffice/internal/testutil"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 10, 5, 8, 30, 0, 0, time.UTC)

const testSecret = "test-secret-key-with-at-least-32-characters"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeMailer records messages and fails for the listed recipients.
type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	fail map[string]error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[msg.To]; err != nil {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, msg := range m.sent {
		out[i] = msg.To
	}
	return out
}

type testEnv struct {
	ctx      context.Context
	clock    *fakeClock
	repos    *repository.Repositories
	mailer   *fakeMailer
	notifier *StockNotifier
	tokens   *auth.TokenService
	revoked  *auth.MemoryRevocationStore
	sessions *SessionService
	cache    *session.ValidationCache[*Session]
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	clock := &fakeClock{now: testNow}
	stamper := audit.NewStamper(zap.NewNop(), audit.WithClock(clock.Now))
	repos := repository.New(db, stamper)

	m := &fakeMailer{fail: map[string]error{}}
	notifier := NewStockNotifier(repos, m, nil, zap.NewNop(), NotifierConfig{})

	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	revoked := auth.NewMemoryRevocationStore()
	cache := session.NewValidationCache[*Session](session.DefaultTTL, clock.Now)

	return &testEnv{
		ctx:      context.Background(),
		clock:    clock,
		repos:    repos,
		mailer:   m,
		notifier: notifier,
		tokens:   tokens,
		revoked:  revoked,
		sessions: NewSessionService(repos, tokens, revoked, cache, zap.NewNop()),
		cache:    cache,
	}
}

func (e *testEnv) createUser(t *testing.T, name, email string, notify bool, roleID *string) *models.User {
	t.Helper()
	user := &models.User{
		Name:                     name,
		PasswordHash:             "x",
		RoleID:                   roleID,
		IsActive:                 true,
		ReceiveStockNotification: notify,
	}
	if email != "" {
		user.Email = &email
	}
	require.NoError(t, e.repos.Users.Create(e.ctx, audit.System, user))
	return user
}

func (e *testEnv) createMaterial(t *testing.T, name string, stock float64) *models.RawMaterial {
	t.Helper()
	data, err := models.RawMaterialData(name, stock, "kg", nil)
	require.NoError(t, err)
	material := &models.RawMaterial{Data: data}
	require.NoError(t, e.repos.RawMaterials.Create(e.ctx, audit.System, material))
	return material
}

func (e *testEnv) createProduct(t *testing.T, name string) *models.Product {
	t.Helper()
	product := &models.Product{Name: name, Unit: "pcs"}
	require.NoError(t, e.repos.Products.Create(e.ctx, audit.System, product))
	return product
}

func (e *testEnv) createRole(t *testing.T, name string) *models.Role {
	t.Helper()
	role := &models.Role{Name: name}
	require.NoError(t, e.repos.Roles.Create(e.ctx, audit.System, role))
	return role
}

func (e *testEnv) createWindow(t *testing.T, name, url string, parentID *string, order int) *models.Window {
	t.Helper()
	window := &models.Window{Name: name, URL: url, ParentID: parentID, DisplayOrder: order}
	require.NoError(t, e.repos.Windows.Create(e.ctx, audit.System, window))
	return window
}
