package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func (e *testEnv) login(t *testing.T, email, password string) *LoginResult {
	t.Helper()
	svc := NewAuthService(e.repos, e.tokens, e.sessions, zap.NewNop())
	result, err := svc.Login(e.ctx, LoginInput{Email: email, Password: password})
	require.NoError(t, err)
	return result
}

func (e *testEnv) createLoginUser(t *testing.T, email, password string) string {
	t.Helper()
	user := e.createUser(t, "Login User", email, false, nil)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, e.repos.DB().Model(user).UpdateColumn("password_hash", string(hash)).Error)
	return user.ID
}

func TestLogin_RejectsWrongPasswordAndInactiveUsers(t *testing.T) {
	env := setupEnv(t)
	svc := NewAuthService(env.repos, env.tokens, env.sessions, zap.NewNop())
	userID := env.createLoginUser(t, "staff@example.com", "correct-horse")

	_, err := svc.Login(env.ctx, LoginInput{Email: "staff@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(env.ctx, LoginInput{Email: "nobody@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	result, err := svc.Login(env.ctx, LoginInput{Email: " STAFF@example.com ", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, userID, result.User.ID)

	require.NoError(t, env.repos.DB().Exec("UPDATE users SET is_active = ? WHERE id = ?", false, userID).Error)
	_, err = svc.Login(env.ctx, LoginInput{Email: "staff@example.com", Password: "correct-horse"})
	assert.Error(t, err)
}

func TestValidate_CachesUserLookupUntilTTL(t *testing.T) {
	env := setupEnv(t)
	userID := env.createLoginUser(t, "staff@example.com", "correct-horse")
	login := env.login(t, "staff@example.com", "correct-horse")

	sess, err := env.sessions.Validate(env.ctx, login.Token, false)
	require.NoError(t, err)
	assert.Equal(t, userID, sess.User.ID)

	require.NoError(t, env.repos.DB().Exec("UPDATE users SET is_active = ? WHERE id = ?", false, userID).Error)

	_, err = env.sessions.Validate(env.ctx, login.Token, false)
	require.NoError(t, err, "cached validation is served within the TTL")

	_, err = env.sessions.Validate(env.ctx, login.Token, true)
	assert.ErrorIs(t, err, ErrUserInactive, "bypass forces a fresh lookup")
}

func TestValidate_RefetchesAfterTTL(t *testing.T) {
	env := setupEnv(t)
	userID := env.createLoginUser(t, "staff@example.com", "correct-horse")
	login := env.login(t, "staff@example.com", "correct-horse")

	_, err := env.sessions.Validate(env.ctx, login.Token, false)
	require.NoError(t, err)

	user, err := env.repos.Users.FindByID(env.ctx, userID)
	require.NoError(t, err)
	require.NoError(t, env.repos.Users.Delete(env.ctx, audit.System, user, "left"))

	env.clock.Advance(4 * time.Minute)
	_, err = env.sessions.Validate(env.ctx, login.Token, false)
	require.NoError(t, err)

	env.clock.Advance(time.Minute)
	_, err = env.sessions.Validate(env.ctx, login.Token, false)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestValidate_ForgetDropsCachedSessions(t *testing.T) {
	env := setupEnv(t)
	userID := env.createLoginUser(t, "staff@example.com", "correct-horse")
	login := env.login(t, "staff@example.com", "correct-horse")

	_, err := env.sessions.Validate(env.ctx, login.Token, false)
	require.NoError(t, err)
	assert.Equal(t, 1, env.cache.Len())

	require.NoError(t, env.repos.DB().Exec("UPDATE users SET is_active = ? WHERE id = ?", false, userID).Error)
	env.sessions.Forget()
	assert.Equal(t, 0, env.cache.Len())

	_, err = env.sessions.Validate(env.ctx, login.Token, false)
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestLogout_RevokesTokenEvenWhenCached(t *testing.T) {
	env := setupEnv(t)
	env.createLoginUser(t, "staff@example.com", "correct-horse")
	login := env.login(t, "staff@example.com", "correct-horse")
	svc := NewAuthService(env.repos, env.tokens, env.sessions, zap.NewNop())

	sess, err := env.sessions.Validate(env.ctx, login.Token, false)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(env.ctx, sess))

	_, err = env.sessions.Validate(env.ctx, login.Token, false)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestValidate_RejectsGarbageToken(t *testing.T) {
	env := setupEnv(t)
	_, err := env.sessions.Validate(env.ctx, "not-a-token", false)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}
