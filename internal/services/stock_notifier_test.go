package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/manufacturing-backoffice/internal/audit"
	"github.com/yukikurage/manufacturing-backoffice/internal/mailer"
)

func TestNotifyAll_FlagsCriticalAndWarningMaterials(t *testing.T) {
	env := setupEnv(t)
	env.createMaterial(t, "Resin", 50)
	env.createMaterial(t, "Steel", 600)
	env.createMaterial(t, "Glue", 499)
	env.createUser(t, "Stock Keeper", "keeper@example.com", true, nil)
	env.createUser(t, "Bystander", "bystander@example.com", false, nil)

	report, err := env.notifier.NotifyAll(env.ctx, 500)
	require.NoError(t, err)

	require.Len(t, report.Materials, 2)
	critical := map[string]bool{}
	for _, m := range report.Materials {
		critical[m.Name] = m.Critical
	}
	assert.Equal(t, map[string]bool{"Resin": true, "Glue": false}, critical)

	assert.False(t, report.Fallback)
	assert.Equal(t, []string{"keeper@example.com"}, report.Recipients)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 0, report.Failed)

	require.Len(t, env.mailer.sent, 1)
	msg := env.mailer.sent[0]
	assert.Equal(t, mailer.LowStockSubject, msg.Subject)
	assert.Contains(t, msg.HTML, "Resin")
	assert.Contains(t, msg.HTML, "CRITICAL")
	assert.Contains(t, msg.HTML, "Glue")
	assert.NotContains(t, msg.HTML, "Steel")
}

func TestNotifyAll_NothingBelowThresholdSendsNothing(t *testing.T) {
	env := setupEnv(t)
	env.createMaterial(t, "Steel", 600)
	env.createUser(t, "Stock Keeper", "keeper@example.com", true, nil)

	report, err := env.notifier.NotifyAll(env.ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, float64(500), report.Threshold)
	assert.Empty(t, report.Materials)
	assert.Empty(t, report.Recipients)
	assert.Empty(t, env.mailer.sent)
}

func TestNotifyAll_FallsBackToFirstUsersWithEmail(t *testing.T) {
	env := setupEnv(t)
	env.createMaterial(t, "Resin", 10)
	env.createUser(t, "No Email", "", true, nil)
	for i := 0; i < 12; i++ {
		env.createUser(t, fmt.Sprintf("User %d", i), fmt.Sprintf("user%02d@example.com", i), false, nil)
	}

	report, err := env.notifier.NotifyAll(env.ctx, 500)
	require.NoError(t, err)

	assert.True(t, report.Fallback)
	assert.Len(t, report.Recipients, 10)
	assert.Equal(t, 10, report.Sent)
	assert.Len(t, env.mailer.sent, 10)
}

func TestNotifyAll_IsolatesRecipientFailures(t *testing.T) {
	env := setupEnv(t)
	env.createMaterial(t, "Resin", 10)
	env.createUser(t, "A", "a@example.com", true, nil)
	env.createUser(t, "B", "b@example.com", true, nil)
	env.createUser(t, "C", "c@example.com", true, nil)
	env.mailer.fail["b@example.com"] = errors.New("mailbox unavailable")

	report, err := env.notifier.NotifyAll(env.ctx, 500)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"b@example.com"}, report.FailedRecipients)
	assert.ElementsMatch(t, []string{"a@example.com", "c@example.com"}, env.mailer.recipients())

	var failed []Delivery
	for _, d := range report.Deliveries {
		if d.Error != "" {
			failed = append(failed, d)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, "mailbox unavailable", failed[0].Error)
}

func TestNotifyAll_DeduplicatesRecipientsByEmail(t *testing.T) {
	env := setupEnv(t)
	env.createMaterial(t, "Resin", 10)
	env.createUser(t, "A", "shared@example.com", true, nil)
	dup := env.createUser(t, "B", "other@example.com", true, nil)
	upper := "SHARED@example.com"
	dup.Email = &upper
	require.NoError(t, env.repos.DB().Model(dup).UpdateColumn("email", upper).Error)

	report, err := env.notifier.NotifyAll(env.ctx, 500)
	require.NoError(t, err)
	assert.Len(t, report.Recipients, 1)
	assert.Equal(t, 1, report.Sent)
}

func TestNotifyMaterials_ChecksOnlyGivenMaterials(t *testing.T) {
	env := setupEnv(t)
	resin := env.createMaterial(t, "Resin", 10)
	env.createMaterial(t, "Glue", 20)
	steel := env.createMaterial(t, "Steel", 900)
	env.createUser(t, "Keeper", "keeper@example.com", true, nil)

	report, err := env.notifier.NotifyMaterials(env.ctx, []string{resin.ID, steel.ID, resin.ID})
	require.NoError(t, err)

	require.Len(t, report.Materials, 1)
	assert.Equal(t, "Resin", report.Materials[0].Name)
	assert.Equal(t, 1, report.Sent)
}

func TestNotifyAll_SkipsDeletedMaterialsAndUsers(t *testing.T) {
	env := setupEnv(t)
	resin := env.createMaterial(t, "Resin", 10)
	keeper := env.createUser(t, "Keeper", "keeper@example.com", true, nil)
	env.createUser(t, "Backup", "backup@example.com", false, nil)
	require.NoError(t, env.repos.Users.Delete(env.ctx, audit.System, keeper, "left"))

	report, err := env.notifier.NotifyAll(env.ctx, 500)
	require.NoError(t, err)
	assert.True(t, report.Fallback)
	assert.Equal(t, []string{"backup@example.com"}, report.Recipients)

	require.NoError(t, env.repos.RawMaterials.Delete(env.ctx, audit.System, resin, "obsolete"))
	report, err = env.notifier.NotifyAll(env.ctx, 500)
	require.NoError(t, err)
	assert.Empty(t, report.Materials)
}
