package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: ${BACKOFFICE_TEST_PORT:9090}
database:
  type: sqlite
  dbname: ${BACKOFFICE_TEST_DB:data/test.db}
jwt:
  secret_key: "0123456789abcdef0123456789abcdef"
notification:
  stock_threshold: 250
`

func TestParse_ResolvesPlaceholdersAndDefaults(t *testing.T) {
	t.Setenv("BACKOFFICE_TEST_DB", "tmp/override.db")

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "tmp/override.db", cfg.Database.DBName)
	assert.Equal(t, 250.0, cfg.Notification.StockThreshold)
	assert.Equal(t, 100.0, cfg.Notification.CriticalThreshold)
	assert.Equal(t, 10, cfg.Notification.FallbackRecipients)
	assert.Equal(t, 5*time.Minute, cfg.Session.ValidationTTL)
	assert.Equal(t, "memory", cfg.Session.Revocation.Type)
	assert.Equal(t, "WO", cfg.Numbering.WorkOrderPrefix)
	assert.Equal(t, "DO", cfg.Numbering.DeliveryOrderCode)
}

func TestParse_RejectsUnknownDatabase(t *testing.T) {
	_, err := Parse([]byte("database:\n  type: oracle\njwt:\n  secret_key: 0123456789abcdef0123456789abcdef\n"))
	require.ErrorIs(t, err, ErrUnsupportedDatabase)
}

func TestParse_RejectsWeakSecret(t *testing.T) {
	_, err := Parse([]byte("database:\n  type: sqlite\njwt:\n  secret_key: short\n"))
	require.ErrorIs(t, err, ErrWeakJWTSecret)
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	mysql := DatabaseConfig{Type: "mysql", User: "u", Password: "p", Host: "db", Port: 3306, DBName: "bo"}
	assert.Equal(t, "u:p@tcp(db:3306)/bo?charset=utf8mb4&parseTime=True&loc=Local", mysql.GetDSN())

	pg := DatabaseConfig{Type: "postgres", User: "u", Password: "p", Host: "db", Port: 5432, DBName: "bo", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=bo sslmode=disable", pg.GetDSN())
}
