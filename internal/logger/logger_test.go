package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/manufacturing-backoffice/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, level("DEBUG"))
	require.Equal(t, zapcore.WarnLevel, level("warn"))
	require.Equal(t, zapcore.InfoLevel, level("nonsense"))
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	log, err := New(config.LoggerConfig{Output: "file", FilePath: path, Format: "console"})
	require.NoError(t, err)

	log.Info("hello")
	require.NoError(t, log.Sync())
	require.FileExists(t, path)
}
