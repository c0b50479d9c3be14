package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mcp.log")

	logger, err := NewLogger("info", "json", path)
	require.NoError(t, err)
	logger.Info("tool call")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"tool call"`)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger("chatty", "console", "stderr")
	require.Error(t, err)
}

func TestDefaultLogFileHonoursXDG(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	path, err := DefaultLogFile()
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/tmp/state", "second-opinion", "mcp.log"), path)
}
