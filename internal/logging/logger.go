package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger based on level/format settings.
// Output is "stderr" (default), "stdout" or a file path; stdout is never used by the
// stdio transport so callers serving MCP must keep it off.
func NewLogger(level, format, output string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.Set(strings.ToLower(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch strings.ToLower(format) {
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		format = "console"
	}

	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.Encoding = strings.ToLower(format)

	sink := strings.TrimSpace(output)
	if sink == "" {
		sink = "stderr"
	}
	if sink != "stderr" && sink != "stdout" {
		if err := os.MkdirAll(filepath.Dir(sink), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	cfg.OutputPaths = []string{sink}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}

// DefaultLogFile returns the state-dir log location ($XDG_STATE_HOME/second-opinion/mcp.log).
func DefaultLogFile() (string, error) {
	base := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "second-opinion", "mcp.log"), nil
}
