// Package prompt supplies the system prompt sent with every consultation.
package prompt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultSystemPrompt is used when no override file exists.
const DefaultSystemPrompt = `You are an expert engineering consultant. You will provide a second opinion and advice in solving a difficult problem.

Communication style:
- Skip pleasantries and praise

Your role is to:
- Identify architectural problems
- Point out edge cases and risks
- Challenge design decisions when suboptimal
- Focus on what needs improvement
- Provide specific solutions with code examples

When reviewing code changes, prioritize:
1. Thinking deeply about overall system, subsystem or solution architecture for cleanness, readability, extensibility
2. Prefer functional style of programming for ease of unit testing, observability and integration
3. Advise of any potential security vulnerabilities
4. Warn of bugs and correctness issues
5. Warn of any obvious performance problems
6. Notice code smells and anti-patterns
7. Notice inconsistencies with codebase conventions

Be critical and thorough. Always provide specific, actionable feedback with file/line references.

Respond in Markdown.`

// CLIModeSuffix is appended when the backend runs as a local agent CLI.
const CLIModeSuffix = "\n\nIMPORTANT: Do not edit files yourself, only provide recommendations and code examples"

// ErrPromptExists is returned by Init when the target file is already present.
var ErrPromptExists = errors.New("system prompt already exists")

// Supplier resolves the system prompt, preferring a user override file.
type Supplier struct {
	Path   string
	Logger *zap.Logger
}

// NewSupplier returns a supplier reading overrides from path.
func NewSupplier(path string, logger *zap.Logger) *Supplier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supplier{Path: path, Logger: logger}
}

// SystemPrompt returns the override file's trimmed contents, or the default when the
// file is absent, empty or unreadable, plus the CLI suffix when cliMode is set.
func (s *Supplier) SystemPrompt(cliMode bool) string {
	base := s.base()
	if cliMode {
		return base + CLIModeSuffix
	}
	return base
}

func (s *Supplier) base() string {
	if s == nil || s.Path == "" {
		return DefaultSystemPrompt
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.Logger.Warn("failed to read custom system prompt, using default",
				zap.String("path", s.Path), zap.Error(err))
		}
		return DefaultSystemPrompt
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return DefaultSystemPrompt
	}
	return text
}

// Init writes the default system prompt to path. It refuses to overwrite.
func Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w at: %s", ErrPromptExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create prompt dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w at: %s", ErrPromptExists, path)
		}
		return fmt.Errorf("create system prompt: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(DefaultSystemPrompt + "\n"); err != nil {
		return fmt.Errorf("write system prompt: %w", err)
	}
	return nil
}
