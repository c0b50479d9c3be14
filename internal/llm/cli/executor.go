package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jerzydziewierz/second-opinion/internal/llm"
	"github.com/jerzydziewierz/second-opinion/internal/process"
)

// Executor runs prompts through a backend CLI.
type Executor struct {
	spec    Spec
	runner  process.Runner
	logger  *zap.Logger
	timeout time.Duration
	dir     string
	environ func() []string
}

// Option customises an Executor.
type Option func(*Executor)

// WithTimeout kills the CLI after d. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// WithWorkingDir sets the directory file references are made relative to.
// Defaults to the process working directory at execution time.
func WithWorkingDir(dir string) Option {
	return func(e *Executor) { e.dir = dir }
}

// WithEnviron replaces os.Environ as the base of the child environment.
func WithEnviron(fn func() []string) Option {
	return func(e *Executor) { e.environ = fn }
}

// NewExecutor builds a CLI executor for spec.
func NewExecutor(spec Spec, runner process.Runner, logger *zap.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Executor{spec: spec, runner: runner, logger: logger, environ: os.Environ}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the CLI once and returns its trimmed stdout. Usage is never reported.
func (e *Executor) Execute(ctx context.Context, req llm.Request) (llm.Response, error) {
	cwd := e.dir
	if cwd == "" {
		cwd, _ = os.Getwd()
	}
	full := BuildFullPrompt(req.SystemPrompt, req.Prompt, req.FilePaths, cwd)
	args := e.spec.BuildArgs(req.Model, full)

	log := e.logger.With(zap.String("cli", e.spec.Binary), zap.String("model", req.Model))
	log.Debug("spawning backend cli",
		zap.Int("args", len(args)),
		zap.Int("prompt_len", len(full)),
		zap.Int("files", len(req.FilePaths)),
	)

	res, err := e.runner.Run(ctx, process.Command{
		Name:    e.spec.Binary,
		Args:    args,
		Dir:     e.dir,
		Env:     DeriveEnv(e.environ(), e.spec.StripEnv, e.spec.InjectEnv),
		Timeout: e.timeout,
	})
	log.Debug("backend cli finished",
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("duration", res.Duration),
		zap.Int("stdout_len", len(res.Stdout)),
		zap.Int("stderr_len", len(res.Stderr)),
		zap.Error(err),
	)
	if err != nil {
		return llm.Response{}, e.classify(err)
	}
	return llm.Response{Text: strings.TrimSpace(res.Stdout)}, nil
}

func (e *Executor) classify(err error) error {
	var exitErr *process.ExitError
	switch {
	case errors.As(err, &exitErr):
		return e.spec.ClassifyExit(exitErr.Code, exitErr.Stderr)
	case errors.Is(err, process.ErrInvalidCommand):
		return fmt.Errorf("%w: synchronous error while spawning %s CLI: %v", llm.ErrInvalidCommand, e.spec.Binary, err)
	case errors.Is(err, process.ErrSpawn), errors.Is(err, process.ErrNotAllowed):
		return &llm.SpawnError{Backend: e.spec.Binary, Err: err}
	default:
		return fmt.Errorf("%s CLI: %w", e.spec.Backend, err)
	}
}
