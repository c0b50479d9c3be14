// Package process runs external executables with discrete arguments and captures their output.
package process

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrInvalidCommand reports a command rejected before any spawn attempt.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrNotAllowed reports a command outside the allow list or on the deny list.
	ErrNotAllowed = errors.New("command not allowed")
	// ErrSpawn reports a process that could not be started.
	ErrSpawn = errors.New("spawn failed")
	// ErrOutputLimit reports a stream that exceeded Command.MaxOutputBytes.
	ErrOutputLimit = errors.New("output exceeds limit")
	// ErrTimeout reports a process killed after Command.Timeout elapsed.
	ErrTimeout = errors.New("timed out")
)

// Command describes a single subprocess invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env is the complete child environment; nil inherits the parent's.
	Env []string
	// Timeout kills the process after the given duration; zero means no limit.
	Timeout time.Duration
	// MaxOutputBytes bounds each captured stream; zero means unbounded.
	MaxOutputBytes int
}

// Result carries captured output and status code.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// ExitError reports a process that ran and exited with a non-zero code.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Name, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Exec runs commands as real subprocesses with allow/deny checks.
type Exec struct {
	Allowed []string
	Denied  []string
}

// Run starts the command, waits for it and classifies the outcome. Stdin is closed.
// Cancelling ctx kills the process.
func (e *Exec) Run(ctx context.Context, c Command) (Result, error) {
	if err := validate(c); err != nil {
		return Result{}, err
	}
	if err := e.checkAllowed(c.Name); err != nil {
		return Result{}, err
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.WaitDelay = time.Second

	stdout := &limitedBuffer{limit: c.MaxOutputBytes}
	stderr := &limitedBuffer{limit: c.MaxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("%w: %s: %w", ErrSpawn, c.Name, err)
	}
	waitErr := cmd.Wait()

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) && c.Timeout > 0 {
			return res, fmt.Errorf("%s %w after %s", c.Name, ErrTimeout, c.Timeout)
		}
		return res, ctxErr
	}
	if stdout.exceeded || stderr.exceeded {
		return res, fmt.Errorf("%s: %w of %d bytes", c.Name, ErrOutputLimit, c.MaxOutputBytes)
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return res, &ExitError{Name: c.Name, Code: exitErr.ExitCode(), Stderr: res.Stderr}
	}
	if waitErr != nil {
		return res, fmt.Errorf("wait for %s: %w", c.Name, waitErr)
	}
	return res, nil
}

func validate(c Command) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: executable name is required", ErrInvalidCommand)
	}
	if strings.ContainsRune(c.Name, 0) {
		return fmt.Errorf("%w: executable name contains NUL byte", ErrInvalidCommand)
	}
	for i, arg := range c.Args {
		if strings.ContainsRune(arg, 0) {
			return fmt.Errorf("%w: argument %d contains NUL byte", ErrInvalidCommand, i)
		}
	}
	for _, kv := range c.Env {
		if strings.ContainsRune(kv, 0) {
			return fmt.Errorf("%w: environment entry contains NUL byte", ErrInvalidCommand)
		}
	}
	return nil
}

func (e *Exec) checkAllowed(name string) error {
	lower := strings.ToLower(name)
	for _, deny := range e.Denied {
		if lower == strings.ToLower(deny) {
			return fmt.Errorf("%w: %q is denied", ErrNotAllowed, name)
		}
	}
	if len(e.Allowed) > 0 {
		for _, allow := range e.Allowed {
			if lower == strings.ToLower(allow) {
				return nil
			}
		}
		return fmt.Errorf("%w: %q is not in allowlist", ErrNotAllowed, name)
	}
	return nil
}
