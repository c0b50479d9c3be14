package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrUnknownModelAlias = errors.New("unknown model alias")
	ErrNoEnabledModels   = errors.New("no enabled models")
	ErrSpawnFailed       = errors.New("spawn failed")
	ErrInvalidCommand    = errors.New("invalid backend command")
	ErrNonZeroExit       = errors.New("backend exited with non-zero status")
	ErrQuotaExhausted    = errors.New("quota exhausted")
	ErrEmptyResponse     = errors.New("no response from the model")
	ErrMissingCredential = errors.New("missing credential")
	ErrModeUnsupported   = errors.New("execution mode not supported")
)

// ExitError reports a backend CLI that exited with a non-zero code.
type ExitError struct {
	Backend string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s CLI exited with code %d. Error: %s", e.Backend, e.Code, strings.TrimSpace(e.Stderr))
}

// Is matches ErrNonZeroExit.
func (e *ExitError) Is(target error) bool {
	return target == ErrNonZeroExit
}

// QuotaError is an ExitError whose diagnostics show an exhausted quota.
type QuotaError struct {
	ExitError
	Hint string
}

func (e *QuotaError) Error() string {
	msg := fmt.Sprintf("%s quota exceeded.", e.Backend)
	if e.Hint != "" {
		msg += " " + e.Hint
	}
	return fmt.Sprintf("%s Error: %s", msg, strings.TrimSpace(e.Stderr))
}

// Is matches both ErrQuotaExhausted and ErrNonZeroExit.
func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExhausted || target == ErrNonZeroExit
}

// SpawnError reports a backend CLI that could not be started.
type SpawnError struct {
	Backend string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("Failed to spawn %s CLI. Is it installed and in PATH? Error: %v", e.Backend, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Is matches ErrSpawnFailed.
func (e *SpawnError) Is(target error) bool {
	return target == ErrSpawnFailed
}

// MissingCredentialError names the environment variable an API executor needs.
func MissingCredentialError(envVar, family string) error {
	return fmt.Errorf("%w: %s environment variable is required for %s models in API mode", ErrMissingCredential, envVar, family)
}
