package process

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecCapturesStdout(t *testing.T) {
	requireShell(t)
	r := &Exec{Allowed: []string{"sh"}}

	res, err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "printf hi; printf oops >&2"}})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", res.ExitCode)
	}
	if res.Stdout != "hi" || res.Stderr != "oops" {
		t.Fatalf("unexpected output stdout=%q stderr=%q", res.Stdout, res.Stderr)
	}
}

func TestExecNonZeroExit(t *testing.T) {
	requireShell(t)
	r := &Exec{}

	_, err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo quota >&2; exit 3"}})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != 3 || strings.TrimSpace(exitErr.Stderr) != "quota" {
		t.Fatalf("unexpected exit error %+v", exitErr)
	}
}

func TestExecSpawnFailure(t *testing.T) {
	r := &Exec{}
	_, err := r.Run(context.Background(), Command{Name: "definitely-not-a-real-binary-4242"})
	if !errors.Is(err, ErrSpawn) {
		t.Fatalf("expected ErrSpawn, got %v", err)
	}
}

func TestExecRejectsInvalidCommandBeforeSpawn(t *testing.T) {
	r := &Exec{}
	cases := []Command{
		{Name: ""},
		{Name: "echo", Args: []string{"a\x00b"}},
		{Name: "echo", Env: []string{"K=\x00"}},
	}
	for _, c := range cases {
		if _, err := r.Run(context.Background(), c); !errors.Is(err, ErrInvalidCommand) {
			t.Fatalf("expected ErrInvalidCommand for %+v, got %v", c, err)
		}
	}
}

func TestExecDenied(t *testing.T) {
	r := &Exec{Allowed: []string{"git"}, Denied: []string{"rm"}}
	if _, err := r.Run(context.Background(), Command{Name: "rm", Args: []string{"-rf", "/"}}); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected deny error, got %v", err)
	}
	if _, err := r.Run(context.Background(), Command{Name: "curl"}); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected allowlist error, got %v", err)
	}
}

func TestExecOutputLimit(t *testing.T) {
	requireShell(t)
	r := &Exec{}
	res, err := r.Run(context.Background(), Command{
		Name:           "sh",
		Args:           []string{"-c", "printf 0123456789"},
		MaxOutputBytes: 4,
	})
	if !errors.Is(err, ErrOutputLimit) {
		t.Fatalf("expected ErrOutputLimit, got %v", err)
	}
	if res.Stdout != "0123" {
		t.Fatalf("expected truncated stdout, got %q", res.Stdout)
	}
}

func TestExecTimeout(t *testing.T) {
	requireShell(t)
	r := &Exec{}
	_, err := r.Run(context.Background(), Command{
		Name:    "sh",
		Args:    []string{"-c", "sleep 5"},
		Timeout: 100 * time.Millisecond,
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestExecPassesEnv(t *testing.T) {
	requireShell(t)
	r := &Exec{}
	res, err := r.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", `printf "$ONLY_VAR"`},
		Env:  []string{"ONLY_VAR=present"},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Stdout != "present" {
		t.Fatalf("expected env passthrough, got %q", res.Stdout)
	}
}
