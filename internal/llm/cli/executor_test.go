package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jerzydziewierz/second-opinion/internal/llm"
	"github.com/jerzydziewierz/second-opinion/internal/process"
)

type fakeRunner struct {
	result process.Result
	err    error
	calls  []process.Command
}

func (f *fakeRunner) Run(_ context.Context, cmd process.Command) (process.Result, error) {
	f.calls = append(f.calls, cmd)
	return f.result, f.err
}

func newTestExecutor(t *testing.T, provider llm.ProviderID, runner process.Runner) *Executor {
	t.Helper()
	spec, err := SpecFor(provider, SpecOptions{GeminiKey: "g-key"})
	require.NoError(t, err)
	return NewExecutor(spec, runner, nil,
		WithWorkingDir("/repo"),
		WithEnviron(func() []string { return []string{"PATH=/bin", "ANTHROPIC_API_KEY=secret"} }),
	)
}

func TestExecuteReturnsTrimmedStdout(t *testing.T) {
	runner := &fakeRunner{result: process.Result{Stdout: "  advice\n\n"}}
	exec := newTestExecutor(t, llm.ProviderGemini, runner)

	resp, err := exec.Execute(context.Background(), llm.Request{
		Prompt:       "Review this",
		Model:        "gemini-3-pro-preview",
		SystemPrompt: "SYS",
		FilePaths:    []string{"/repo/main.go"},
	})
	require.NoError(t, err)
	require.Equal(t, "advice", resp.Text)
	require.Nil(t, resp.Usage)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	require.Equal(t, "gemini", call.Name)
	require.Equal(t, []string{"-m", "gemini-3-pro-preview", "-p", "SYS\n\nReview this\n\nFiles: @main.go"}, call.Args)
	require.Contains(t, call.Env, "GEMINI_API_KEY=g-key")
	require.Contains(t, call.Env, "ANTHROPIC_API_KEY=secret")
}

func TestExecuteStripsAnthropicKeyForClaude(t *testing.T) {
	runner := &fakeRunner{result: process.Result{Stdout: "ok"}}
	exec := newTestExecutor(t, llm.ProviderClaude, runner)

	_, err := exec.Execute(context.Background(), llm.Request{Prompt: "Q", Model: "claude-opus-4-6", SystemPrompt: "S"})
	require.NoError(t, err)
	require.Equal(t, []string{"PATH=/bin"}, runner.calls[0].Env)
}

func TestExecuteClassifiesNonZeroExit(t *testing.T) {
	runner := &fakeRunner{err: &process.ExitError{Name: "codex", Code: 2, Stderr: "boom"}}
	exec := newTestExecutor(t, llm.ProviderOpenAI, runner)

	_, err := exec.Execute(context.Background(), llm.Request{Prompt: "Q", Model: "gpt-5.3-codex"})
	require.ErrorIs(t, err, llm.ErrNonZeroExit)
	require.EqualError(t, err, "Codex CLI exited with code 2. Error: boom")
}

func TestExecuteClassifiesQuota(t *testing.T) {
	runner := &fakeRunner{err: &process.ExitError{Name: "gemini", Code: 1, Stderr: "RESOURCE_EXHAUSTED: quota exceeded"}}
	exec := newTestExecutor(t, llm.ProviderGemini, runner)

	_, err := exec.Execute(context.Background(), llm.Request{Prompt: "Q", Model: "gemini-3-pro-preview"})
	require.ErrorIs(t, err, llm.ErrQuotaExhausted)
}

func TestExecuteClassifiesSpawnFailure(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("%w: codex: not found", process.ErrSpawn)}
	exec := newTestExecutor(t, llm.ProviderOpenAI, runner)

	_, err := exec.Execute(context.Background(), llm.Request{Prompt: "Q", Model: "gpt-5.3-codex"})
	require.ErrorIs(t, err, llm.ErrSpawnFailed)
	require.Contains(t, err.Error(), "Failed to spawn codex CLI. Is it installed and in PATH?")
}

func TestExecuteClassifiesInvalidCommand(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("%w: argument 3 contains NUL byte", process.ErrInvalidCommand)}
	exec := newTestExecutor(t, llm.ProviderClaude, runner)

	_, err := exec.Execute(context.Background(), llm.Request{Prompt: "Q", Model: "claude-opus-4-6"})
	require.ErrorIs(t, err, llm.ErrInvalidCommand)
	require.False(t, errors.Is(err, llm.ErrSpawnFailed))
}

func TestExecuteWithRealProcess(t *testing.T) {
	spec := Spec{
		Backend: "Echo",
		Binary:  "sh",
		BuildArgs: func(_, prompt string) []string {
			return []string{"-c", `printf '%s' "$1"`, "sh", prompt}
		},
		ClassifyExit: exitClassifier("Echo"),
	}
	exec := NewExecutor(spec, &process.Exec{Allowed: []string{"sh"}}, nil)

	resp, err := exec.Execute(context.Background(), llm.Request{Prompt: "Q", SystemPrompt: "S"})
	if errors.Is(err, llm.ErrSpawnFailed) {
		t.Skip("sh not available")
	}
	require.NoError(t, err)
	require.Equal(t, "S\n\nQ", resp.Text)
}
