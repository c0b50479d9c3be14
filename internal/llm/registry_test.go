package llm_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jerzydziewierz/second-opinion/internal/llm"
	llmmock "github.com/jerzydziewierz/second-opinion/internal/llm/mock"
)

func TestRegistryCachesByProviderModelMode(t *testing.T) {
	factory := &llmmock.Factory{}
	reg := llm.NewRegistry(factory)

	route := llm.Route{ID: "gemini", Model: "gemini-3-pro-preview", Provider: llm.ProviderGemini, Mode: llm.ModeCLI}
	first, err := reg.Executor(route)
	require.NoError(t, err)
	second, err := reg.Executor(route)
	require.NoError(t, err)
	require.Same(t, first, second)

	apiRoute := route
	apiRoute.Mode = llm.ModeAPI
	third, err := reg.Executor(apiRoute)
	require.NoError(t, err)
	require.NotSame(t, first, third)

	require.Len(t, factory.Routes(), 2)
	require.Equal(t, 2, reg.Len())
}

func TestRegistryDoesNotCacheFailures(t *testing.T) {
	var calls int32
	reg := llm.NewRegistry(llm.FactoryFunc(func(route llm.Route) (llm.Executor, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, llm.MissingCredentialError("OPENAI_API_KEY", "OpenAI")
		}
		return &llmmock.Executor{}, nil
	}))
	route := llm.Route{Model: "gpt-5.3-codex", Provider: llm.ProviderOpenAI, Mode: llm.ModeAPI}

	_, err := reg.Executor(route)
	require.True(t, errors.Is(err, llm.ErrMissingCredential))
	require.Contains(t, err.Error(), "OPENAI_API_KEY environment variable is required for OpenAI models in API mode")

	_, err = reg.Executor(route)
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRegistryConcurrentFirstUseBuildsOnce(t *testing.T) {
	var calls int32
	reg := llm.NewRegistry(llm.FactoryFunc(func(route llm.Route) (llm.Executor, error) {
		atomic.AddInt32(&calls, 1)
		return &llmmock.Executor{}, nil
	}))
	route := llm.Route{Model: "claude-opus-4-6", Provider: llm.ProviderClaude, Mode: llm.ModeCLI}

	var wg sync.WaitGroup
	results := make([]llm.Executor, 16)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = reg.Executor(route)
		}(i)
	}
	wg.Wait()

	for i, exec := range results {
		require.NoError(t, errs[i])
		require.Same(t, results[0], exec)
	}
	require.Equal(t, 1, reg.Len())
}

func TestCalculateCost(t *testing.T) {
	cost := llm.CalculateCost("gemini-3-pro-preview", &llm.Usage{PromptTokens: 1_000_000, CompletionTokens: 500_000})
	require.InDelta(t, 2.0, cost.Input, 1e-9)
	require.InDelta(t, 6.0, cost.Output, 1e-9)
	require.InDelta(t, 8.0, cost.Total, 1e-9)

	require.Equal(t, llm.Cost{}, llm.CalculateCost("gpt-5.3-codex", &llm.Usage{PromptTokens: 10}))
	require.Equal(t, llm.Cost{}, llm.CalculateCost("gemini-3-pro-preview", nil))
}

func TestErrorMessages(t *testing.T) {
	exitErr := &llm.ExitError{Backend: "Codex", Code: 2, Stderr: "boom\n"}
	require.Equal(t, "Codex CLI exited with code 2. Error: boom", exitErr.Error())
	require.ErrorIs(t, exitErr, llm.ErrNonZeroExit)

	quota := &llm.QuotaError{ExitError: llm.ExitError{Backend: "Gemini", Code: 1, Stderr: "RESOURCE_EXHAUSTED: quota exceeded"}}
	require.ErrorIs(t, quota, llm.ErrQuotaExhausted)
	require.ErrorIs(t, quota, llm.ErrNonZeroExit)
	require.Contains(t, quota.Error(), "Gemini quota exceeded")

	spawn := &llm.SpawnError{Backend: "codex", Err: errors.New("not found")}
	require.Equal(t, "Failed to spawn codex CLI. Is it installed and in PATH? Error: not found", spawn.Error())
	require.ErrorIs(t, spawn, llm.ErrSpawnFailed)
}
