package cli

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/jerzydziewierz/second-opinion/internal/llm"
)

func TestBuildArgsPerProvider(t *testing.T) {
	cases := []struct {
		provider llm.ProviderID
		opts     SpecOptions
		model    string
		binary   string
		want     []string
	}{
		{
			provider: llm.ProviderGemini,
			model:    "gemini-3-pro-preview",
			binary:   "gemini",
			want:     []string{"-m", "gemini-3-pro-preview", "-p", "P"},
		},
		{
			provider: llm.ProviderOpenAI,
			model:    "gpt-5.3-codex",
			binary:   "codex",
			want:     []string{"exec", "--skip-git-repo-check", "-m", "gpt-5.3-codex", "P"},
		},
		{
			provider: llm.ProviderOpenAI,
			opts:     SpecOptions{ReasoningEffort: "high"},
			model:    "gpt-5.3-codex",
			binary:   "codex",
			want:     []string{"exec", "--skip-git-repo-check", "-m", "gpt-5.3-codex", "-c", `model_reasoning_effort="high"`, "P"},
		},
		{
			provider: llm.ProviderClaude,
			model:    "claude-opus-4-6",
			binary:   "claude",
			want:     []string{"--print", "--model", "claude-opus-4-6", "P"},
		},
		{
			provider: llm.ProviderKiloCode,
			model:    "openrouter/moonshotai/kimi-k2.5",
			binary:   "kilo",
			want:     []string{"run", "-m", "openrouter/moonshotai/kimi-k2.5", "P"},
		},
		{
			provider: llm.ProviderOpenCode,
			model:    "opencode-default",
			binary:   "opencode",
			want:     []string{"run", "--print", "P"},
		},
	}

	for _, tc := range cases {
		spec, err := SpecFor(tc.provider, tc.opts)
		require.NoError(t, err)
		require.Equal(t, tc.binary, spec.Binary)
		if diff := cmp.Diff(tc.want, spec.BuildArgs(tc.model, "P")); diff != "" {
			t.Errorf("%s args mismatch (-want +got):\n%s", tc.provider, diff)
		}
	}
}

func TestSpecForUnknownProvider(t *testing.T) {
	_, err := SpecFor("llama", SpecOptions{})
	require.ErrorIs(t, err, llm.ErrUnknownProvider)
}

func TestGeminiQuotaClassification(t *testing.T) {
	spec, err := SpecFor(llm.ProviderGemini, SpecOptions{})
	require.NoError(t, err)

	quota := spec.ClassifyExit(1, "RESOURCE_EXHAUSTED: quota exceeded")
	require.True(t, errors.Is(quota, llm.ErrQuotaExhausted))
	require.Contains(t, quota.Error(), "Gemini quota exceeded")

	plain := spec.ClassifyExit(2, "network down\n")
	require.False(t, errors.Is(plain, llm.ErrQuotaExhausted))
	require.Equal(t, "Gemini CLI exited with code 2. Error: network down", plain.Error())
}

func TestDeriveEnv(t *testing.T) {
	base := []string{"PATH=/bin", "ANTHROPIC_API_KEY=secret", "OPENAI_API_KEY=from-parent", "EMPTY="}

	claude, err := SpecFor(llm.ProviderClaude, SpecOptions{})
	require.NoError(t, err)
	got := DeriveEnv(base, claude.StripEnv, claude.InjectEnv)
	if diff := cmp.Diff([]string{"PATH=/bin", "OPENAI_API_KEY=from-parent", "EMPTY="}, got); diff != "" {
		t.Errorf("claude env mismatch (-want +got):\n%s", diff)
	}

	codex, err := SpecFor(llm.ProviderOpenAI, SpecOptions{OpenAIKey: "configured"})
	require.NoError(t, err)
	got = DeriveEnv(base, codex.StripEnv, codex.InjectEnv)
	require.Contains(t, got, "OPENAI_API_KEY=from-parent")
	require.NotContains(t, got, "OPENAI_API_KEY=configured")

	gemini, err := SpecFor(llm.ProviderGemini, SpecOptions{GeminiKey: "g-key"})
	require.NoError(t, err)
	got = DeriveEnv(base, gemini.StripEnv, gemini.InjectEnv)
	require.Contains(t, got, "GEMINI_API_KEY=g-key")

	unset, err := SpecFor(llm.ProviderGemini, SpecOptions{})
	require.NoError(t, err)
	got = DeriveEnv([]string{"PATH=/bin"}, unset.StripEnv, unset.InjectEnv)
	require.Equal(t, []string{"PATH=/bin"}, got)
}

func TestBuildFullPrompt(t *testing.T) {
	require.Equal(t, "SYS\n\nQ", BuildFullPrompt("SYS", "Q", nil, "/repo"))

	got := BuildFullPrompt("SYS", "Q", []string{"/repo/a.ts", "/repo/src/b.ts"}, "/repo")
	require.Equal(t, "SYS\n\nQ\n\nFiles: @a.ts @src/b.ts", got)

	got = BuildFullPrompt("SYS", "Q", []string{"/other/c.go"}, "/repo")
	require.Equal(t, "SYS\n\nQ\n\nFiles: @../other/c.go", got)
}
