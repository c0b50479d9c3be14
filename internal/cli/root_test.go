package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jerzydziewierz/second-opinion/internal/prompt"
	"github.com/jerzydziewierz/second-opinion/internal/version"
)

// isolate points the config directory at a temp dir and clears provider overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SECOND_OPINION_CONFIG_DIR", dir)
	for _, key := range []string{
		"OPENAI_MODE", "GEMINI_MODE", "CLAUDE_MODE", "CODEX_REASONING_EFFORT",
		"SECOND_OPINION_ALLOWED_MODELS", "SECOND_OPINION_DEFAULT_MODEL",
		"SECOND_OPINION_SYSTEM_PROMPT_PATH", "SECOND_OPINION_SERVER_TRANSPORT",
		"SECOND_OPINION_LOGGING_OUTPUT",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Equal(t, version.Full()+"\n", out)
}

func TestVersionFlag(t *testing.T) {
	for _, flag := range []string{"--version", "-v"} {
		out, err := execute(t, flag)
		require.NoError(t, err)
		require.Equal(t, version.Version+"\n", out)
	}
}

func TestInitPromptCreatesOnce(t *testing.T) {
	dir := isolate(t)

	out, err := execute(t, "init-prompt")
	require.NoError(t, err)
	path := filepath.Join(dir, "SYSTEM_PROMPT.md")
	require.Contains(t, out, "Created system prompt at: "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, prompt.DefaultSystemPrompt, strings.TrimSpace(string(data)))

	_, err = execute(t, "init-prompt")
	require.ErrorIs(t, err, prompt.ErrPromptExists)
	require.Contains(t, err.Error(), "Remove it first")
}

func TestDoctorListsEnabledModels(t *testing.T) {
	dir := isolate(t)
	t.Setenv("GEMINI_MODE", "api")

	out, err := execute(t, "doctor")
	require.NoError(t, err)
	require.Contains(t, out, "Config OK: "+filepath.Join(dir, "config.json"))
	require.Contains(t, out, "reset to defaults")
	require.Contains(t, out, "System prompt: built-in default")
	require.Regexp(t, `gemini\s+gemini-3-pro-preview\s+provider=gemini mode=api`, out)
	require.Regexp(t, `kilo\s+openrouter/moonshotai/kimi-k2.5\s+provider=kilocode mode=cli`, out)
}

func TestDoctorReportsIgnoredAllowListEntries(t *testing.T) {
	isolate(t)
	t.Setenv("SECOND_OPINION_ALLOWED_MODELS", "claude,mystery")

	out, err := execute(t, "doctor")
	require.NoError(t, err)
	require.Contains(t, out, "claude")
	require.Regexp(t, `mystery\s+ignored`, out)
	require.NotContains(t, out, "gemini-3-pro-preview")
}

func TestServeRefusesWithoutEnabledModels(t *testing.T) {
	isolate(t)
	t.Setenv("SECOND_OPINION_ALLOWED_MODELS", "nothing-matches")

	_, err := execute(t)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no enabled models")
}

func TestServeStdioExitsOnEOF(t *testing.T) {
	isolate(t)

	out, err := execute(t)
	require.NoError(t, err)
	require.Empty(t, out, "nothing but protocol messages may reach stdout")
}

func TestConsultRejectsDisabledModel(t *testing.T) {
	isolate(t)
	t.Setenv("SECOND_OPINION_ALLOWED_MODELS", "claude")

	_, err := execute(t, "consult", "what now?", "--model", "gemini")
	require.Error(t, err)
	require.Contains(t, err.Error(), `model: must be one of "claude"`)
}
