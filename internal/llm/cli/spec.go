// Package cli executes prompts through locally installed backend CLIs.
package cli

import (
	"fmt"
	"strings"

	"github.com/jerzydziewierz/second-opinion/internal/llm"
)

// Spec describes how one provider's CLI is invoked.
type Spec struct {
	// Backend is the display name used in error messages.
	Backend string
	// Binary is the executable looked up on PATH.
	Binary    string
	BuildArgs func(model, prompt string) []string
	// ClassifyExit maps a non-zero exit to an error.
	ClassifyExit func(code int, stderr string) error
	// StripEnv lists variables removed from the child environment.
	StripEnv []string
	// InjectEnv lists variables added when configured and absent from the parent environment.
	InjectEnv map[string]string
}

// SpecOptions carries the configuration that shapes CLI invocations.
type SpecOptions struct {
	OpenAIKey       string
	GeminiKey       string
	ReasoningEffort string
}

// Binaries returns every executable a CLI spec may launch.
func Binaries() []string {
	return []string{"codex", "gemini", "claude", "kilo", "opencode"}
}

// SpecFor returns the invocation spec of a provider.
func SpecFor(provider llm.ProviderID, opts SpecOptions) (Spec, error) {
	switch provider {
	case llm.ProviderOpenAI:
		effort := strings.TrimSpace(opts.ReasoningEffort)
		return Spec{
			Backend: "Codex",
			Binary:  "codex",
			BuildArgs: func(model, prompt string) []string {
				args := []string{"exec", "--skip-git-repo-check", "-m", model}
				if effort != "" {
					args = append(args, "-c", fmt.Sprintf("model_reasoning_effort=%q", effort))
				}
				return append(args, prompt)
			},
			ClassifyExit: exitClassifier("Codex"),
			InjectEnv:    map[string]string{"OPENAI_API_KEY": opts.OpenAIKey},
		}, nil
	case llm.ProviderGemini:
		return Spec{
			Backend: "Gemini",
			Binary:  "gemini",
			BuildArgs: func(model, prompt string) []string {
				return []string{"-m", model, "-p", prompt}
			},
			ClassifyExit: func(code int, stderr string) error {
				if strings.Contains(stderr, "RESOURCE_EXHAUSTED") {
					return &llm.QuotaError{
						ExitError: llm.ExitError{Backend: "Gemini", Code: code, Stderr: stderr},
						Hint:      "Consider using gemini-2.0-flash model.",
					}
				}
				return &llm.ExitError{Backend: "Gemini", Code: code, Stderr: stderr}
			},
			InjectEnv: map[string]string{"GEMINI_API_KEY": opts.GeminiKey},
		}, nil
	case llm.ProviderClaude:
		return Spec{
			Backend: "Claude",
			Binary:  "claude",
			BuildArgs: func(model, prompt string) []string {
				return []string{"--print", "--model", model, prompt}
			},
			ClassifyExit: exitClassifier("Claude"),
			// never forwarded; the CLI authenticates with its own login
			StripEnv: []string{"ANTHROPIC_API_KEY"},
		}, nil
	case llm.ProviderKiloCode:
		return Spec{
			Backend: "Kilocode",
			Binary:  "kilo",
			BuildArgs: func(model, prompt string) []string {
				return []string{"run", "-m", model, prompt}
			},
			ClassifyExit: exitClassifier("Kilocode"),
		}, nil
	case llm.ProviderOpenCode:
		return Spec{
			Backend: "Opencode",
			Binary:  "opencode",
			BuildArgs: func(_, prompt string) []string {
				return []string{"run", "--print", prompt}
			},
			ClassifyExit: exitClassifier("Opencode"),
		}, nil
	default:
		return Spec{}, fmt.Errorf("%w: no CLI spec for %q", llm.ErrUnknownProvider, provider)
	}
}

func exitClassifier(backend string) func(int, string) error {
	return func(code int, stderr string) error {
		return &llm.ExitError{Backend: backend, Code: code, Stderr: stderr}
	}
}
