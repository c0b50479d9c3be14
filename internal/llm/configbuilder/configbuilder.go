package configbuilder

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jerzydziewierz/second-opinion/internal/config"
	"github.com/jerzydziewierz/second-opinion/internal/llm"
	llmcli "github.com/jerzydziewierz/second-opinion/internal/llm/cli"
	llmanthropic "github.com/jerzydziewierz/second-opinion/internal/llm/providers/anthropic"
	llmopenai "github.com/jerzydziewierz/second-opinion/internal/llm/providers/openai"
	"github.com/jerzydziewierz/second-opinion/internal/process"
)

// Models is the model layer assembled from configuration.
type Models struct {
	Resolver *llm.Resolver
	Registry *llm.Registry
	// Enabled lists the selectable identifiers in fallback order.
	Enabled []string
	// Ignored lists allow-list entries that did not resolve.
	Ignored []string
}

// BuildResolver constructs the provider resolver from config.
func BuildResolver(cfg *config.Config) (*llm.Resolver, error) {
	modes := make(map[llm.ProviderID]llm.Mode, 3)
	for provider, mode := range map[llm.ProviderID]string{
		llm.ProviderOpenAI: cfg.Providers.OpenAI.Mode,
		llm.ProviderGemini: cfg.Providers.Gemini.Mode,
		llm.ProviderClaude: cfg.Providers.Claude.Mode,
	} {
		if mode != "" {
			modes[provider] = llm.Mode(mode)
		}
	}
	r, err := llm.NewResolver(llm.ResolverOptions{
		Aliases: config.Aliases(),
		Models:  cfg.Models,
		Modes:   modes,
	})
	if err != nil {
		return nil, fmt.Errorf("build resolver: %w", err)
	}
	return r, nil
}

// Build constructs the resolver, the enabled set and the executor cache.
// It fails when no configured model is enabled.
func Build(cfg *config.Config, runner process.Runner, logger *zap.Logger) (*Models, error) {
	resolver, err := BuildResolver(cfg)
	if err != nil {
		return nil, err
	}
	enabled, ignored, err := resolver.Enabled(cfg.AllowedModels)
	if err != nil {
		return nil, err
	}
	return &Models{
		Resolver: resolver,
		Registry: llm.NewRegistry(NewFactory(cfg, runner, logger)),
		Enabled:  enabled,
		Ignored:  ignored,
	}, nil
}

// NewFactory returns the executor factory backing the registry.
func NewFactory(cfg *config.Config, runner process.Runner, logger *zap.Logger) llm.Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runner == nil {
		runner = DefaultRunner()
	}
	return &factory{cfg: cfg, runner: runner, logger: logger}
}

// DefaultRunner allows exactly the backend CLIs and git.
func DefaultRunner() *process.Exec {
	return &process.Exec{Allowed: append(llmcli.Binaries(), "git")}
}

type factory struct {
	cfg    *config.Config
	runner process.Runner
	logger *zap.Logger
}

func (f *factory) NewExecutor(route llm.Route) (llm.Executor, error) {
	switch route.Mode {
	case llm.ModeCLI:
		spec, err := llmcli.SpecFor(route.Provider, llmcli.SpecOptions{
			OpenAIKey:       f.cfg.Providers.OpenAI.APIKey,
			GeminiKey:       f.cfg.Providers.Gemini.APIKey,
			ReasoningEffort: f.cfg.CodexReasoningEffort,
		})
		if err != nil {
			return nil, err
		}
		return llmcli.NewExecutor(spec, f.runner, f.logger, llmcli.WithTimeout(f.cfg.BackendTimeout)), nil
	case llm.ModeAPI:
		exec, err := buildAPIExecutor(route.Provider, f.cfg, f.logger)
		if err != nil {
			return nil, err
		}
		return llm.WithTimeout(exec, f.cfg.BackendTimeout), nil
	default:
		return nil, fmt.Errorf("%w: %q for provider %s", llm.ErrModeUnsupported, route.Mode, route.Provider)
	}
}

func buildAPIExecutor(provider llm.ProviderID, cfg *config.Config, logger *zap.Logger) (llm.Executor, error) {
	switch provider {
	case llm.ProviderOpenAI:
		return llmopenai.NewOpenAI(cfg.Providers.OpenAI.APIKey, cfg.Providers.OpenAI.BaseURL, logger)
	case llm.ProviderGemini:
		return llmopenai.NewGemini(cfg.Providers.Gemini.APIKey, cfg.Providers.Gemini.BaseURL, logger)
	case llm.ProviderClaude:
		return llmanthropic.NewExecutor(cfg.Providers.Claude.APIKey, cfg.Providers.Claude.BaseURL, logger)
	default:
		return nil, fmt.Errorf("%w: provider %s has no API strategy", llm.ErrModeUnsupported, provider)
	}
}
