package daemon

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jerzydziewierz/second-opinion/internal/advisor"
	"github.com/jerzydziewierz/second-opinion/internal/config"
	"github.com/jerzydziewierz/second-opinion/internal/llm/configbuilder"
	"github.com/jerzydziewierz/second-opinion/internal/observability"
	"github.com/jerzydziewierz/second-opinion/internal/process"
	"github.com/jerzydziewierz/second-opinion/internal/prompt"
	"github.com/jerzydziewierz/second-opinion/internal/tools"
)

// NewAdvisor assembles the request pipeline from configuration. A nil runner uses the
// default allow-listed process runner. It fails when no model is enabled.
func NewAdvisor(cfg *config.Config, runner process.Runner, logger *zap.Logger, metrics *observability.Metrics) (*advisor.Advisor, *configbuilder.Models, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runner == nil {
		runner = configbuilder.DefaultRunner()
	}

	models, err := configbuilder.Build(cfg, runner, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("build models: %w", err)
	}
	if len(models.Ignored) > 0 {
		logger.Warn("ignoring allowed_models entries that resolve to no provider", zap.Strings("entries", models.Ignored))
	}

	adv, err := advisor.New(advisor.Options{
		Resolver:     models.Resolver,
		Executors:    models.Registry,
		Diff:         tools.NewGitDiff(runner),
		Prompts:      prompt.NewSupplier(cfg.SystemPromptPath, logger),
		Enabled:      models.Enabled,
		DefaultModel: cfg.DefaultModel,
		Logger:       logger,
		Metrics:      metrics,
	})
	if err != nil {
		return nil, nil, err
	}

	if cfg.DefaultModel != "" && cfg.DefaultModel != adv.DefaultModel() {
		logger.Warn("configured default model is not enabled, falling back",
			zap.String("configured", cfg.DefaultModel), zap.String("using", adv.DefaultModel()))
	}
	logger.Info("models enabled", zap.Strings("models", models.Enabled), zap.String("default", adv.DefaultModel()))
	return adv, models, nil
}
