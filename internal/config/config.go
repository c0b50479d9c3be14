package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	appName        = "second-opinion"
	configFileName = "config.json"
	promptFileName = "SYSTEM_PROMPT.md"
)

// Execution modes accepted for providers that support both.
const (
	ModeAPI = "api"
	ModeCLI = "cli"
)

// Config describes the application configuration loaded from the per-user file and ENV.
type Config struct {
	Models               map[string]string `mapstructure:"models"`
	DefaultModel         string            `mapstructure:"default_model"`
	AllowedModels        []string          `mapstructure:"allowed_models"`
	CodexReasoningEffort string            `mapstructure:"codex_reasoning_effort"`
	SystemPromptPath     string            `mapstructure:"system_prompt_path"`
	BackendTimeout       time.Duration     `mapstructure:"backend_timeout"`
	Providers            ProvidersConfig   `mapstructure:"providers"`
	Logging              LoggingConfig     `mapstructure:"logging"`
	Server               ServerConfig      `mapstructure:"server"`

	// Path is the config file the values were read from.
	Path string `mapstructure:"-"`
	// Healed is set when the config file was missing or malformed and got rewritten with defaults.
	Healed bool `mapstructure:"-"`
}

// ProvidersConfig groups the providers whose execution mode and credentials are configurable.
type ProvidersConfig struct {
	OpenAI ProviderConfig `mapstructure:"openai"`
	Gemini ProviderConfig `mapstructure:"gemini"`
	Claude ProviderConfig `mapstructure:"claude"`
}

// ProviderConfig carries the credential and execution mode for a single provider.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Mode    string `mapstructure:"mode"`     // api or cli
	BaseURL string `mapstructure:"base_url"` // optional API endpoint override
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
	Output string `mapstructure:"output"` // stderr or a file path
}

// ServerConfig describes how tool calls are served.
type ServerConfig struct {
	Transport      string `mapstructure:"transport"` // stdio or http
	Addr           string `mapstructure:"addr"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
}

// DefaultDir returns the per-user configuration directory.
// SECOND_OPINION_CONFIG_DIR overrides the platform default.
func DefaultDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("SECOND_OPINION_CONFIG_DIR")); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, appName), nil
}

// DefaultPath returns the location of the per-user config file.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads configuration from the provided path or the per-user default location.
// A missing or malformed file is rewritten with defaults before reading.
// Environment variables override file values (prefix: SECOND_OPINION_, dots replaced with
// underscores); provider credentials and modes also read their conventional names
// such as OPENAI_API_KEY and CLAUDE_MODE.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	healed, err := ensureUserFile(path)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, filepath.Dir(path))

	v.SetEnvPrefix("SECOND_OPINION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindProviderEnv(v); err != nil {
		return nil, err
	}

	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Path = path
	cfg.Healed = healed
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults populates sensible defaults for optional fields.
func setDefaults(v *viper.Viper, dir string) {
	models := make(map[string]any, len(defaultModels))
	for alias, model := range DefaultModelMapping() {
		models[alias] = model
	}
	v.SetDefault("models", models)
	v.SetDefault("default_model", "")
	v.SetDefault("allowed_models", []string{})
	v.SetDefault("codex_reasoning_effort", "")
	v.SetDefault("system_prompt_path", filepath.Join(dir, promptFileName))
	v.SetDefault("backend_timeout", time.Duration(0))

	v.SetDefault("providers.openai.api_key", "")
	v.SetDefault("providers.openai.mode", ModeCLI)
	v.SetDefault("providers.openai.base_url", "")
	v.SetDefault("providers.gemini.api_key", "")
	v.SetDefault("providers.gemini.mode", ModeCLI)
	v.SetDefault("providers.gemini.base_url", "")
	v.SetDefault("providers.claude.api_key", "")
	v.SetDefault("providers.claude.mode", ModeCLI)
	v.SetDefault("providers.claude.base_url", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.addr", "127.0.0.1:8787")
	v.SetDefault("server.metrics_enabled", true)
}

// bindProviderEnv maps the conventional provider variables onto config keys.
// Prefixed variants (SECOND_OPINION_PROVIDERS_OPENAI_API_KEY) keep working through AutomaticEnv.
func bindProviderEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"providers.openai.api_key": {"OPENAI_API_KEY"},
		"providers.openai.mode":    {"OPENAI_MODE"},
		"providers.gemini.api_key": {"GEMINI_API_KEY"},
		"providers.gemini.mode":    {"GEMINI_MODE"},
		"providers.claude.api_key": {"ANTHROPIC_API_KEY"},
		"providers.claude.mode":    {"CLAUDE_MODE"},
		"codex_reasoning_effort":   {"SECOND_OPINION_CODEX_REASONING_EFFORT", "CODEX_REASONING_EFFORT"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) normalize() {
	c.Models = backfillModels(c.Models)
	c.DefaultModel = strings.TrimSpace(c.DefaultModel)
	c.CodexReasoningEffort = strings.ToLower(strings.TrimSpace(c.CodexReasoningEffort))
	c.SystemPromptPath = expandHome(strings.TrimSpace(c.SystemPromptPath))

	allowed := make([]string, 0, len(c.AllowedModels))
	for _, entry := range c.AllowedModels {
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				allowed = append(allowed, part)
			}
		}
	}
	c.AllowedModels = allowed

	for _, p := range []*ProviderConfig{&c.Providers.OpenAI, &c.Providers.Gemini, &c.Providers.Claude} {
		p.Mode = strings.ToLower(strings.TrimSpace(p.Mode))
		if p.Mode == "" {
			p.Mode = ModeCLI
		}
		p.APIKey = strings.TrimSpace(p.APIKey)
	}
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	if len(c.Models) == 0 {
		return errors.New("at least one model alias must be mapped")
	}
	for _, alias := range sortedKeys(c.Models) {
		if strings.TrimSpace(c.Models[alias]) == "" {
			return fmt.Errorf("model alias %q maps to an empty model name", alias)
		}
	}

	modes := map[string]string{
		"providers.openai.mode": c.Providers.OpenAI.Mode,
		"providers.gemini.mode": c.Providers.Gemini.Mode,
		"providers.claude.mode": c.Providers.Claude.Mode,
	}
	for key, mode := range modes {
		switch mode {
		case ModeAPI, ModeCLI:
		default:
			return fmt.Errorf("%s must be one of api or cli, got %q", key, mode)
		}
	}

	if c.CodexReasoningEffort != "" && !contains(ReasoningEfforts, c.CodexReasoningEffort) {
		return fmt.Errorf("codex_reasoning_effort must be one of %s, got %q",
			strings.Join(ReasoningEfforts, ", "), c.CodexReasoningEffort)
	}

	if c.BackendTimeout < 0 {
		return errors.New("backend_timeout must be >= 0")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be one of console or json, got %q", c.Logging.Format)
	}

	switch strings.ToLower(strings.TrimSpace(c.Server.Transport)) {
	case "", "stdio", "http":
	default:
		return fmt.Errorf("server.transport must be one of stdio or http, got %q", c.Server.Transport)
	}
	if strings.EqualFold(strings.TrimSpace(c.Server.Transport), "http") && strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr is required for the http transport")
	}

	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
