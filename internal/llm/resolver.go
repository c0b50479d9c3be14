package llm

import (
	"fmt"
	"sort"
	"strings"
)

// Route is the resolved target of a model identifier.
type Route struct {
	// ID is the identifier as requested (alias or model name).
	ID string
	// Alias is set when ID is an alias.
	Alias    string
	Model    string
	Provider ProviderID
	Mode     Mode
}

// PrefixRule classifies model names starting with Prefix as belonging to Provider.
type PrefixRule struct {
	Prefix   string
	Provider ProviderID
}

// DefaultPrefixes classifies raw model names.
var DefaultPrefixes = []PrefixRule{
	{Prefix: "gpt-", Provider: ProviderOpenAI},
	{Prefix: "gemini-", Provider: ProviderGemini},
	{Prefix: "claude-", Provider: ProviderClaude},
	{Prefix: "opencode-", Provider: ProviderOpenCode},
	{Prefix: "kilocode-", Provider: ProviderKiloCode},
}

// aliasProviders binds every alias to its provider family.
var aliasProviders = map[string]ProviderID{
	"gemini":   ProviderGemini,
	"claude":   ProviderClaude,
	"codex":    ProviderOpenAI,
	"kilo":     ProviderKiloCode,
	"opencode": ProviderOpenCode,
}

// cliOnly lists providers that have no API strategy.
var cliOnly = map[ProviderID]bool{
	ProviderKiloCode: true,
	ProviderOpenCode: true,
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// Aliases is the ordered alias set; the order decides the first-enabled fallback.
	Aliases []string
	// Models maps each alias to its concrete model name.
	Models map[string]string
	// Modes holds the configured execution mode per provider. Missing entries mean CLI.
	Modes map[ProviderID]Mode
	// Prefixes overrides DefaultPrefixes.
	Prefixes []PrefixRule
}

// Resolver maps model identifiers to providers and execution modes. It is immutable
// and safe for concurrent use.
type Resolver struct {
	aliases  []string
	models   map[string]string
	modes    map[ProviderID]Mode
	prefixes []PrefixRule
}

// NewResolver validates options and builds a Resolver.
func NewResolver(opts ResolverOptions) (*Resolver, error) {
	prefixes := opts.Prefixes
	if prefixes == nil {
		prefixes = DefaultPrefixes
	}
	if err := ValidatePrefixes(prefixes); err != nil {
		return nil, err
	}

	r := &Resolver{
		aliases:  append([]string(nil), opts.Aliases...),
		models:   make(map[string]string, len(opts.Models)),
		modes:    make(map[ProviderID]Mode, len(opts.Modes)),
		prefixes: append([]PrefixRule(nil), prefixes...),
	}

	for _, alias := range r.aliases {
		if _, ok := aliasProviders[alias]; !ok {
			return nil, fmt.Errorf("%w: %q has no provider binding", ErrUnknownModelAlias, alias)
		}
		model := strings.TrimSpace(opts.Models[alias])
		if model == "" {
			return nil, fmt.Errorf("%w: %q has no model mapping", ErrUnknownModelAlias, alias)
		}
		r.models[alias] = model
	}

	for provider, mode := range opts.Modes {
		switch mode {
		case ModeCLI, ModeAPI:
		default:
			return nil, fmt.Errorf("invalid execution mode %q for provider %s", mode, provider)
		}
		if cliOnly[provider] && mode != ModeCLI {
			return nil, fmt.Errorf("%w: provider %s only supports cli", ErrModeUnsupported, provider)
		}
		r.modes[provider] = mode
	}
	return r, nil
}

// ValidatePrefixes rejects empty prefixes and tables where one prefix is a prefix of
// another, so classification never depends on rule order.
func ValidatePrefixes(rules []PrefixRule) error {
	sorted := make([]string, 0, len(rules))
	for _, rule := range rules {
		if rule.Prefix == "" {
			return fmt.Errorf("provider prefix for %s must not be empty", rule.Provider)
		}
		sorted = append(sorted, rule.Prefix)
	}
	sort.Strings(sorted)
	for i := 1; i < len(sorted); i++ {
		if strings.HasPrefix(sorted[i], sorted[i-1]) {
			return fmt.Errorf("provider prefixes %q and %q overlap", sorted[i-1], sorted[i])
		}
	}
	return nil
}

// Aliases returns the ordered alias set.
func (r *Resolver) Aliases() []string {
	return append([]string(nil), r.aliases...)
}

// IsAlias reports whether id is a configured alias.
func (r *Resolver) IsAlias(id string) bool {
	_, ok := r.models[id]
	return ok
}

// ResolveProvider classifies a concrete model name by its prefix.
func (r *Resolver) ResolveProvider(model string) (ProviderID, error) {
	for _, rule := range r.prefixes {
		if strings.HasPrefix(model, rule.Prefix) {
			return rule.Provider, nil
		}
	}
	return "", fmt.Errorf("%w for model %q", ErrUnknownProvider, model)
}

// Mode returns the execution mode of a provider.
func (r *Resolver) Mode(provider ProviderID) Mode {
	if cliOnly[provider] {
		return ModeCLI
	}
	if mode, ok := r.modes[provider]; ok {
		return mode
	}
	return ModeCLI
}

// Resolve maps an alias or raw model name to its route.
func (r *Resolver) Resolve(id string) (Route, error) {
	if model, ok := r.models[id]; ok {
		provider := aliasProviders[id]
		return Route{ID: id, Alias: id, Model: model, Provider: provider, Mode: r.Mode(provider)}, nil
	}
	if _, ok := aliasProviders[id]; ok {
		return Route{}, fmt.Errorf("%w: %q is not configured", ErrUnknownModelAlias, id)
	}
	provider, err := r.ResolveProvider(id)
	if err != nil {
		return Route{}, err
	}
	return Route{ID: id, Model: id, Provider: provider, Mode: r.Mode(provider)}, nil
}

// ResolveExecutionMode returns the mode a model identifier executes in.
func (r *Resolver) ResolveExecutionMode(id string) (Mode, error) {
	route, err := r.Resolve(id)
	if err != nil {
		return "", err
	}
	return route.Mode, nil
}

// IsCLIMode reports whether a model identifier executes through a CLI.
func (r *Resolver) IsCLIMode(id string) (bool, error) {
	mode, err := r.ResolveExecutionMode(id)
	if err != nil {
		return false, err
	}
	return mode == ModeCLI, nil
}

// Enabled computes the enabled identifier set. An empty allow list enables every alias.
// Entries that do not resolve are returned in ignored. An empty result is an error.
func (r *Resolver) Enabled(allowed []string) (enabled []string, ignored []string, err error) {
	if len(allowed) == 0 {
		enabled = r.Aliases()
	} else {
		seen := make(map[string]bool, len(allowed))
		for _, id := range allowed {
			if seen[id] {
				continue
			}
			seen[id] = true
			if _, resolveErr := r.Resolve(id); resolveErr != nil {
				ignored = append(ignored, id)
				continue
			}
			enabled = append(enabled, id)
		}
	}
	if len(enabled) == 0 {
		return nil, ignored, fmt.Errorf("%w: none of %v resolves to a provider", ErrNoEnabledModels, allowed)
	}
	return enabled, ignored, nil
}
