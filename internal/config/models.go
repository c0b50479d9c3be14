package config

import "sort"

// DefaultAlias is the alias used when neither the request nor the config names a model.
const DefaultAlias = "gemini"

// aliasOrder fixes the enumeration order of aliases (first enabled wins as a fallback).
var aliasOrder = []string{"gemini", "claude", "codex", "kilo", "opencode"}

var defaultModels = map[string]string{
	"gemini":   "gemini-3-pro-preview",
	"claude":   "claude-opus-4-6",
	"codex":    "gpt-5.3-codex",
	"kilo":     "openrouter/moonshotai/kimi-k2.5",
	"opencode": "opencode-default",
}

// ReasoningEfforts lists the accepted values for codex reasoning effort.
var ReasoningEfforts = []string{"none", "minimal", "low", "medium", "high", "xhigh"}

// Aliases returns the user-facing model aliases in enumeration order.
func Aliases() []string {
	return append([]string(nil), aliasOrder...)
}

// IsAlias reports whether name is one of the known aliases.
func IsAlias(name string) bool {
	_, ok := defaultModels[name]
	return ok
}

// DefaultModelMapping returns a fresh copy of the built-in alias -> model mapping.
func DefaultModelMapping() map[string]string {
	out := make(map[string]string, len(defaultModels))
	for alias, model := range defaultModels {
		out[alias] = model
	}
	return out
}

// backfillModels fills aliases that are missing or blank in m with the built-in mapping
// and drops entries that are not aliases.
func backfillModels(m map[string]string) map[string]string {
	out := DefaultModelMapping()
	for alias, model := range m {
		if !IsAlias(alias) || model == "" {
			continue
		}
		out[alias] = model
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
