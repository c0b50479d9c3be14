package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// userFile is the on-disk shape of the per-user config file.
type userFile struct {
	Models               map[string]string `json:"models"`
	DefaultModel         string            `json:"default_model,omitempty"`
	CodexReasoningEffort string            `json:"codex_reasoning_effort,omitempty"`
	SystemPromptPath     string            `json:"system_prompt_path,omitempty"`
	AllowedModels        []string          `json:"allowed_models,omitempty"`
}

// ensureUserFile makes sure path holds a parseable config file, rewriting it with
// defaults when it is missing or malformed. It reports whether a rewrite happened.
func ensureUserFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var f userFile
		if json.Unmarshal(data, &f) == nil {
			return false, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("read config: %w", err)
	}

	if err := writeDefaultUserFile(path); err != nil {
		return false, err
	}
	return true, nil
}

func writeDefaultUserFile(path string) error {
	f := userFile{
		Models:       DefaultModelMapping(),
		DefaultModel: DefaultAlias,
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
