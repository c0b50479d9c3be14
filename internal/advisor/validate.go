package advisor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseArgs checks a raw payload and decodes it. Every violation is collected into one
// *ParameterError. An empty enabled list skips the model membership check.
func ParseArgs(raw json.RawMessage, enabled []string) (Args, error) {
	var issues []string
	add := func(path, format string, a ...any) {
		issues = append(issues, path+": "+fmt.Sprintf(format, a...))
	}

	var payload map[string]any
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Args{}, &ParameterError{Issues: []string{"prompt: is required"}}
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		return Args{}, &ParameterError{Issues: []string{"(root): expected object"}}
	}

	switch v := payload["prompt"].(type) {
	case nil:
		add("prompt", "is required")
	case string:
		if strings.TrimSpace(v) == "" {
			add("prompt", "must not be empty")
		}
	default:
		add("prompt", "expected string, got %s", typeName(v))
	}

	checkStrings(payload["files"], "files", add)

	switch v := payload["model"].(type) {
	case nil:
	case string:
		if len(enabled) > 0 && !contains(enabled, v) {
			add("model", "must be one of %s, got %q", quoteAll(enabled), v)
		}
	default:
		add("model", "expected string, got %s", typeName(v))
	}

	switch v := payload["git_diff"].(type) {
	case nil:
	case map[string]any:
		if v["files"] == nil {
			add("git_diff.files", "is required")
		} else if list, ok := v["files"].([]any); ok && len(list) == 0 {
			add("git_diff.files", "at least one file is required for git diff")
		}
		checkStrings(v["files"], "git_diff.files", add)
		for _, key := range []string{"repo_path", "base_ref"} {
			if field, ok := v[key]; ok && field != nil {
				if _, isString := field.(string); !isString {
					add("git_diff."+key, "expected string, got %s", typeName(field))
				}
			}
		}
	default:
		add("git_diff", "expected object, got %s", typeName(v))
	}

	if len(issues) > 0 {
		return Args{}, &ParameterError{Issues: issues}
	}

	var args Args
	if err := json.Unmarshal(raw, &args); err != nil {
		return Args{}, &ParameterError{Issues: []string{"(root): " + err.Error()}}
	}
	return args, nil
}

func checkStrings(value any, path string, add func(path, format string, a ...any)) {
	if value == nil {
		return
	}
	list, ok := value.([]any)
	if !ok {
		add(path, "expected array, got %s", typeName(value))
		return
	}
	for i, item := range list {
		if _, ok := item.(string); !ok {
			add(fmt.Sprintf("%s.%d", path, i), "expected string, got %s", typeName(item))
		}
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
