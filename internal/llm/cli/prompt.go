package cli

import (
	"path/filepath"
	"strings"
)

// BuildFullPrompt joins the system prompt and the user prompt and appends a
// "Files:" line referencing each context file relative to cwd.
func BuildFullPrompt(system, prompt string, filePaths []string, cwd string) string {
	full := system + "\n\n" + prompt
	if len(filePaths) == 0 {
		return full
	}
	refs := make([]string, 0, len(filePaths))
	for _, p := range filePaths {
		refs = append(refs, "@"+relativeTo(cwd, p))
	}
	return full + "\n\nFiles: " + strings.Join(refs, " ")
}

func relativeTo(cwd, p string) string {
	if cwd == "" || !filepath.IsAbs(p) {
		return p
	}
	rel, err := filepath.Rel(cwd, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}
