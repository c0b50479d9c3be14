package advisor

import (
	"fmt"
	"strings"
	"time"

	"github.com/jerzydziewierz/second-opinion/internal/tools"
)

// BuildPrompt embeds context files, then the diff block, then the user prompt.
func BuildPrompt(userPrompt string, files []tools.ContextFile, diff string) string {
	if len(files) == 0 {
		return withDiff(userPrompt, diff)
	}
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "File: %s\n```\n%s", f.Path, f.Content)
		if !strings.HasSuffix(f.Content, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```\n\n")
	}
	b.WriteString(withDiff(userPrompt, diff))
	return b.String()
}

// withDiff prepends a fenced diff block. Blank diffs are dropped.
func withDiff(userPrompt, diff string) string {
	if strings.TrimSpace(diff) == "" {
		return userPrompt
	}
	return "## Git Diff\n```diff\n" + diff + "\n```\n\n" + userPrompt
}

// timingBanner formats the consult prefix, e.g.
// [start=12:00:01.250Z end=12:00:04.000Z duration=2.8s model=gemini]
func timingBanner(start, end time.Time, model string) string {
	return fmt.Sprintf("[start=%s end=%s duration=%.1fs model=%s]",
		clock(start), clock(end), end.Sub(start).Seconds(), model)
}

func clock(t time.Time) string {
	return t.UTC().Format("15:04:05.000") + "Z"
}
