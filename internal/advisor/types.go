package advisor

import (
	"errors"
	"strings"
)

// Tool names exposed to clients.
const (
	ToolConsult   = "consult"
	ToolGetAdvice = "get_advice"
)

var (
	ErrInvalidParameters = errors.New("invalid request parameters")
	ErrGitDiffFailed     = errors.New("git diff failed")
	ErrUnknownTool       = errors.New("unknown tool")
)

// GitDiffArgs asks for a diff of specific files to be included as context.
type GitDiffArgs struct {
	RepoPath string   `json:"repo_path,omitempty" jsonschema_description:"Path to git repository (defaults to current working directory)"`
	Files    []string `json:"files" jsonschema:"required,minItems=1" jsonschema_description:"Specific files to include in diff"`
	BaseRef  string   `json:"base_ref,omitempty" jsonschema:"default=HEAD" jsonschema_description:"Git reference to compare against (e.g., \"HEAD\", \"main\", commit hash)"`
}

// Args is the payload shared by both tools.
type Args struct {
	Files   []string     `json:"files,omitempty" jsonschema_description:"Array of file paths to include as context. All files are added as context with file paths and code blocks."`
	Prompt  string       `json:"prompt" jsonschema:"required,minLength=1" jsonschema_description:"Your question or request for the consultant LLM. Ask neutral, open-ended questions without suggesting specific solutions to avoid biasing the analysis."`
	Model   string       `json:"model,omitempty" jsonschema_description:"LLM model to use."`
	GitDiff *GitDiffArgs `json:"git_diff,omitempty" jsonschema_description:"Generate git diff output to include as context. Shows uncommitted changes by default."`
}

// Content is one block of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the tool-call response payload.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// TextResult wraps text as a successful result.
func TextResult(text string) Result {
	return Result{Content: []Content{{Type: "text", Text: text}}}
}

// ErrorResult turns a pipeline failure into an error result for the client.
func ErrorResult(err error) Result {
	return Result{
		Content: []Content{{Type: "text", Text: "LLM query failed: " + err.Error()}},
		IsError: true,
	}
}

// Text concatenates the text blocks of a result.
func (r Result) Text() string {
	parts := make([]string, 0, len(r.Content))
	for _, c := range r.Content {
		if c.Type == "text" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ParameterError lists every violation found in a payload as "path: message".
type ParameterError struct {
	Issues []string
}

func (e *ParameterError) Error() string {
	return ErrInvalidParameters.Error() + ": " + strings.Join(e.Issues, ", ")
}

// Is matches ErrInvalidParameters.
func (e *ParameterError) Is(target error) bool {
	return target == ErrInvalidParameters
}
