package llm

import "context"

// ProviderID names a backend family.
type ProviderID string

const (
	ProviderOpenAI   ProviderID = "openai"
	ProviderGemini   ProviderID = "gemini"
	ProviderClaude   ProviderID = "claude"
	ProviderKiloCode ProviderID = "kilocode"
	ProviderOpenCode ProviderID = "opencode"
)

// Mode selects how a provider is reached.
type Mode string

const (
	ModeCLI Mode = "cli"
	ModeAPI Mode = "api"
)

// Request is the input for a single backend execution.
type Request struct {
	Prompt       string
	Model        string
	SystemPrompt string
	// FilePaths are absolute context-file paths. CLI executors reference them in the
	// prompt; API executors ignore them because contents are already embedded.
	FilePaths []string
}

// Usage captures token accounting reported by API backends.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the result of a backend execution. Usage is nil for CLI backends.
type Response struct {
	Text  string
	Usage *Usage
}

// Executor runs a prompt against one (provider, model, mode) combination.
type Executor interface {
	Execute(ctx context.Context, req Request) (Response, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, req Request) (Response, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
