// Package openai executes prompts against OpenAI-compatible chat completion APIs.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/jerzydziewierz/second-opinion/internal/llm"
)

const (
	// OpenAIBaseURL is the default OpenAI endpoint.
	OpenAIBaseURL = "https://api.openai.com/v1"
	// GeminiBaseURL is Google's OpenAI-compatible endpoint.
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
)

// Options configures an Executor.
type Options struct {
	// Name is the provider family used in messages, e.g. "OpenAI" or "Gemini".
	Name string
	// EnvVar names the variable the key is expected in.
	EnvVar     string
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Executor sends a system + user message pair to a chat completion endpoint.
type Executor struct {
	name   string
	client *goopenai.Client
	logger *zap.Logger
}

// NewExecutor validates the credential and builds an executor. A missing key fails here,
// before any request is attempted.
func NewExecutor(opts Options, logger *zap.Logger) (*Executor, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, llm.MissingCredentialError(opts.EnvVar, opts.Name)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := goopenai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	return &Executor{
		name:   opts.Name,
		client: goopenai.NewClientWithConfig(cfg),
		logger: logger.With(zap.String("provider", strings.ToLower(opts.Name))),
	}, nil
}

// NewOpenAI builds an executor for OpenAI models.
func NewOpenAI(apiKey, baseURL string, logger *zap.Logger) (*Executor, error) {
	if baseURL == "" {
		baseURL = OpenAIBaseURL
	}
	return NewExecutor(Options{Name: "OpenAI", EnvVar: "OPENAI_API_KEY", APIKey: apiKey, BaseURL: baseURL}, logger)
}

// NewGemini builds an executor for Gemini models through the OpenAI-compatible endpoint.
func NewGemini(apiKey, baseURL string, logger *zap.Logger) (*Executor, error) {
	if baseURL == "" {
		baseURL = GeminiBaseURL
	}
	return NewExecutor(Options{Name: "Gemini", EnvVar: "GEMINI_API_KEY", APIKey: apiKey, BaseURL: baseURL}, logger)
}

// Execute runs a non-streaming chat completion.
func (e *Executor) Execute(ctx context.Context, req llm.Request) (llm.Response, error) {
	if req.Model == "" {
		return llm.Response{}, fmt.Errorf("model is required")
	}
	if len(req.FilePaths) > 0 {
		e.logger.Warn("file paths are ignored in API mode; contents must be embedded in the prompt",
			zap.Int("files", len(req.FilePaths)))
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := e.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	})
	if err != nil {
		return llm.Response{}, fmt.Errorf("%s chat completion: %w", e.name, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return llm.Response{}, llm.ErrEmptyResponse
	}

	out := llm.Response{Text: resp.Choices[0].Message.Content}
	if resp.Usage.TotalTokens > 0 || resp.Usage.PromptTokens > 0 || resp.Usage.CompletionTokens > 0 {
		out.Usage = &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out, nil
}
