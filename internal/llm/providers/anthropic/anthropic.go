// Package anthropic executes prompts against the Claude Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/jerzydziewierz/second-opinion/internal/llm"
)

// DefaultMaxTokens caps the length of a Claude reply.
const DefaultMaxTokens = 8192

// Executor sends one user message with a system prompt to the Messages API.
type Executor struct {
	client    sdk.Client
	maxTokens int64
	logger    *zap.Logger
}

// NewExecutor validates the credential and builds an executor. Retries are disabled.
func NewExecutor(apiKey, baseURL string, logger *zap.Logger, opts ...option.RequestOption) (*Executor, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, llm.MissingCredentialError("ANTHROPIC_API_KEY", "Claude")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &Executor{
		client:    sdk.NewClient(reqOpts...),
		maxTokens: DefaultMaxTokens,
		logger:    logger.With(zap.String("provider", "claude")),
	}, nil
}

// Execute runs a single Messages API call and concatenates the text blocks of the reply.
func (e *Executor) Execute(ctx context.Context, req llm.Request) (llm.Response, error) {
	if len(req.FilePaths) > 0 {
		e.logger.Warn("file paths are ignored in API mode; contents must be embedded in the prompt",
			zap.Int("files", len(req.FilePaths)))
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: e.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: req.SystemPrompt}}
	}

	msg, err := e.client.Messages.New(ctx, params)
	if err != nil {
		return llm.Response{}, fmt.Errorf("claude messages: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := b.String()
	if strings.TrimSpace(text) == "" {
		return llm.Response{}, llm.ErrEmptyResponse
	}

	in, out := int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)
	return llm.Response{
		Text:  text,
		Usage: &llm.Usage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out},
	}, nil
}
