package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jerzydziewierz/second-opinion/internal/llm"
	"github.com/jerzydziewierz/second-opinion/internal/observability"
	"github.com/jerzydziewierz/second-opinion/internal/tools"
)

// ExecutorSource hands out executors per route. *llm.Registry implements it.
type ExecutorSource interface {
	Executor(route llm.Route) (llm.Executor, error)
}

// DiffCollector produces git diff context. *tools.GitDiff implements it.
type DiffCollector interface {
	Generate(ctx context.Context, repoPath string, files []string, baseRef string) tools.GitDiffResult
}

// SystemPrompter supplies the system prompt. *prompt.Supplier implements it.
type SystemPrompter interface {
	SystemPrompt(cliMode bool) string
}

// Options wires an Advisor.
type Options struct {
	Resolver  *llm.Resolver
	Executors ExecutorSource
	Diff      DiffCollector
	Prompts   SystemPrompter
	// Enabled lists the selectable identifiers; the first is the last-resort default.
	Enabled []string
	// DefaultModel is used when a request names no model and it is enabled.
	DefaultModel string
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	// Now is overridable for tests.
	Now func() time.Time
}

// Advisor runs the consult and get_advice pipelines. It holds no per-request state.
type Advisor struct {
	resolver  *llm.Resolver
	executors ExecutorSource
	diff      DiffCollector
	prompts   SystemPrompter
	enabled   []string
	defModel  string
	logger    *zap.Logger
	metrics   *observability.Metrics
	now       func() time.Time
}

// New validates options and creates an Advisor.
func New(opts Options) (*Advisor, error) {
	if opts.Resolver == nil {
		return nil, errors.New("advisor: resolver is required")
	}
	if opts.Executors == nil {
		return nil, errors.New("advisor: executor source is required")
	}
	if opts.Diff == nil {
		return nil, errors.New("advisor: diff collector is required")
	}
	if opts.Prompts == nil {
		return nil, errors.New("advisor: system prompt supplier is required")
	}
	if len(opts.Enabled) == 0 {
		return nil, llm.ErrNoEnabledModels
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Advisor{
		resolver:  opts.Resolver,
		executors: opts.Executors,
		diff:      opts.Diff,
		prompts:   opts.Prompts,
		enabled:   append([]string(nil), opts.Enabled...),
		defModel:  strings.TrimSpace(opts.DefaultModel),
		logger:    logger,
		metrics:   opts.Metrics,
		now:       now,
	}, nil
}

// Enabled returns the selectable model identifiers.
func (a *Advisor) Enabled() []string {
	return append([]string(nil), a.enabled...)
}

// DefaultModel returns the identifier used when a request names none.
func (a *Advisor) DefaultModel() string {
	return a.pickModel("")
}

// Definitions lists the tools with the model enum bound to the enabled set.
func (a *Advisor) Definitions() []ToolDefinition {
	return Definitions(a.enabled, a.DefaultModel())
}

// Call dispatches a raw tool call. Only an unknown tool name is returned as an error;
// every pipeline failure becomes an error result.
func (a *Advisor) Call(ctx context.Context, name string, raw json.RawMessage) (Result, error) {
	if name != ToolConsult && name != ToolGetAdvice {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	start := a.now()
	args, err := ParseArgs(raw, a.enabled)
	if err == nil {
		var res Result
		res, err = a.Run(ctx, name, args)
		if err == nil {
			a.metrics.RecordToolCall(name, "ok", a.now().Sub(start))
			return res, nil
		}
	}
	a.metrics.RecordToolCall(name, outcome(err), a.now().Sub(start))
	a.logger.Warn("tool call failed", zap.String("tool", name), zap.Error(err))
	return ErrorResult(err), nil
}

// Run executes one request for tool end to end.
func (a *Advisor) Run(ctx context.Context, tool string, args Args) (Result, error) {
	model := a.pickModel(args.Model)
	reqID := uuid.NewString()
	logger := a.logger.With(zap.String("tool", tool), zap.String("request_id", reqID), zap.String("model", model))
	logger.Info("tool call",
		zap.Int("files", len(args.Files)),
		zap.Bool("git_diff", args.GitDiff != nil),
		zap.Int("prompt_len", len(args.Prompt)))

	route, err := a.resolver.Resolve(model)
	if err != nil {
		return Result{}, err
	}

	var diff string
	if args.GitDiff != nil {
		baseRef := args.GitDiff.BaseRef
		if baseRef == "" {
			baseRef = tools.DefaultBaseRef
		}
		res := a.diff.Generate(ctx, args.GitDiff.RepoPath, args.GitDiff.Files, baseRef)
		if !res.OK() {
			a.metrics.RecordGitDiffFailure()
			return Result{}, fmt.Errorf("%w: %w", ErrGitDiffFailed, res.Err)
		}
		diff = res.Diff
	}

	userPrompt, filePaths, err := a.assemble(route, args, diff)
	if err != nil {
		return Result{}, err
	}

	systemPrompt := a.prompts.SystemPrompt(route.Mode == llm.ModeCLI)
	logger.Debug("prompt", zap.String("provider", string(route.Provider)),
		zap.String("mode", string(route.Mode)), zap.Int("length", len(userPrompt)))

	exec, err := a.executors.Executor(route)
	if err != nil {
		return Result{}, err
	}

	start := a.now()
	resp, err := exec.Execute(ctx, llm.Request{
		Prompt:       userPrompt,
		Model:        route.Model,
		SystemPrompt: systemPrompt,
		FilePaths:    filePaths,
	})
	end := a.now()
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = llm.ErrEmptyResponse
	}
	a.metrics.RecordBackendCall(string(route.Provider), string(route.Mode), outcome(err), end.Sub(start))
	if err != nil {
		logger.Warn("backend failed", zap.Duration("duration", end.Sub(start)), zap.Error(err))
		return Result{}, err
	}

	fields := []zap.Field{zap.Int("length", len(resp.Text)), zap.Duration("duration", end.Sub(start))}
	if resp.Usage != nil {
		cost := llm.CalculateCost(route.Model, resp.Usage)
		a.metrics.RecordTokens(route.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		fields = append(fields,
			zap.Int("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			zap.Float64("cost_usd", cost.Total))
	} else {
		fields = append(fields, zap.String("cost", "not available in cli mode"))
	}
	logger.Info("response", fields...)

	if tool == ToolConsult {
		return TextResult(timingBanner(start, end, model) + "\n" + resp.Text), nil
	}
	return TextResult(resp.Text), nil
}

// assemble validates context files and builds the prompt. API backends get file
// contents embedded; CLI backends get absolute paths and read the files themselves.
func (a *Advisor) assemble(route llm.Route, args Args, diff string) (string, []string, error) {
	if len(args.Files) == 0 {
		return withDiff(args.Prompt, diff), nil, nil
	}
	if route.Mode == llm.ModeAPI {
		files, err := tools.ReadContextFiles(args.Files)
		if err != nil {
			return "", nil, err
		}
		return BuildPrompt(args.Prompt, files, diff), nil, nil
	}
	if err := tools.ValidateContextFiles(args.Files); err != nil {
		return "", nil, err
	}
	paths, err := tools.ResolvePaths(args.Files)
	if err != nil {
		return "", nil, err
	}
	return withDiff(args.Prompt, diff), paths, nil
}

// pickModel returns the explicit model, else the configured default when enabled,
// else the first enabled identifier.
func (a *Advisor) pickModel(explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	if a.defModel != "" && contains(a.enabled, a.defModel) {
		return a.defModel
	}
	return a.enabled[0]
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidParameters):
		return "invalid_parameters"
	case errors.Is(err, ErrGitDiffFailed):
		return "git_diff_failed"
	case errors.Is(err, llm.ErrQuotaExhausted):
		return "quota_exhausted"
	case errors.Is(err, llm.ErrSpawnFailed):
		return "spawn_failed"
	case errors.Is(err, llm.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
